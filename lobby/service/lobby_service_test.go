package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/halfway/api"
	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/identity"
	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/lobby/view"
	"github.com/wricardo/halfway/lobbytest"
)

func newTestService(t *testing.T, srv *lobbytest.Server, st store.Store) LobbyService {
	t.Helper()

	client, err := api.NewClient(srv.URL())
	if err != nil {
		t.Fatalf("Failed to create api client: %v", err)
	}
	svc, err := New(Options{
		API:      client,
		Store:    st,
		AudioDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc
}

// waitFor polls the snapshot until cond holds
func waitFor(t *testing.T, svc LobbyService, cond func(*LobbyState) bool) *LobbyState {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		state, err := svc.Snapshot()
		if err == nil && cond(state) {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
	return nil
}

func TestNew_RequiresAPI(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error without an API client")
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abcd1234", "ABCD1234"},
		{"  xyz  ", "XYZ"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLobbyService_JoinEmptyCode(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	svc := newTestService(t, srv, nil)

	if _, err := svc.Join(context.Background(), "   "); !errors.Is(err, ErrEmptyLobbyCode) {
		t.Errorf("Expected ErrEmptyLobbyCode, got %v", err)
	}
}

func TestLobbyService_NotJoined(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	svc := newTestService(t, srv, nil)
	ctx := context.Background()

	if err := svc.AddPoint(ctx, geo.Point{Lat: 1, Lon: 1}); !errors.Is(err, ErrNotJoined) {
		t.Errorf("AddPoint: expected ErrNotJoined, got %v", err)
	}
	if err := svc.SendChat(ctx, "hi"); !errors.Is(err, ErrNotJoined) {
		t.Errorf("SendChat: expected ErrNotJoined, got %v", err)
	}
	if _, err := svc.Speak(ctx, 1); !errors.Is(err, ErrNotJoined) {
		t.Errorf("Speak: expected ErrNotJoined, got %v", err)
	}
	if _, err := svc.Snapshot(); !errors.Is(err, ErrNotJoined) {
		t.Errorf("Snapshot: expected ErrNotJoined, got %v", err)
	}
	if err := svc.Leave(ctx); !errors.Is(err, ErrNotJoined) {
		t.Errorf("Leave: expected ErrNotJoined, got %v", err)
	}
	select {
	case <-svc.Done():
	default:
		t.Error("Done should be closed before any join")
	}
}

func TestLobbyService_CreateAndJoin(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	st := store.NewMemoryStore()
	svc := newTestService(t, srv, st)
	ctx := context.Background()

	code, err := svc.CreateLobby(ctx)
	if err != nil {
		t.Fatalf("CreateLobby failed: %v", err)
	}

	info, err := svc.Join(ctx, " "+strings.ToLower(code)+" ")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if info.Code != code {
		t.Errorf("Expected code %s, got %s", code, info.Code)
	}
	if !info.Guest || !identity.IsGuestID(info.UserID) {
		t.Errorf("Expected a guest id, got %+v", info)
	}
	if info.ChatName != identity.ChatName(info.UserID) {
		t.Errorf("Expected chat name %s, got %s", identity.ChatName(info.UserID), info.ChatName)
	}
	if svc.UserID() != info.UserID {
		t.Errorf("UserID() = %s, want %s", svc.UserID(), info.UserID)
	}

	last, err := store.GetString(st, LastLobbyKey)
	if err != nil || last != code {
		t.Errorf("Expected last lobby %s, got %q (%v)", code, last, err)
	}

	waitFor(t, svc, func(s *LobbyState) bool { return s.View.Updates > 0 })

	if _, err := svc.Join(ctx, code); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("Expected ErrAlreadyJoined, got %v", err)
	}
}

func TestLobbyService_PointsAndChat(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()

	alice := newTestService(t, srv, store.NewMemoryStore())
	bob := newTestService(t, srv, store.NewMemoryStore())
	ctx := context.Background()

	if _, err := alice.Join(ctx, code); err != nil {
		t.Fatalf("alice Join failed: %v", err)
	}
	if _, err := bob.Join(ctx, code); err != nil {
		t.Fatalf("bob Join failed: %v", err)
	}

	if err := alice.AddPoint(ctx, geo.Point{Lat: 0, Lon: 0}); err != nil {
		t.Fatalf("alice AddPoint failed: %v", err)
	}
	if err := bob.AddPoint(ctx, geo.Point{Lat: 0, Lon: 90}); err != nil {
		t.Fatalf("bob AddPoint failed: %v", err)
	}

	state := waitFor(t, alice, func(s *LobbyState) bool {
		return len(s.View.Pins) == 2 && s.View.Reachable != nil && s.View.City != ""
	})
	if state.View.Geometric == nil {
		t.Fatal("Expected a geometric midpoint")
	}
	if diff := state.View.Geometric.Point.Lon - 45; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Expected midpoint lon 45, got %f", state.View.Geometric.Point.Lon)
	}
	if state.View.Reachable.Label != "Midpoint Plaza" {
		t.Errorf("Expected reachable label, got %q", state.View.Reachable.Label)
	}
	if len(state.View.Connectors) != 4 {
		t.Errorf("Expected 4 connectors, got %d", len(state.View.Connectors))
	}
	if state.View.City != "Testville" {
		t.Errorf("Expected city Testville, got %q", state.View.City)
	}

	if err := bob.SendChat(ctx, "  "); err == nil {
		t.Error("Expected error for blank chat")
	}
	if err := bob.SendChat(ctx, "see you there"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	state = waitFor(t, alice, func(s *LobbyState) bool { return len(s.View.Chat) == 1 })
	if state.View.Chat[0].Name != identity.ChatName(bob.UserID()) {
		t.Errorf("Expected shortened name, got %q", state.View.Chat[0].Name)
	}
}

func TestLobbyService_Speak(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()
	svc := newTestService(t, srv, nil)
	ctx := context.Background()

	if _, err := svc.Join(ctx, code); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := svc.SendChat(ctx, "hello there"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	waitFor(t, svc, func(s *LobbyState) bool { return len(s.View.Chat) == 1 })

	if _, err := svc.Speak(ctx, 2); !errors.Is(err, ErrNoSuchLine) {
		t.Errorf("Expected ErrNoSuchLine, got %v", err)
	}

	path, err := svc.Speak(ctx, 1)
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("Expected .wav file, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected audio file on disk: %v", err)
	}

	texts := srv.TTSTexts()
	if len(texts) != 1 || texts[0] != "hello there" {
		t.Errorf("Unexpected tts requests: %v", texts)
	}
}

func TestLobbyService_TogglePanel(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()
	st := store.NewMemoryStore()
	svc := newTestService(t, srv, st)

	if _, err := svc.TogglePanel("chat"); !errors.Is(err, ErrNotJoined) {
		t.Errorf("Expected ErrNotJoined, got %v", err)
	}
	if _, err := svc.Join(context.Background(), code); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	panels, err := svc.TogglePanel("chat")
	if err != nil {
		t.Fatalf("TogglePanel failed: %v", err)
	}
	if panels.Chat == view.DefaultPanels().Chat {
		t.Error("Expected chat visibility to flip")
	}

	saved, err := view.LoadPanels(st, code)
	if err != nil {
		t.Fatalf("LoadPanels failed: %v", err)
	}
	if saved != panels {
		t.Errorf("Expected saved panels %+v, got %+v", panels, saved)
	}
}

func TestLobbyService_LeaveAndRejoin(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()
	svc := newTestService(t, srv, store.NewMemoryStore())
	ctx := context.Background()

	info, err := svc.Join(ctx, code)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := svc.Leave(ctx); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	select {
	case <-svc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after Leave")
	}

	state, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if state.Session != "left" {
		t.Errorf("Expected session left, got %s", state.Session)
	}

	again, err := svc.Join(ctx, code)
	if err != nil {
		t.Fatalf("Rejoin failed: %v", err)
	}
	if again.UserID != info.UserID {
		t.Errorf("Expected stable user id %s, got %s", info.UserID, again.UserID)
	}
}

func TestLobbyService_ConnectionDrop(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()
	svc := newTestService(t, srv, nil)

	if _, err := svc.Join(context.Background(), code); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	srv.DropConnections()

	select {
	case <-svc.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("Done not closed after the connection dropped")
	}
	if err := svc.SendChat(context.Background(), "anyone?"); !errors.Is(err, ErrNotJoined) {
		t.Errorf("Expected ErrNotJoined after drop, got %v", err)
	}
}

func TestLobbyService_RendersToOutput(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	code := srv.CreateLobby()

	client, err := api.NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	svc, err := New(Options{API: client, Plain: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Join(context.Background(), code); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	waitFor(t, svc, func(s *LobbyState) bool { return s.View.Updates > 0 })

	if err := svc.Render(&out); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out.String(), code) {
		t.Errorf("Expected lobby code in output, got %s", out.String())
	}
}
