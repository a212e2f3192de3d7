package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/halfway/lobbytest"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://localhost:8000", false},
		{"https://halfway.example/", false},
		{"ftp://nope", true},
		{"localhost:8000", true},
	}
	for _, tt := range tests {
		_, err := NewClient(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestClient_WebSocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws"},
		{"https://halfway.example/", "wss://halfway.example/ws"},
		{"https://halfway.example/app", "wss://halfway.example/app/ws"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.base)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.WebSocketURL("/ws"); got != tt.want {
			t.Errorf("WebSocketURL(%s) = %s, want %s", tt.base, got, tt.want)
		}
	}
}

func TestClient_CreateLobby(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()

	c, err := NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}

	code, err := c.CreateLobby(context.Background())
	if err != nil {
		t.Fatalf("CreateLobby failed: %v", err)
	}
	if len(code) != 8 || strings.ToUpper(code) != code {
		t.Errorf("unexpected lobby code %q", code)
	}
}

func TestClient_Speak(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()

	c, err := NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}

	audio, err := c.Speak(context.Background(), "see you there")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if audio.Extension != ".wav" {
		t.Errorf("Extension = %q, want .wav", audio.Extension)
	}
	if !strings.HasPrefix(audio.MIME, "audio/") {
		t.Errorf("MIME = %q, want audio/*", audio.MIME)
	}
	if texts := srv.TTSTexts(); len(texts) != 1 || texts[0] != "see you there" {
		t.Errorf("server received %v", texts)
	}

	dir := t.TempDir()
	path, err := audio.Save(dir, "line-1")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "line-1.wav") {
		t.Errorf("saved to %s", path)
	}
	if data, _ := os.ReadFile(path); len(data) != len(lobbytest.SampleAudio) {
		t.Error("saved audio does not match the response")
	}

	if _, err := c.Speak(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Speak(blank) error = %v, want ErrEmptyText", err)
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := lobbytest.New()
	defer srv.Close()
	srv.SetTTSStatus(http.StatusBadGateway)

	c, err := NewClient(srv.URL())
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Speak(context.Background(), "hello")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway || se.Op != "tts" {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < failureThreshold; i++ {
		if _, err := c.CreateLobby(context.Background()); err == nil {
			t.Fatal("expected failure from a 503 server")
		}
	}

	_, err = c.CreateLobby(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable once the breaker is open, got %v", err)
	}
	if calls != failureThreshold {
		t.Errorf("server saw %d calls, want %d", calls, failureThreshold)
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < failureThreshold+2; i++ {
		_, err := c.CreateLobby(context.Background())
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
			t.Fatalf("call %d: expected 400 status error, got %v", i, err)
		}
	}
}

func TestClient_InvalidCreateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lobby":"x"}`))
	}))
	defer server.Close()

	c, _ := NewClient(server.URL)
	if _, err := c.CreateLobby(context.Background()); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}
