package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/identity"
	"github.com/wricardo/halfway/lobby/session"
	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/lobby/view"
	"github.com/wricardo/halfway/logging"
)

// LastLobbyKey remembers the most recently joined lobby
const LastLobbyKey = "lastLobby"

// lobbyServiceImpl implements the LobbyService interface
type lobbyServiceImpl struct {
	opts Options

	mu       sync.RWMutex
	user     identity.User
	client   *session.Client
	renderer *view.Renderer
	done     chan struct{}
}

// New creates a lobby service
func New(opts Options) (LobbyService, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("lobby API is required")
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Identity == nil {
		opts.Identity = identity.NewResolver(nil, opts.Store)
	}
	if opts.WSPath == "" {
		opts.WSPath = "/ws"
	}
	if opts.AudioDir == "" {
		opts.AudioDir = "."
	}
	if opts.PointBurst < 1 {
		opts.PointBurst = 1
	}

	return &lobbyServiceImpl{opts: opts}, nil
}

// NormalizeCode trims and upper-cases a lobby code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateLobby asks the server for a new lobby
func (s *lobbyServiceImpl) CreateLobby(ctx context.Context) (string, error) {
	code, err := s.opts.API.CreateLobby(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to create lobby")
		return "", err
	}
	return code, nil
}

// Join connects to the lobby and starts rendering its broadcasts
func (s *lobbyServiceImpl) Join(ctx context.Context, code string) (*JoinInfo, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrEmptyLobbyCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.client.State() == session.Joined {
		return nil, ErrAlreadyJoined
	}

	user, err := s.opts.Identity.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	var limiter *rate.Limiter
	if s.opts.PointRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.PointRate), s.opts.PointBurst)
	}

	client, err := session.New(session.Options{
		URL:     s.opts.API.WebSocketURL(s.opts.WSPath),
		Code:    code,
		UserID:  user.ID,
		Dial:    s.opts.Dial,
		Limiter: limiter,
	})
	if err != nil {
		return nil, err
	}

	renderer := view.NewRenderer(view.RendererOptions{
		Out:               s.opts.Out,
		Code:              code,
		Store:             s.opts.Store,
		SelfID:            user.ID,
		ConnectorDuration: s.opts.AnimationDuration,
		Animate:           s.opts.Animate,
		Plain:             s.opts.Plain,
	})

	if err := client.Connect(ctx); err != nil {
		logging.Error().Err(err).Str("lobby", code).Msg("failed to join lobby")
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = renderer.Run(context.Background(), client.Events())
		if client.State() == session.Failed {
			logging.Warn().Str("lobby", code).Err(client.Err()).Msg("lobby session ended")
		}
	}()

	if err := store.SetString(s.opts.Store, LastLobbyKey, code); err != nil {
		logging.Warn().Err(err).Msg("failed to remember lobby")
	}

	s.user = user
	s.client = client
	s.renderer = renderer
	s.done = done

	return &JoinInfo{
		Code:     code,
		UserID:   user.ID,
		ChatName: identity.ChatName(user.ID),
		Guest:    user.Guest,
	}, nil
}

// AddPoint sets this user's point in the joined lobby
func (s *lobbyServiceImpl) AddPoint(ctx context.Context, p geo.Point) error {
	client, err := s.joined()
	if err != nil {
		return err
	}
	return client.AddPoint(ctx, p)
}

// SendChat posts text under the shortened user name
func (s *lobbyServiceImpl) SendChat(ctx context.Context, text string) error {
	client, err := s.joined()
	if err != nil {
		return err
	}
	return client.SendChat(ctx, identity.ChatName(client.UserID()), text)
}

// Speak synthesizes the 1-based chat line and returns the saved audio path
func (s *lobbyServiceImpl) Speak(ctx context.Context, line int) (string, error) {
	s.mu.RLock()
	renderer := s.renderer
	code := ""
	if s.client != nil {
		code = s.client.Code()
	}
	s.mu.RUnlock()

	if renderer == nil {
		return "", ErrNotJoined
	}
	entry, ok := renderer.ChatLine(line - 1)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrNoSuchLine, line)
	}

	audio, err := s.opts.API.Speak(ctx, entry.Text)
	if err != nil {
		logging.Error().Err(err).Int("line", line).Msg("tts request failed")
		return "", err
	}

	name := fmt.Sprintf("%s-%d-%d", strings.ToLower(code), line, time.Now().UnixMilli())
	path, err := audio.Save(s.opts.AudioDir, name)
	if err != nil {
		logging.Error().Err(err).Msg("failed to save audio")
		return "", err
	}
	return path, nil
}

// TogglePanel flips the chat or details panel of the joined lobby
func (s *lobbyServiceImpl) TogglePanel(name string) (view.Panels, error) {
	s.mu.RLock()
	renderer := s.renderer
	s.mu.RUnlock()

	if renderer == nil {
		return view.Panels{}, ErrNotJoined
	}
	return renderer.TogglePanel(name)
}

// Leave announces departure and waits for the renderer to finish
func (s *lobbyServiceImpl) Leave(ctx context.Context) error {
	client, err := s.joined()
	if err != nil {
		return err
	}

	err = client.Leave(ctx)

	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, session.ErrNotJoined) {
		return ErrNotJoined
	}
	return err
}

// Snapshot returns the current lobby view
func (s *lobbyServiceImpl) Snapshot() (*LobbyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, ErrNotJoined
	}
	return &LobbyState{
		Code:    s.client.Code(),
		UserID:  s.client.UserID(),
		Session: s.client.State().String(),
		View:    s.renderer.Snapshot(),
	}, nil
}

// Render draws the current view to w
func (s *lobbyServiceImpl) Render(w io.Writer) error {
	s.mu.RLock()
	renderer := s.renderer
	s.mu.RUnlock()

	if renderer == nil {
		return ErrNotJoined
	}
	return renderer.Render(w)
}

// UserID returns the id used in the joined lobby
func (s *lobbyServiceImpl) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.ID
}

// Done is closed when the joined lobby's session ends
func (s *lobbyServiceImpl) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

func (s *lobbyServiceImpl) joined() (*session.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil || s.client.State() != session.Joined {
		return nil, ErrNotJoined
	}
	return s.client, nil
}
