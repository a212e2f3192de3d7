package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/wricardo/halfway/api"
	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/identity"
	"github.com/wricardo/halfway/lobby/session"
	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/lobby/view"
)

var (
	ErrEmptyLobbyCode = errors.New("lobby code is empty")
	ErrAlreadyJoined  = errors.New("already joined a lobby")
	ErrNotJoined      = errors.New("not joined to a lobby")
	ErrNoSuchLine     = errors.New("no such chat line")
)

// LobbyService defines the operations available to the user
type LobbyService interface {
	// Lobby lifecycle
	CreateLobby(ctx context.Context) (string, error)
	Join(ctx context.Context, code string) (*JoinInfo, error)
	Leave(ctx context.Context) error

	// Participation
	AddPoint(ctx context.Context, p geo.Point) error
	SendChat(ctx context.Context, text string) error
	Speak(ctx context.Context, line int) (string, error)

	// View
	TogglePanel(name string) (view.Panels, error)
	Snapshot() (*LobbyState, error)
	Render(w io.Writer) error

	UserID() string
	Done() <-chan struct{}
}

// LobbyAPI is the HTTP side of the lobby server
type LobbyAPI interface {
	CreateLobby(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) (*api.Audio, error)
	WebSocketURL(path string) string
}

// IdentityResolver picks the user id presented to a lobby
type IdentityResolver interface {
	Resolve(ctx context.Context) (identity.User, error)
}

// Options configures the service
type Options struct {
	API      LobbyAPI
	Store    store.Store
	Identity IdentityResolver

	// Dial defaults to session.DialWebSocket
	Dial   session.Dialer
	WSPath string

	AnimationDuration time.Duration
	Animate           bool

	AudioDir string

	// PointRate is point updates per second; zero disables pacing
	PointRate  float64
	PointBurst int

	// Out receives the terminal view; nil keeps the service silent
	Out   io.Writer
	Plain bool
}

// JoinInfo describes a joined lobby
type JoinInfo struct {
	Code     string `json:"code"`
	UserID   string `json:"user_id"`
	ChatName string `json:"chat_name"`
	Guest    bool   `json:"guest"`
}

// LobbyState is the current lobby as seen by this client
type LobbyState struct {
	Code    string        `json:"code"`
	UserID  string        `json:"user_id"`
	Session string        `json:"session"`
	View    view.Snapshot `json:"view"`
}
