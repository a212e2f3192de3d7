package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/protocol"
	"github.com/wricardo/halfway/logging"
	"github.com/wricardo/halfway/transport/websocket"
)

var (
	ErrNotJoined      = errors.New("not joined to a lobby")
	ErrAlreadyStarted = errors.New("session already started")
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMissingCode    = errors.New("lobby code is required")
	ErrMissingUserID  = errors.New("user id is required")
	ErrMissingURL     = errors.New("server url is required")
)

const defaultEventBuffer = 64

// State is the lifecycle stage of a Client
type State int

const (
	Disconnected State = iota
	Connecting
	Joined
	Left
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	case Left:
		return "left"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transport is the connection a Client talks through
type Transport interface {
	Inbound() <-chan []byte
	Send(ctx context.Context, frame []byte) error
	Close() error
	Err() error
}

// Dialer opens a Transport to url
type Dialer func(ctx context.Context, url string) (Transport, error)

// DialWebSocket is the default Dialer
func DialWebSocket(ctx context.Context, url string) (Transport, error) {
	return websocket.Dial(ctx, url, http.Header{})
}

// Options configures a Client
type Options struct {
	URL    string
	Code   string
	UserID string

	// Dial defaults to DialWebSocket
	Dial Dialer

	// Buffer is the Events() channel capacity
	Buffer int

	// Limiter paces AddPoint calls when set
	Limiter *rate.Limiter
}

// Client is a lobby session for one user in one lobby
type Client struct {
	url     string
	code    string
	userID  string
	dial    Dialer
	limiter *rate.Limiter

	mu    sync.RWMutex
	state State
	err   error
	conn  Transport

	events   chan protocol.Event
	stop     chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}

	log zerolog.Logger
}

// New creates a disconnected client
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, ErrMissingURL
	}
	if strings.TrimSpace(opts.Code) == "" {
		return nil, ErrMissingCode
	}
	if opts.UserID == "" {
		return nil, ErrMissingUserID
	}
	if opts.Dial == nil {
		opts.Dial = DialWebSocket
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultEventBuffer
	}

	return &Client{
		url:      opts.URL,
		code:     opts.Code,
		userID:   opts.UserID,
		dial:     opts.Dial,
		limiter:  opts.Limiter,
		state:    Disconnected,
		events:   make(chan protocol.Event, opts.Buffer),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
		log: logging.Component("session").With().
			Str("lobby", opts.Code).
			Str("user_id", opts.UserID).
			Logger(),
	}, nil
}

// Code returns the lobby code
func (c *Client) Code() string { return c.code }

// UserID returns the id presented to the lobby
func (c *Client) UserID() string { return c.userID }

// State returns the current lifecycle stage
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the error that moved the client to Failed
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Events delivers decoded server events in arrival order. It is closed when
// the session ends.
func (c *Client) Events() <-chan protocol.Event {
	return c.events
}

// Connect dials the server, joins the lobby and starts receiving
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.dial(ctx, c.url)
	if err != nil {
		c.fail(err)
		close(c.loopDone)
		close(c.events)
		return fmt.Errorf("failed to connect: %w", err)
	}

	frame, err := protocol.EncodeClientEvent(protocol.JoinLobby{Code: c.code, UserID: c.userID})
	if err == nil {
		err = conn.Send(ctx, frame)
	}
	if err != nil {
		_ = conn.Close()
		c.fail(err)
		close(c.loopDone)
		close(c.events)
		return fmt.Errorf("failed to join lobby: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = Joined
	c.mu.Unlock()

	c.log.Info().Msg("joined lobby")
	go c.receive(conn)
	return nil
}

// AddPoint sets or replaces this user's point
func (c *Client) AddPoint(ctx context.Context, p geo.Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return c.send(ctx, protocol.NewAddPoint(c.code, c.userID, p))
}

// SendChat posts a chat line under name. Blank text returns ErrEmptyMessage.
func (c *Client) SendChat(ctx context.Context, name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	return c.send(ctx, protocol.ChatMessage{Code: c.code, Name: name, Text: text})
}

// Leave announces departure and closes the connection
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Joined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	conn := c.conn
	c.state = Left
	c.mu.Unlock()

	frame, err := protocol.EncodeClientEvent(protocol.LeaveLobby{Code: c.code, UserID: c.userID})
	if err == nil {
		err = conn.Send(ctx, frame)
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to send leave")
	}

	c.stopOnce.Do(func() { close(c.stop) })
	_ = conn.Close()
	<-c.loopDone

	c.log.Info().Msg("left lobby")
	return err
}

func (c *Client) send(ctx context.Context, ev protocol.Event) error {
	c.mu.RLock()
	state, conn := c.state, c.conn
	c.mu.RUnlock()
	if state != Joined {
		return ErrNotJoined
	}

	frame, err := protocol.EncodeClientEvent(ev)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, frame); err != nil {
		if errors.Is(err, websocket.ErrClosed) {
			return ErrNotJoined
		}
		return err
	}
	c.log.Debug().Str("event", ev.EventName()).Msg("sent")
	return nil
}

// receive forwards decoded events until the connection ends
func (c *Client) receive(conn Transport) {
	defer func() {
		close(c.events)
		close(c.loopDone)
	}()

	for frame := range conn.Inbound() {
		ev, err := protocol.DecodeServerEvent(frame)
		if err != nil {
			c.log.Warn().Err(err).Msg("skipping frame")
			continue
		}
		c.log.Debug().Str("event", ev.EventName()).Msg("received")

		select {
		case c.events <- ev:
		case <-c.stop:
			return
		}
	}

	if c.State() == Joined {
		err := conn.Err()
		if err == nil {
			err = websocket.ErrClosed
		}
		c.log.Error().Err(err).Msg("connection to lobby lost")
		c.fail(err)
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Failed
	c.err = err
}
