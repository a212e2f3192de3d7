package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/wricardo/halfway/logging"
)

var (
	ErrEmptyText       = errors.New("text is empty")
	ErrInvalidResponse = errors.New("invalid response")
	ErrUnavailable     = errors.New("lobby server unavailable")
)

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 10 << 20
	failureThreshold = 5
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Audio is synthesized speech
type Audio struct {
	Data      []byte
	MIME      string
	Extension string
}

// Save writes the audio into dir as name plus the detected extension
func (a *Audio) Save(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	path := filepath.Join(dir, name+a.Extension)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	return path, nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// Client talks to the lobby server over HTTP
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	log     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logging.Component("api").With().Str("server", u.Host).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "lobby-http",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c, nil
}

// BaseURL returns the server URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// WebSocketURL derives the ws:// or wss:// URL for path on the same host
func (c *Client) WebSocketURL(path string) string {
	u := *c.baseURL
	u.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	return u.String()
}

// CreateLobby asks the server for a new lobby and returns its code
func (c *Client) CreateLobby(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "create lobby", "/create_lobby", nil)
	if err != nil {
		return "", err
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return "", fmt.Errorf("%w: create lobby: %v", ErrInvalidResponse, err)
	}
	if body.Code == "" {
		return "", fmt.Errorf("%w: create lobby: missing code", ErrInvalidResponse)
	}

	c.log.Info().Str("lobby", body.Code).Msg("lobby created")
	return body.Code, nil
}

// Speak synthesizes text into audio
func (c *Client) Speak(ctx context.Context, text string) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "tts", "/tts", payload)
	if err != nil {
		return nil, err
	}
	if len(resp.body) == 0 {
		return nil, fmt.Errorf("%w: tts: empty audio", ErrInvalidResponse)
	}

	mt := mimetype.Detect(resp.body)
	audio := &Audio{Data: resp.body, MIME: mt.String(), Extension: mt.Extension()}
	if !strings.HasPrefix(audio.MIME, "audio/") && strings.HasPrefix(resp.contentType, "audio/") {
		audio.MIME = resp.contentType
	}
	if audio.Extension == "" {
		audio.Extension = ".bin"
	}

	c.log.Debug().Str("mime", audio.MIME).Int("bytes", len(audio.Data)).Msg("speech synthesized")
	return audio, nil
}

func (c *Client) post(ctx context.Context, op, path string, body []byte) (*response, error) {
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.do(ctx, http.MethodPost, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			se.Op = op
			return nil, se
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.status < 200 || resp.status > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.status, Body: strings.TrimSpace(string(resp.body))}
	}
	return resp, nil
}

// do performs one request; only transport failures and 5xx count against the breaker
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode >= 500 {
		return nil, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return &response{status: res.StatusCode, contentType: res.Header.Get("Content-Type"), body: data}, nil
}
