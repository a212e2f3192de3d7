package websocket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/halfway/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Lobby updates carry the whole chat history, so allow large frames.
	maxMessageSize = 1 << 20

	sendBuffer    = 64
	inboundBuffer = 256
)

var ErrClosed = errors.New("websocket connection closed")

// Conn is a client WebSocket connection
type Conn struct {
	conn    *websocket.Conn
	send    chan []byte
	inbound chan []byte
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup

	mu  sync.Mutex
	err error

	log zerolog.Logger
}

// Dial connects to the WebSocket endpoint and starts the pumps
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: writeWait,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := newConn(ws, logging.Component("websocket").With().Str("url", url).Logger())
	c.log.Debug().Msg("connected")
	return c, nil
}

func newConn(ws *websocket.Conn, log zerolog.Logger) *Conn {
	c := &Conn{
		conn:    ws,
		send:    make(chan []byte, sendBuffer),
		inbound: make(chan []byte, inboundBuffer),
		done:    make(chan struct{}),
		log:     log,
	}

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c
}

// Inbound returns the channel of received envelopes. It is closed when the
// connection ends.
func (c *Conn) Inbound() <-chan []byte {
	return c.inbound
}

// Send queues a frame for the write pump
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends a close frame and releases the socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.shutdown(nil)
	c.wg.Wait()
	return nil
}

// Err returns the reason the connection ended, or nil if it was closed locally
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed once the connection starts shutting down
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

// readPump pumps frames from the socket to the inbound channel
func (c *Conn) readPump() {
	defer func() {
		close(c.inbound)
		c.wg.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// closed locally
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.log.Error().Err(err).Msg("connection lost")
				} else {
					c.log.Info().Err(err).Msg("connection closed by peer")
				}
				c.shutdown(err)
			}
			return
		}

		for _, frame := range SplitFrames(message) {
			select {
			case c.inbound <- frame:
			case <-c.done:
				return
			}
		}
	}
}

// writePump pumps queued frames to the socket and keeps the connection alive
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.wg.Done()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Error().Err(err).Msg("write failed")
				c.shutdown(err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Error().Err(err).Msg("ping failed")
				c.shutdown(err)
				return
			}

		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes frames queued before Close, such as a final leave_lobby
func (c *Conn) flush() {
	if c.Err() != nil {
		return
	}
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// SplitFrames splits a message holding newline-separated envelopes.
// Blank segments are dropped.
func SplitFrames(message []byte) [][]byte {
	parts := bytes.Split(message, []byte{'\n'})
	frames := make([][]byte, 0, len(parts))
	for _, p := range parts {
		p = bytes.TrimSpace(p)
		if len(p) == 0 {
			continue
		}
		frames = append(frames, p)
	}
	return frames
}
