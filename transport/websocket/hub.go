package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/halfway/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessageHandler receives every envelope a peer sends
type MessageHandler func(peer *Peer, frame []byte)

// Peer is one server-side socket registered with a Hub
type Peer struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	room string
}

// Room returns the room the peer currently belongs to
func (p *Peer) Room() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

// Send queues a frame for this peer only
func (p *Peer) Send(frame []byte) {
	select {
	case p.hub.unicast <- unicastRequest{peer: p, frame: frame}:
	case <-p.hub.stop:
	}
}

type joinRequest struct {
	peer *Peer
	room string
}

type broadcastRequest struct {
	room  string
	frame []byte
}

type unicastRequest struct {
	peer  *Peer
	frame []byte
}

type countRequest struct {
	room  string
	reply chan int
}

// Hub maintains the set of active peers grouped by room and broadcasts frames
type Hub struct {
	rooms map[string]map[*Peer]bool

	register   chan *Peer
	unregister chan *Peer
	join       chan joinRequest
	broadcast  chan broadcastRequest
	unicast    chan unicastRequest
	count      chan countRequest
	stop       chan struct{}
	stopOnce   sync.Once

	onMessage MessageHandler
	log       zerolog.Logger
}

// NewHub creates a hub that passes inbound frames to onMessage
func NewHub(onMessage MessageHandler) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Peer]bool),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		join:       make(chan joinRequest),
		broadcast:  make(chan broadcastRequest),
		unicast:    make(chan unicastRequest),
		count:      make(chan countRequest),
		stop:       make(chan struct{}),
		onMessage:  onMessage,
		log:        logging.Component("hub"),
	}
}

// Run starts the hub's event loop; it returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case peer := <-h.register:
			h.addPeer(peer, "")

		case req := <-h.join:
			h.removePeer(req.peer, false)
			h.addPeer(req.peer, req.room)

		case peer := <-h.unregister:
			h.removePeer(peer, true)

		case req := <-h.broadcast:
			h.broadcastFrame(req.room, req.frame)

		case req := <-h.unicast:
			h.sendFrame(req.peer, req.frame)

		case req := <-h.count:
			req.reply <- len(h.rooms[req.room])

		case <-h.stop:
			for _, peers := range h.rooms {
				for peer := range peers {
					close(peer.send)
				}
			}
			h.rooms = make(map[string]map[*Peer]bool)
			return
		}
	}
}

// Stop ends the event loop and closes every peer
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ServeWS upgrades the request and registers the socket without a room
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	peer := &Peer{
		hub:  h,
		conn: conn,
		send: make(chan []byte, inboundBuffer),
	}

	select {
	case h.register <- peer:
	case <-h.stop:
		conn.Close()
		return
	}

	go peer.writePump()
	go peer.readPump()
}

// Join moves the peer into a room
func (h *Hub) Join(peer *Peer, room string) {
	select {
	case h.join <- joinRequest{peer: peer, room: room}:
	case <-h.stop:
	}
}

// Broadcast sends a frame to every peer in the room
func (h *Hub) Broadcast(room string, frame []byte) {
	select {
	case h.broadcast <- broadcastRequest{room: room, frame: frame}:
	case <-h.stop:
	}
}

// PeerCount returns the number of peers in the room
func (h *Hub) PeerCount(room string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{room: room, reply: reply}:
		return <-reply
	case <-h.stop:
		return 0
	}
}

func (h *Hub) addPeer(peer *Peer, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Peer]bool)
	}
	h.rooms[room][peer] = true

	peer.mu.Lock()
	peer.room = room
	peer.mu.Unlock()

	h.log.Debug().Str("room", room).Int("peers", len(h.rooms[room])).Msg("peer registered")
}

func (h *Hub) removePeer(peer *Peer, closeSend bool) {
	room := peer.Room()
	peers, ok := h.rooms[room]
	if !ok || !peers[peer] {
		return
	}

	delete(peers, peer)
	if closeSend {
		close(peer.send)
	}

	// Clean up empty rooms
	if len(peers) == 0 {
		delete(h.rooms, room)
	}

	h.log.Debug().Str("room", room).Int("remaining", len(peers)).Msg("peer unregistered")
}

func (h *Hub) broadcastFrame(room string, frame []byte) {
	for peer := range h.rooms[room] {
		h.sendFrame(peer, frame)
	}
}

func (h *Hub) sendFrame(peer *Peer, frame []byte) {
	if !h.rooms[peer.Room()][peer] {
		return
	}
	select {
	case peer.send <- frame:
	default:
		// Peer's send channel is full, drop it
		h.removePeer(peer, true)
	}
}

// readPump passes frames from the socket to the hub's handler
func (p *Peer) readPump() {
	defer func() {
		select {
		case p.hub.unregister <- p:
		case <-p.hub.stop:
		}
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				p.hub.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}
		if p.hub.onMessage == nil {
			continue
		}
		for _, frame := range SplitFrames(message) {
			p.hub.onMessage(p, frame)
		}
	}
}

// writePump pumps frames from the hub to the socket
func (p *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := p.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(p.send)
			for i := 0; i < n; i++ {
				next, ok := <-p.send
				if !ok {
					break
				}
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(next)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
