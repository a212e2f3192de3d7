package lobbytest

import (
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/protocol"
	"github.com/wricardo/halfway/transport/websocket"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SampleAudio is a minimal WAV header returned by /tts
var SampleAudio = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00")

type lobby struct {
	points       map[string]geo.Point
	participants []string
	messages     []protocol.ChatEntry
}

// Server is a fake lobby server
type Server struct {
	httpServer *httptest.Server
	hub        *websocket.Hub

	mu        sync.Mutex
	lobbies   map[string]*lobby
	received  []protocol.Event
	places    *protocol.MidpointDetails
	reachable string
	ttsStatus int
	ttsTexts  []string
}

// New starts a fake server on a random local port
func New() *Server {
	s := &Server{
		lobbies:   make(map[string]*lobby),
		reachable: "Midpoint Plaza",
		ttsStatus: http.StatusOK,
		places: &protocol.MidpointDetails{
			City: "Testville",
			Hotels: []protocol.Place{
				{Name: protocol.PlaceName{Text: "Hotel Central"}, Price: "PRICE_LEVEL_MODERATE", Rating: 4.2, UserRatingCount: 87},
			},
			Attractions: []protocol.Place{
				{Name: protocol.PlaceName{Text: "Old Town Square"}},
			},
		},
	}
	s.hub = websocket.NewHub(s.handleFrame)
	go s.hub.Run()

	router := mux.NewRouter()
	router.HandleFunc("/create_lobby", s.handleCreateLobby).Methods(http.MethodPost)
	router.HandleFunc("/tts", s.handleTTS).Methods(http.MethodPost)
	router.HandleFunc("/ws", s.hub.ServeWS)

	s.httpServer = httptest.NewServer(router)
	return s
}

// URL returns the HTTP base URL
func (s *Server) URL() string {
	return s.httpServer.URL
}

// WSURL returns the WebSocket endpoint URL
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/ws"
}

// Close drops every connection and stops the server
func (s *Server) Close() {
	s.hub.Stop()
	s.httpServer.Close()
}

// DropConnections closes every WebSocket, as if the server went away
func (s *Server) DropConnections() {
	s.hub.Stop()
}

// CreateLobby registers a lobby and returns its code
func (s *Server) CreateLobby() string {
	code := newCode()
	s.mu.Lock()
	s.lobbies[code] = &lobby{points: make(map[string]geo.Point)}
	s.mu.Unlock()
	return code
}

// SetPlaces changes the details sent after every point update; nil sends null
func (s *Server) SetPlaces(details *protocol.MidpointDetails) {
	s.mu.Lock()
	s.places = details
	s.mu.Unlock()
}

// SetTTSStatus makes /tts answer with status
func (s *Server) SetTTSStatus(status int) {
	s.mu.Lock()
	s.ttsStatus = status
	s.mu.Unlock()
}

// Received returns every client event the server accepted, in order
func (s *Server) Received() []protocol.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Event(nil), s.received...)
}

// TTSTexts returns the texts sent to /tts
func (s *Server) TTSTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ttsTexts...)
}

// Participants returns the users currently in a lobby
func (s *Server) Participants(code string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lobbies[code]; ok {
		return append([]string(nil), l.participants...)
	}
	return nil
}

// Broadcast sends a server event to every socket in the lobby
func (s *Server) Broadcast(code string, ev protocol.Event) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		panic(err)
	}
	s.hub.Broadcast(code, frame)
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"code": s.CreateLobby()})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	data, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(data, &body); err != nil || body.Text == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	s.mu.Lock()
	status := s.ttsStatus
	s.ttsTexts = append(s.ttsTexts, body.Text)
	s.mu.Unlock()

	if status != http.StatusOK {
		respondJSON(w, status, map[string]string{"error": "tts failed"})
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	_, _ = w.Write(SampleAudio)
}

func (s *Server) handleFrame(peer *websocket.Peer, frame []byte) {
	ev, err := protocol.DecodeClientEvent(frame)
	if err != nil {
		s.sendError(peer, "Invalid message")
		return
	}

	s.mu.Lock()
	s.received = append(s.received, ev)
	s.mu.Unlock()

	switch e := ev.(type) {
	case *protocol.JoinLobby:
		if !s.join(e) {
			s.sendError(peer, "Lobby not found")
			return
		}
		s.hub.Join(peer, e.Code)
		s.broadcastState(e.Code)

	case *protocol.AddPoint:
		if !s.addPoint(e) {
			s.sendError(peer, "Lobby not found")
			return
		}
		s.broadcastState(e.Code)
		s.broadcastPlaces(e.Code)

	case *protocol.ChatMessage:
		if !s.chat(e) {
			s.sendError(peer, "Lobby not found")
			return
		}
		s.broadcastState(e.Code)

	case *protocol.LeaveLobby:
		if s.leave(e) {
			s.broadcastState(e.Code)
		}
	}
}

func (s *Server) join(e *protocol.JoinLobby) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[e.Code]
	if !ok {
		return false
	}
	for _, id := range l.participants {
		if id == e.UserID {
			return true
		}
	}
	l.participants = append(l.participants, e.UserID)
	return true
}

func (s *Server) addPoint(e *protocol.AddPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[e.Code]
	if !ok {
		return false
	}
	l.points[e.UserID] = geo.Point{Lat: e.Point.Lat, Lon: e.Point.Lon}
	return true
}

func (s *Server) chat(e *protocol.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[e.Code]
	if !ok {
		return false
	}
	l.messages = append(l.messages, protocol.ChatEntry{Name: e.Name, Text: e.Text})
	return true
}

func (s *Server) leave(e *protocol.LeaveLobby) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[e.Code]
	if !ok {
		return false
	}
	delete(l.points, e.UserID)
	kept := l.participants[:0]
	for _, id := range l.participants {
		if id != e.UserID {
			kept = append(kept, id)
		}
	}
	l.participants = kept
	return true
}

// state builds the lobby_update for code
func (s *Server) state(code string) *protocol.LobbyUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lobbies[code]
	update := &protocol.LobbyUpdate{
		Code:         code,
		Points:       make(map[string]protocol.NullablePoint, len(l.points)),
		Participants: append([]string{}, l.participants...),
		Messages:     append([]protocol.ChatEntry{}, l.messages...),
	}

	var points []geo.Point
	for _, id := range l.participants {
		p, ok := l.points[id]
		if !ok {
			update.Points[id] = protocol.NullablePoint{}
			continue
		}
		update.Points[id] = protocol.NewNullablePoint(p)
		points = append(points, p)
	}

	if mid, err := geo.MeetingPoint(points); err == nil {
		np := protocol.NewNullablePoint(mid)
		update.GeometricMidpoint = &np
		if len(points) > 1 {
			update.ReachableMidpoint = &protocol.ReachableMidpoint{Lat: np.Lat, Lon: np.Lon, Name: s.reachable}
		}
	}
	return update
}

func (s *Server) broadcastState(code string) {
	s.Broadcast(code, s.state(code))
}

func (s *Server) broadcastPlaces(code string) {
	s.mu.Lock()
	places := s.places
	s.mu.Unlock()
	s.Broadcast(code, &protocol.TravelInfoUpdate{MidpointDetails: places})
}

func (s *Server) sendError(peer *websocket.Peer, message string) {
	frame, err := protocol.Encode(&protocol.ErrorEvent{Message: message})
	if err != nil {
		return
	}
	peer.Send(frame)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func newCode() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	code := make([]byte, len(b))
	for i, v := range b {
		code[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return string(code)
}
