package protocol

import (
	"github.com/wricardo/halfway/lobby/geo"
)

// Event names on the wire
const (
	EventJoinLobby        = "join_lobby"
	EventAddPoint         = "add_point"
	EventChatMessage      = "chat_message"
	EventLeaveLobby       = "leave_lobby"
	EventLobbyUpdate      = "lobby_update"
	EventTravelInfoUpdate = "travel_info_update"
	EventError            = "error"
)

// Event is implemented by every payload that can travel in an envelope
type Event interface {
	EventName() string
}

// JoinLobby announces a participant to a lobby
type JoinLobby struct {
	Code   string `json:"code" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

func (JoinLobby) EventName() string { return EventJoinLobby }

// PointPayload is a coordinate as sent by the client
type PointPayload struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// AddPoint sets or replaces the sender's point
type AddPoint struct {
	Code   string       `json:"code" validate:"required"`
	UserID string       `json:"userId" validate:"required"`
	Point  PointPayload `json:"point"`
}

func (AddPoint) EventName() string { return EventAddPoint }

// NewAddPoint builds an add_point payload from a geographic point
func NewAddPoint(code, userID string, p geo.Point) AddPoint {
	return AddPoint{
		Code:   code,
		UserID: userID,
		Point:  PointPayload{Lat: p.Lat, Lon: p.Lon},
	}
}

// ChatMessage posts a line to the lobby chat
type ChatMessage struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Text string `json:"text" validate:"required"`
}

func (ChatMessage) EventName() string { return EventChatMessage }

// LeaveLobby removes the participant and its point
type LeaveLobby struct {
	Code   string `json:"code" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

func (LeaveLobby) EventName() string { return EventLeaveLobby }

// NullablePoint is a coordinate whose components may be null
type NullablePoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// NewNullablePoint returns a fully populated point
func NewNullablePoint(p geo.Point) NullablePoint {
	lat, lon := p.Lat, p.Lon
	return NullablePoint{Lat: &lat, Lon: &lon}
}

// Point returns the coordinate and whether both components are present
func (p NullablePoint) Point() (geo.Point, bool) {
	if p.Lat == nil || p.Lon == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Lat, Lon: *p.Lon}, true
}

// ReachableMidpoint is a named, routable place near the geometric midpoint
type ReachableMidpoint struct {
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Name string   `json:"name"`
}

// Point returns the coordinate and whether both components are present
func (r ReachableMidpoint) Point() (geo.Point, bool) {
	return NullablePoint{Lat: r.Lat, Lon: r.Lon}.Point()
}

// ChatEntry is one line of lobby chat history
type ChatEntry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// LobbyUpdate is the full lobby state broadcast after every change
type LobbyUpdate struct {
	Code              string                   `json:"code,omitempty"`
	Points            map[string]NullablePoint `json:"points"`
	GeometricMidpoint *NullablePoint           `json:"geometric_midpoint"`
	ReachableMidpoint *ReachableMidpoint       `json:"reachable_midpoint"`
	Participants      []string                 `json:"participants"`
	Messages          []ChatEntry              `json:"messages"`
}

func (LobbyUpdate) EventName() string { return EventLobbyUpdate }

// TravelInfoUpdate carries the places found around the midpoint
type TravelInfoUpdate struct {
	MidpointDetails *MidpointDetails `json:"midpoint_details"`
}

func (TravelInfoUpdate) EventName() string { return EventTravelInfoUpdate }

// ErrorEvent is a server-side failure reported to the client
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ErrorEvent) EventName() string { return EventError }
