package protocol

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMalformedFrame = errors.New("malformed frame")
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the outer shape of every WebSocket message
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps an event in an envelope without validating it
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	return json.Marshal(Envelope{Event: ev.EventName(), Data: data})
}

// EncodeClientEvent validates a client event and wraps it in an envelope
func EncodeClientEvent(ev Event) ([]byte, error) {
	switch ev.(type) {
	case JoinLobby, *JoinLobby, AddPoint, *AddPoint, ChatMessage, *ChatMessage, LeaveLobby, *LeaveLobby:
	default:
		return nil, fmt.Errorf("%w: %s is not a client event", ErrUnknownEvent, ev.EventName())
	}
	if err := Validate(ev); err != nil {
		return nil, err
	}
	return Encode(ev)
}

// Validate checks the payload's field constraints
func Validate(ev Event) error {
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, ev.EventName(), err)
	}
	return nil
}

// DecodeEnvelope parses the outer envelope of a single message
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrMalformedFrame)
	}
	return env, nil
}

// DecodeServerEvent parses a message sent by the lobby server
func DecodeServerEvent(frame []byte) (Event, error) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var ev Event
	switch env.Event {
	case EventLobbyUpdate:
		ev = &LobbyUpdate{}
	case EventTravelInfoUpdate:
		ev = &TravelInfoUpdate{}
	case EventError:
		ev = &ErrorEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err := decodeData(env, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeClientEvent parses a message sent by a lobby client
func DecodeClientEvent(frame []byte) (Event, error) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var ev Event
	switch env.Event {
	case EventJoinLobby:
		ev = &JoinLobby{}
	case EventAddPoint:
		ev = &AddPoint{}
	case EventChatMessage:
		ev = &ChatMessage{}
	case EventLeaveLobby:
		ev = &LeaveLobby{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err := decodeData(env, ev); err != nil {
		return nil, err
	}
	if err := Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeData(env Envelope, ev Event) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedFrame, env.Event, err)
	}
	return nil
}
