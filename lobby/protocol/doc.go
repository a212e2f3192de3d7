// Package protocol defines the wire format spoken with the lobby server.
//
// Every WebSocket message is an envelope:
//
//	{"event": "lobby_update", "data": {...}}
//
// Client events (join_lobby, add_point, chat_message, leave_lobby) are
// validated before encoding. Server events (lobby_update,
// travel_info_update, error) are decoded into tagged Go values so callers
// can switch on the concrete type:
//
//	ev, err := protocol.DecodeServerEvent(frame)
//	switch e := ev.(type) {
//	case *protocol.LobbyUpdate:
//	case *protocol.TravelInfoUpdate:
//	case *protocol.ErrorEvent:
//	}
//
// Unknown event names yield ErrUnknownEvent; callers skip those frames.
package protocol
