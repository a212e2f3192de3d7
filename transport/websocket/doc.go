// Package websocket provides the WebSocket transport used to talk to the lobby server.
//
// The websocket package implements:
//   - A client connection (Conn) with dedicated read and write pumps
//   - Ping/pong keepalive with read and write deadlines
//   - Frame splitting for newline-batched envelopes
//   - A room-keyed Hub that fans frames out to every socket in a lobby
//
// Architecture:
//
// Conn owns the underlying socket. The read pump pushes every inbound
// envelope onto Inbound(); the write pump drains the send queue and emits
// pings. Only the write pump writes to the socket, so Send is safe from
// any goroutine.
//
//	conn, err := websocket.Dial(ctx, "ws://localhost:8080/ws", nil)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	for frame := range conn.Inbound() {
//		// decode frame
//	}
//	if err := conn.Err(); err != nil {
//		// connection dropped
//	}
//
// The Hub is the server half of the same pumps. It groups sockets by
// room (the lobby code) and is used by the in-process fake lobby server.
//
// Connection Lifecycle:
//
// A dropped connection is final. Inbound() is closed, Err() reports the
// cause, and callers decide what to do; Conn never reconnects.
package websocket
