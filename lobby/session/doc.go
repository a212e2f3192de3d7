// Package session implements the lobby session client.
//
// A Client owns one connection to the lobby server for one lobby code and
// one user id. It emits client events (join, add point, chat, leave) and
// turns every inbound envelope into a typed protocol event delivered, in
// arrival order, on Events().
//
// State Machine:
//
//	Disconnected -> Connecting -> Joined -> Left
//	                                     \-> Failed
//
// Connect dials and sends join_lobby. Leave sends leave_lobby and closes
// the connection. A connection that drops while joined moves the client
// to Failed, closes Events() and is not retried.
//
// Usage:
//
//	c, err := session.New(session.Options{URL: wsURL, Code: "ABCD1234", UserID: id})
//	if err != nil {
//		return err
//	}
//	if err := c.Connect(ctx); err != nil {
//		return err
//	}
//	go render(c.Events())
//	_ = c.AddPoint(ctx, geo.Point{Lat: 48.85, Lon: 2.35})
package session
