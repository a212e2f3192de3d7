// Package lobbytest runs an in-process lobby server for tests.
//
// The fake speaks the real wire protocol over HTTP and WebSocket:
// POST /create_lobby, POST /tts and /ws. Lobby state lives in memory and
// every change is broadcast as a full lobby_update. It computes the
// geometric midpoint itself and reports a canned reachable midpoint and
// canned places so client code can be exercised end to end.
//
//	srv := lobbytest.New()
//	defer srv.Close()
//	client, _ := api.NewClient(srv.URL())
package lobbytest
