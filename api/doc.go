// Package api provides the HTTP client for the lobby server's REST endpoints.
//
// The api package implements:
//   - Lobby creation (POST /create_lobby)
//   - Text-to-speech synthesis (POST /tts)
//   - WebSocket URL derivation for the lobby connection
//   - A circuit breaker that fails fast while the server is down
//
// Endpoints:
//
//   - POST /create_lobby -> {"code": "ABCD1234"}
//   - POST /tts {"text": "..."} -> audio bytes
//
// Usage:
//
//	client, err := api.NewClient("http://localhost:8000")
//	if err != nil {
//		return err
//	}
//	code, err := client.CreateLobby(ctx)
//	audio, err := client.Speak(ctx, "see you there")
//	path, err := audio.Save(dir, "line-3")
//
// Error Handling:
//
// Non-2xx responses are returned as *StatusError. Requests are never
// retried; while the breaker is open calls fail with ErrUnavailable.
package api
