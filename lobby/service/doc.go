// Package service provides the orchestration layer of the halfway client.
//
// The service package implements:
//   - Lobby creation through the HTTP API
//   - Joining a lobby with a resolved identity
//   - Point updates and chat through the session client
//   - Speech synthesis for chat lines
//   - Panel visibility per lobby
//
// Core Interfaces:
//
// LobbyService is the interface used by the CLI and the MCP tools.
// LobbyAPI and IdentityResolver are its collaborators; api.Client and
// identity.Resolver satisfy them.
//
// Architecture:
//
// The service sits between the user-facing transports and the lobby
// packages. It owns at most one joined lobby at a time. Joining starts a
// renderer goroutine that consumes the session's events until the lobby
// is left or the connection drops.
//
// Usage:
//
//	svc, err := service.New(service.Options{API: apiClient, Store: st, Identity: resolver})
//	info, err := svc.Join(ctx, "abcd1234") // code is normalized to ABCD1234
//	err = svc.AddPoint(ctx, geo.Point{Lat: 45.76, Lon: 4.84})
//	err = svc.SendChat(ctx, "on my way")
//	path, err := svc.Speak(ctx, 1)
package service
