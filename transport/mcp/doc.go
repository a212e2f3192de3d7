// Package mcp provides the Model Context Protocol server for the halfway client.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for lobby operations
//   - Stdio transport for local MCP clients
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - compute_midpoint: Great-circle midpoint or centroid of points, no lobby needed
//   - create_lobby: Create a new lobby on the server
//   - join_lobby: Join a lobby by code
//   - add_point: Set this user's point in the joined lobby
//   - send_chat: Post a chat message
//   - lobby_state: Participants, midpoints, chat and nearby places
//   - speak: Synthesize a chat line to an audio file
//   - toggle_panel: Show or hide the chat or details panel
//   - leave_lobby: Leave the joined lobby
//
// Session Management:
//
// One server drives one LobbyService, so an agent is in at most one lobby
// at a time. Lobby tools return an error result until join_lobby succeeds.
//
// Usage:
//
//	srv := mcp.NewServer(lobbyService)
//	if err := srv.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
