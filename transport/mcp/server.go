package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/service"
	"github.com/wricardo/halfway/lobby/view"
	"github.com/wricardo/halfway/logging"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Server exposes a LobbyService as MCP tools
type Server struct {
	svc       service.LobbyService
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server with all tools registered
func NewServer(svc service.LobbyService) *Server {
	s := &Server{svc: svc}
	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Halfway",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Halfway - MCP Interface

Meet halfway: participants in a shared lobby each drop a point, and the lobby
server computes where to meet.

WORKFLOW:
1. create_lobby (or get a code from a friend)
2. join_lobby with the code
3. add_point with your latitude/longitude
4. lobby_state to see everyone's points, the geometric midpoint, the
   reachable meeting place and nearby hotels/attractions

AVAILABLE TOOLS:
- compute_midpoint: midpoint of two or more points, works without a lobby
- create_lobby: create a new lobby
- join_lobby: join a lobby by code
- add_point: set your point (degrees)
- send_chat: post a chat message
- lobby_state: current lobby view (format "text" or "json")
- speak: synthesize chat line N (1-based) to an audio file
- toggle_panel: show/hide the "chat" or "details" panel
- leave_lobby: leave the lobby

NOTE: lobby updates arrive asynchronously; call lobby_state again if a change is not visible yet.`),
	)

	s.registerTools()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "compute_midpoint",
		Description: "Compute the great-circle midpoint of two points, or the spherical centroid of more",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"points": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"lat": map[string]interface{}{"type": "number"},
							"lon": map[string]interface{}{"type": "number"},
						},
						"required": []string{"lat", "lon"},
					},
					"description": "Points in degrees",
				},
			},
			Required: []string{"points"},
		},
	}, s.handleComputeMidpoint)

	// Lobby lifecycle
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_lobby",
		Description: "Create a new lobby and return its code",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleCreateLobby)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "join_lobby",
		Description: "Join a lobby by code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Lobby code (case-insensitive)",
				},
			},
			Required: []string{"code"},
		},
	}, s.handleJoinLobby)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "leave_lobby",
		Description: "Leave the joined lobby",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleLeaveLobby)

	// Participation
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "add_point",
		Description: "Set or replace your point in the joined lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"lat": map[string]interface{}{
					"type":        "number",
					"description": "Latitude in degrees (-90 to 90)",
				},
				"lon": map[string]interface{}{
					"type":        "number",
					"description": "Longitude in degrees (-180 to 180)",
				},
			},
			Required: []string{"lat", "lon"},
		},
	}, s.handleAddPoint)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "send_chat",
		Description: "Post a chat message to the joined lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Message text",
				},
			},
			Required: []string{"text"},
		},
	}, s.handleSendChat)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "speak",
		Description: "Synthesize a chat line to speech and save the audio file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"line": map[string]interface{}{
					"type":        "integer",
					"description": "Chat line number as shown by lobby_state (1-based)",
				},
			},
			Required: []string{"line"},
		},
	}, s.handleSpeak)

	// View
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "lobby_state",
		Description: "Get the current lobby: points, midpoints, chat and nearby places",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"text", "json"},
					"description": "Output format (default text)",
				},
			},
		},
	}, s.handleLobbyState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_panel",
		Description: "Show or hide a panel of the lobby view",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"panel": map[string]interface{}{
					"type":        "string",
					"enum":        []string{view.PanelChat, view.PanelDetails},
					"description": "Panel to toggle",
				},
			},
			Required: []string{"panel"},
		},
	}, s.handleTogglePanel)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until EOF
func (s *Server) ServeStdio() error {
	logging.Info().Msg("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

// Tool handlers

func (s *Server) handleComputeMidpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raw, _ := args["points"].([]interface{})

	points := make([]geo.Point, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("point %d must be an object with lat and lon", i+1)), nil
		}
		lat, latOK := number(obj, "lat")
		lon, lonOK := number(obj, "lon")
		if !latOK || !lonOK {
			return mcp.NewToolResultError(fmt.Sprintf("point %d needs numeric lat and lon", i+1)), nil
		}
		points = append(points, geo.Point{Lat: lat, Lon: lon})
	}
	if len(points) < 2 {
		return mcp.NewToolResultError("at least two points are required"), nil
	}

	mid, err := geo.MeetingPoint(points)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Midpoint: %s\n", mid)
	b.WriteString("Distances:\n")
	for i, p := range points {
		fmt.Fprintf(&b, "  %d. %s  %.1f km\n", i+1, p, geo.HaversineKm(p, mid))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleCreateLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := s.svc.CreateLobby(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created lobby: %s\nUse join_lobby with this code to enter it.", code)), nil
}

func (s *Server) handleJoinLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	code, _ := args["code"].(string)

	info, err := s.svc.Join(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kind := "signed in"
	if info.Guest {
		kind = "guest"
	}
	result := fmt.Sprintf("Joined lobby %s\nUser: %s (%s)\nChat name: %s\n", info.Code, info.UserID, kind, info.ChatName)
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleLeaveLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Leave(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Left the lobby"), nil
}

func (s *Server) handleAddPoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	lat, latOK := number(args, "lat")
	lon, lonOK := number(args, "lon")
	if !latOK || !lonOK {
		return mcp.NewToolResultError("lat and lon must be numbers"), nil
	}

	p := geo.Point{Lat: lat, Lon: lon}
	if err := s.svc.AddPoint(ctx, p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Point set to %s", p)), nil
}

func (s *Server) handleSendChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	text, _ := args["text"].(string)

	if err := s.svc.SendChat(ctx, text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Message sent"), nil
}

func (s *Server) handleSpeak(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	line, ok := number(args, "line")
	if !ok || line != math.Trunc(line) {
		return mcp.NewToolResultError("line must be an integer"), nil
	}

	path, err := s.svc.Speak(ctx, int(line))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Audio saved to %s", path)), nil
}

func (s *Server) handleLobbyState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	format, _ := args["format"].(string)

	state, err := s.svc.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if format == "json" {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(formatLobbyState(state)), nil
}

func (s *Server) handleTogglePanel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["panel"].(string)

	panels, err := s.svc.TogglePanel(name)
	if err != nil {
		if errors.Is(err, view.ErrUnknownPanel) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown panel %q (use %s or %s)", name, view.PanelChat, view.PanelDetails)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Chat panel: %s\nDetails panel: %s", onOff(panels.Chat), onOff(panels.Details))), nil
}

// Helper functions

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func number(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func onOff(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}

func formatLobbyState(state *service.LobbyState) string {
	var b strings.Builder
	v := state.View

	fmt.Fprintf(&b, "Lobby: %s (%s)\n", state.Code, state.Session)
	fmt.Fprintf(&b, "You: %s\n\n", state.UserID)

	fmt.Fprintf(&b, "Points (%d):\n", len(v.Pins))
	for _, pin := range v.Pins {
		self := ""
		if pin.Self {
			self = " (you)"
		}
		fmt.Fprintf(&b, "  - %s%s %s\n", pin.UserID, self, pin.Point)
	}

	if v.Geometric != nil {
		fmt.Fprintf(&b, "Geometric midpoint: %s\n", v.Geometric.Point)
	} else {
		b.WriteString("Geometric midpoint: none yet\n")
	}
	if v.Reachable != nil {
		fmt.Fprintf(&b, "Meeting place: %s %s\n", v.Reachable.Label, v.Reachable.Point)
	}

	b.WriteString("\nChat:\n")
	if len(v.Chat) == 0 {
		fmt.Fprintf(&b, "  %s\n", view.NoMessages)
	}
	for i, m := range v.Chat {
		fmt.Fprintf(&b, "  [%d] %s: %s\n", i+1, m.Name, m.Text)
	}

	fmt.Fprintf(&b, "\nCity: %s\n", v.City)
	writeCards(&b, "Hotels", v.Hotels)
	writeCards(&b, "Attractions", v.Attractions)

	if v.LastError != "" {
		fmt.Fprintf(&b, "\nLast error: %s\n", v.LastError)
	}
	return b.String()
}

func writeCards(b *strings.Builder, title string, cards []view.Card) {
	if len(cards) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, c := range cards {
		line := "  - " + c.Name
		for _, extra := range []string{c.Price, c.Rating, c.Distance} {
			if extra != "" {
				line += " | " + extra
			}
		}
		b.WriteString(line + "\n")
	}
}
