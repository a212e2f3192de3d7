// Package view turns lobby broadcasts into what the user sees.
//
// The view package implements:
//   - Scene: participant pins, midpoint markers and animated connectors
//   - ChatPanel: the chat history with on-demand speech per line
//   - PlacesPanel: city, hotels and attractions around the midpoint
//   - Panels: chat/details visibility remembered per lobby
//   - Renderer: consumes session events and writes a terminal view
//
// Every lobby_update fully replaces the scene and the chat history;
// every travel_info_update fully replaces the places panel. Nothing is
// merged with earlier state.
//
// The scene is headless. A connector stores its start and end in
// Earth-centred coordinates and reports the current endpoint for any
// instant, so a drawing loop only has to sample it.
package view
