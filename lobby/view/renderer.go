package view

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/protocol"
	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/logging"
)

// RendererOptions configures a Renderer
type RendererOptions struct {
	// Out receives the terminal view; nil renders nothing
	Out io.Writer

	// Code and Store locate the saved panel visibility; Store may be nil
	Code  string
	Store store.Store

	SelfID            string
	ConnectorDuration time.Duration
	Animate           bool

	// Plain disables colored headings
	Plain bool
}

// Snapshot is a copy of everything currently shown
type Snapshot struct {
	Code        string               `json:"code"`
	Pins        []Pin                `json:"pins"`
	Geometric   *Marker              `json:"geometric_midpoint,omitempty"`
	Reachable   *Marker              `json:"reachable_midpoint,omitempty"`
	Connectors  []geo.Connector      `json:"connectors"`
	Chat        []protocol.ChatEntry `json:"chat"`
	City        string               `json:"city"`
	Hotels      []Card               `json:"hotels"`
	Attractions []Card               `json:"attractions"`
	Panels      Panels               `json:"panels"`
	LastError   string               `json:"last_error,omitempty"`
	Updates     int                  `json:"updates"`
}

// Renderer applies session events to the view model and draws it
type Renderer struct {
	mu        sync.RWMutex
	scene     *Scene
	chat      ChatPanel
	places    PlacesPanel
	panels    Panels
	lastError string
	updates   int

	code  string
	store store.Store
	out   io.Writer
	plain bool
	now   func() time.Time
	log   zerolog.Logger
}

// NewRenderer creates a renderer and loads the saved panel visibility
func NewRenderer(opts RendererOptions) *Renderer {
	r := &Renderer{
		scene: NewScene(SceneOptions{
			SelfID:   opts.SelfID,
			Duration: opts.ConnectorDuration,
			Animate:  opts.Animate,
		}),
		panels: DefaultPanels(),
		code:   opts.Code,
		store:  opts.Store,
		out:    opts.Out,
		plain:  opts.Plain,
		now:    time.Now,
		log:    logging.Component("view").With().Str("lobby", opts.Code).Logger(),
	}

	if r.store != nil {
		panels, err := LoadPanels(r.store, r.code)
		if err != nil {
			r.log.Warn().Err(err).Msg("failed to load panel visibility")
		}
		r.panels = panels
	}
	return r
}

// Run handles events until the channel closes or ctx is done
func (r *Renderer) Run(ctx context.Context, events <-chan protocol.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(ev)
		}
	}
}

// Handle applies one event
func (r *Renderer) Handle(ev protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case *protocol.LobbyUpdate:
		r.scene.Apply(e, r.now())
		r.chat.Replace(e.Messages)
		r.updates++
		r.drawLobby(r.out)

	case *protocol.TravelInfoUpdate:
		r.places.Replace(e.MidpointDetails)
		r.drawPlaces(r.out)

	case *protocol.ErrorEvent:
		r.lastError = e.Message
		r.log.Error().Str("message", e.Message).Msg("server error")
		r.printf(r.out, "Error: %s\n", e.Message)

	default:
		r.log.Debug().Str("event", ev.EventName()).Msg("ignoring event")
	}
}

// ChatLine returns the chat entry at a zero-based index
func (r *Renderer) ChatLine(i int) (protocol.ChatEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chat.Line(i)
}

// TogglePanel flips a panel and saves the new visibility
func (r *Renderer) TogglePanel(name string) (Panels, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.panels.Toggle(name); err != nil {
		return r.panels, err
	}
	if r.store != nil {
		if err := SavePanels(r.store, r.code, r.panels); err != nil {
			return r.panels, fmt.Errorf("failed to save panel visibility: %w", err)
		}
	}
	return r.panels, nil
}

// Snapshot copies the current view model
func (r *Renderer) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Code:        r.code,
		Pins:        r.scene.Pins(),
		Connectors:  r.scene.Connectors(),
		Chat:        r.chat.Lines(),
		City:        r.places.City(),
		Hotels:      r.places.Hotels(),
		Attractions: r.places.Attractions(),
		Panels:      r.panels,
		LastError:   r.lastError,
		Updates:     r.updates,
	}
	if m, ok := r.scene.Geometric(); ok {
		snap.Geometric = &m
	}
	if m, ok := r.scene.Reachable(); ok {
		snap.Reachable = &m
	}
	return snap
}

// Render draws the whole view to w
func (r *Renderer) Render(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.drawLobby(w)
	r.drawPlaces(w)
	return nil
}

// drawLobby must be called with mu held
func (r *Renderer) drawLobby(w io.Writer) {
	if w == nil {
		return
	}

	r.printf(w, "%s\n", r.heading("Lobby "+r.code))
	for _, pin := range r.scene.Pins() {
		who := pin.UserID
		if pin.Self {
			who += " (you)"
		}
		r.printf(w, "  • %s %s\n", who, pin.Point)
	}
	if m, ok := r.scene.Geometric(); ok {
		r.printf(w, "  midpoint %s\n", m.Point)
	}
	if m, ok := r.scene.Reachable(); ok {
		r.printf(w, "  meet at %s %s\n", m.Label, m.Point)
	}

	if r.panels.Chat {
		r.printf(w, "%s\n", r.heading("Chat"))
		_ = r.chat.Render(w)
	}
}

// drawPlaces must be called with mu held
func (r *Renderer) drawPlaces(w io.Writer) {
	if w == nil || !r.panels.Details {
		return
	}
	r.printf(w, "%s\n", r.heading("Around the midpoint"))
	_ = r.places.Render(w)
}

func (r *Renderer) heading(s string) string {
	if r.plain {
		return "== " + s + " =="
	}
	return color.New(color.FgCyan, color.OpBold).Sprint("== " + s + " ==")
}

func (r *Renderer) printf(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		r.log.Debug().Err(err).Msg("render write failed")
	}
}
