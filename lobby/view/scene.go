package view

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/protocol"
)

// Colors used for scene entities
const (
	ColorSelf      = "aqua"
	ColorOther     = "white"
	ColorGeometric = "orange"
	ColorReachable = "gold"
	ColorLine      = "red"
)

// MarkerKind distinguishes the two midpoint markers
type MarkerKind string

const (
	GeometricMarker MarkerKind = "geometric"
	ReachableMarker MarkerKind = "reachable"
)

// Pin is a participant's point on the globe
type Pin struct {
	UserID   string      `json:"user_id"`
	Point    geo.Point   `json:"point"`
	Position geo.Vector3 `json:"position"`
	Self     bool        `json:"self"`
	Color    string      `json:"color"`
}

// Marker is a midpoint shown on the globe
type Marker struct {
	Kind     MarkerKind  `json:"kind"`
	Point    geo.Point   `json:"point"`
	Position geo.Vector3 `json:"position"`
	Label    string      `json:"label,omitempty"`
	Color    string      `json:"color"`
}

// SceneOptions controls connector animation
type SceneOptions struct {
	SelfID   string
	Duration time.Duration
	Animate  bool
}

// Scene is the headless globe: pins, midpoint markers and connectors
type Scene struct {
	opts       SceneOptions
	pins       map[string]Pin
	geometric  *Marker
	reachable  *Marker
	connectors []geo.Connector
}

// NewScene creates an empty scene
func NewScene(opts SceneOptions) *Scene {
	if opts.Duration <= 0 {
		opts.Duration = geo.DefaultConnectorDuration
	}
	return &Scene{opts: opts, pins: make(map[string]Pin)}
}

// Apply replaces the scene with the state in update. Connectors start
// animating at now.
func (s *Scene) Apply(update *protocol.LobbyUpdate, now time.Time) {
	s.Clear()
	if update == nil {
		return
	}

	var members map[string]bool
	if update.Participants != nil {
		members = lo.SliceToMap(update.Participants, func(id string) (string, bool) {
			return id, true
		})
	}

	for id, np := range update.Points {
		p, ok := np.Point()
		if !ok {
			continue
		}
		if members != nil && !members[id] {
			continue
		}
		pin := Pin{
			UserID:   id,
			Point:    p,
			Position: geo.FromPoint(p),
			Self:     id == s.opts.SelfID,
			Color:    ColorOther,
		}
		if pin.Self {
			pin.Color = ColorSelf
		}
		s.pins[id] = pin
	}

	if update.GeometricMidpoint != nil {
		if p, ok := update.GeometricMidpoint.Point(); ok {
			s.geometric = &Marker{
				Kind:     GeometricMarker,
				Point:    p,
				Position: geo.FromPoint(p),
				Color:    ColorGeometric,
			}
			s.connect(p, geo.Dashed, now)
		}
	}

	if update.ReachableMidpoint != nil {
		if p, ok := update.ReachableMidpoint.Point(); ok {
			s.reachable = &Marker{
				Kind:     ReachableMarker,
				Point:    p,
				Position: geo.FromPoint(p),
				Label:    update.ReachableMidpoint.Name,
				Color:    ColorReachable,
			}
			s.connect(p, geo.Solid, now)
		}
	}
}

// connect adds one connector from every pin to target
func (s *Scene) connect(target geo.Point, style geo.LineStyle, now time.Time) {
	for _, pin := range s.Pins() {
		c := geo.NewConnector(pin.Point, target, s.opts.Duration, now, s.opts.Animate).WithStyle(style)
		s.connectors = append(s.connectors, c)
	}
}

// Clear removes every pin, marker and connector
func (s *Scene) Clear() {
	s.pins = make(map[string]Pin)
	s.geometric = nil
	s.reachable = nil
	s.connectors = nil
}

// Pins returns the visible pins ordered by user id
func (s *Scene) Pins() []Pin {
	pins := lo.Values(s.pins)
	sort.Slice(pins, func(i, j int) bool { return pins[i].UserID < pins[j].UserID })
	return pins
}

// Pin returns the pin for a user
func (s *Scene) Pin(userID string) (Pin, bool) {
	p, ok := s.pins[userID]
	return p, ok
}

// Geometric returns the geometric midpoint marker, if shown
func (s *Scene) Geometric() (Marker, bool) {
	if s.geometric == nil {
		return Marker{}, false
	}
	return *s.geometric, true
}

// Reachable returns the reachable midpoint marker, if shown
func (s *Scene) Reachable() (Marker, bool) {
	if s.reachable == nil {
		return Marker{}, false
	}
	return *s.reachable, true
}

// Connectors returns the current connectors
func (s *Scene) Connectors() []geo.Connector {
	return append([]geo.Connector(nil), s.connectors...)
}

// Animating reports whether any connector is still growing at now
func (s *Scene) Animating(now time.Time) bool {
	return lo.SomeBy(s.connectors, func(c geo.Connector) bool {
		return !c.Done(now)
	})
}
