package view

import (
	"testing"
	"time"

	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/protocol"
)

func ptr(f float64) *float64 { return &f }

func point(lat, lon float64) protocol.NullablePoint {
	return protocol.NewNullablePoint(geo.Point{Lat: lat, Lon: lon})
}

func sampleUpdate() *protocol.LobbyUpdate {
	return &protocol.LobbyUpdate{
		Points: map[string]protocol.NullablePoint{
			"alice": point(0, 0),
			"bob":   point(0, 90),
			"carol": {},
		},
		GeometricMidpoint: &protocol.NullablePoint{Lat: ptr(0), Lon: ptr(45)},
		ReachableMidpoint: &protocol.ReachableMidpoint{Lat: ptr(1), Lon: ptr(44), Name: "Halfway Inn"},
		Participants:      []string{"alice", "bob", "carol"},
		Messages:          []protocol.ChatEntry{{Name: "alice", Text: "hi"}},
	}
}

func TestScene_Apply(t *testing.T) {
	now := time.Now()
	s := NewScene(SceneOptions{SelfID: "alice", Animate: true})
	s.Apply(sampleUpdate(), now)

	pins := s.Pins()
	if len(pins) != 2 {
		t.Fatalf("expected 2 pins (carol has no point), got %d", len(pins))
	}
	if pins[0].UserID != "alice" || !pins[0].Self || pins[0].Color != ColorSelf {
		t.Errorf("alice should be the aqua self pin, got %+v", pins[0])
	}
	if pins[1].Self || pins[1].Color != ColorOther {
		t.Errorf("bob should be a regular pin, got %+v", pins[1])
	}

	geometric, ok := s.Geometric()
	if !ok || geometric.Point != (geo.Point{Lat: 0, Lon: 45}) || geometric.Color != ColorGeometric {
		t.Errorf("unexpected geometric marker %+v", geometric)
	}
	reachable, ok := s.Reachable()
	if !ok || reachable.Label != "Halfway Inn" || reachable.Color != ColorReachable {
		t.Errorf("unexpected reachable marker %+v", reachable)
	}

	connectors := s.Connectors()
	if len(connectors) != 4 {
		t.Fatalf("expected 4 connectors, got %d", len(connectors))
	}
	for i, c := range connectors {
		want := geo.Dashed
		if i >= 2 {
			want = geo.Solid
		}
		if c.Style != want {
			t.Errorf("connector %d style = %s, want %s", i, c.Style, want)
		}
		if c.Endpoint(now) != c.Start {
			t.Errorf("connector %d should start at its pin", i)
		}
	}
	if connectors[0].End != geometric.Position {
		t.Error("dashed connectors should end at the geometric marker")
	}
	if connectors[3].End != reachable.Position {
		t.Error("solid connectors should end at the reachable marker")
	}

	if !s.Animating(now) {
		t.Error("scene should be animating right after an update")
	}
	if s.Animating(now.Add(geo.DefaultConnectorDuration)) {
		t.Error("scene should be settled after the connector duration")
	}
}

func TestScene_FullReplace(t *testing.T) {
	s := NewScene(SceneOptions{SelfID: "alice"})
	s.Apply(sampleUpdate(), time.Now())

	s.Apply(&protocol.LobbyUpdate{
		Points:       map[string]protocol.NullablePoint{"bob": point(10, 10)},
		Participants: []string{"bob"},
	}, time.Now())

	if _, ok := s.Pin("alice"); ok {
		t.Error("alice's pin should be removed when absent from the update")
	}
	if pin, ok := s.Pin("bob"); !ok || pin.Point != (geo.Point{Lat: 10, Lon: 10}) {
		t.Errorf("bob's pin should move, got %+v", pin)
	}
	if _, ok := s.Geometric(); ok {
		t.Error("geometric marker should be cleared")
	}
	if _, ok := s.Reachable(); ok {
		t.Error("reachable marker should be cleared")
	}
	if len(s.Connectors()) != 0 {
		t.Error("connectors should be cleared")
	}
}

func TestScene_ParticipantFilter(t *testing.T) {
	s := NewScene(SceneOptions{})
	s.Apply(&protocol.LobbyUpdate{
		Points: map[string]protocol.NullablePoint{
			"alice": point(1, 1),
			"ghost": point(2, 2),
		},
		Participants: []string{"alice"},
	}, time.Now())

	if _, ok := s.Pin("ghost"); ok {
		t.Error("points of users who are not participants should not be shown")
	}

	// Without a participant list every located point is shown
	s.Apply(&protocol.LobbyUpdate{
		Points: map[string]protocol.NullablePoint{
			"alice": point(1, 1),
			"ghost": point(2, 2),
		},
	}, time.Now())
	if len(s.Pins()) != 2 {
		t.Errorf("expected 2 pins without a participant list, got %d", len(s.Pins()))
	}
}

func TestScene_NullMidpoints(t *testing.T) {
	s := NewScene(SceneOptions{})
	s.Apply(&protocol.LobbyUpdate{
		Points:            map[string]protocol.NullablePoint{"alice": point(1, 1)},
		GeometricMidpoint: &protocol.NullablePoint{},
		ReachableMidpoint: &protocol.ReachableMidpoint{Name: "nowhere"},
	}, time.Now())

	if _, ok := s.Geometric(); ok {
		t.Error("null geometric midpoint should not produce a marker")
	}
	if _, ok := s.Reachable(); ok {
		t.Error("reachable midpoint without coordinates should not produce a marker")
	}
	if len(s.Connectors()) != 0 {
		t.Error("no connectors expected without midpoints")
	}
}

func TestScene_StaticConnectors(t *testing.T) {
	now := time.Now()
	s := NewScene(SceneOptions{Animate: false})
	s.Apply(sampleUpdate(), now)

	for _, c := range s.Connectors() {
		if c.Endpoint(now) != c.End {
			t.Error("static connectors should be drawn in full immediately")
		}
	}
	if s.Animating(now) {
		t.Error("static scene should never be animating")
	}
}
