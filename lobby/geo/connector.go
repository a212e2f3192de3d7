package geo

import "time"

// DefaultConnectorDuration is how long a connector takes to reach its end
const DefaultConnectorDuration = 2 * time.Second

// LineStyle describes how a connector is drawn
type LineStyle string

const (
	Dashed LineStyle = "dashed"
	Solid  LineStyle = "solid"
)

// Connector is a line whose visible endpoint travels from Start to End over Duration.
// It is sampled on every render tick; a redraw builds a new connector.
type Connector struct {
	Start     Vector3       `json:"start"`
	End       Vector3       `json:"end"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
	Animated  bool          `json:"animated"`
	Style     LineStyle     `json:"style"`
}

// NewConnector creates a solid connector between two points
func NewConnector(start, end Point, duration time.Duration, startedAt time.Time, animated bool) Connector {
	return Connector{
		Start:     FromPoint(start),
		End:       FromPoint(end),
		Duration:  duration,
		StartedAt: startedAt,
		Animated:  animated,
		Style:     Solid,
	}
}

// WithStyle returns a copy of the connector drawn in the given style
func (c Connector) WithStyle(style LineStyle) Connector {
	c.Style = style
	return c
}

// Progress returns the interpolation factor in [0, 1] at the given time
func (c Connector) Progress(now time.Time) float64 {
	if !c.Animated || c.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(c.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	t := float64(elapsed) / float64(c.Duration)
	if t > 1 {
		return 1
	}
	return t
}

// Endpoint returns the visible endpoint at the given time
func (c Connector) Endpoint(now time.Time) Vector3 {
	t := c.Progress(now)
	switch {
	case t <= 0:
		return c.Start
	case t >= 1:
		return c.End
	}
	return c.Start.Lerp(c.End, t)
}

// Positions returns the polyline to draw at the given time
func (c Connector) Positions(now time.Time) []Vector3 {
	return []Vector3{c.Start, c.Endpoint(now)}
}

// Done reports whether the endpoint has reached End
func (c Connector) Done(now time.Time) bool {
	return c.Progress(now) >= 1
}
