// Command analyze prints quick, human-readable facts about a set of named
// points: the meeting point a lobby would compute, the spherical centroid,
// how far each participant travels and the pairwise distances.
//
// Points files are JSON arrays:
//
//	[{"name": "alice", "lat": 48.85, "lon": 2.35}, {"name": "bob", "lat": 51.5, "lon": -0.12}]
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/wricardo/halfway/lobby/geo"
)

// NamedPoint is one participant's location in a points file.
type NamedPoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Point converts to a geo.Point.
func (n NamedPoint) Point() geo.Point {
	return geo.Point{Lat: n.Lat, Lon: n.Lon}
}

// Travel is how far one participant is from the meeting point.
type Travel struct {
	Name string
	Km   float64
}

// Analysis summarizes a points file.
type Analysis struct {
	Count    int
	Meeting  geo.Point
	Centroid geo.Point
	Travel   []Travel
	// Spread is the difference between the longest and shortest trip
	Spread float64
	Pairs  [][]string
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files = []string{"points.json"}
	}

	failed := false
	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", path)
		if err := analyzeFile(path, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func analyzeFile(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var points []NamedPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	a, err := analyzePoints(points)
	if err != nil {
		return err
	}
	printAnalysis(w, a, points)
	return nil
}

func analyzePoints(points []NamedPoint) (*Analysis, error) {
	if len(points) == 0 {
		return nil, geo.ErrNoPoints
	}

	coords := make([]geo.Point, len(points))
	for i, p := range points {
		if err := p.Point().Validate(); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.Name, err)
		}
		coords[i] = p.Point()
	}

	meeting, err := geo.MeetingPoint(coords)
	if err != nil {
		return nil, err
	}
	centroid, err := geo.Centroid(coords)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Count:    len(points),
		Meeting:  meeting,
		Centroid: centroid,
	}

	for i, p := range points {
		a.Travel = append(a.Travel, Travel{Name: p.Name, Km: geo.HaversineKm(coords[i], meeting)})
	}
	sort.Slice(a.Travel, func(i, j int) bool { return a.Travel[i].Km > a.Travel[j].Km })
	a.Spread = a.Travel[0].Km - a.Travel[len(a.Travel)-1].Km

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			a.Pairs = append(a.Pairs, []string{
				points[i].Name,
				points[j].Name,
				fmt.Sprintf("%.1f", geo.HaversineKm(coords[i], coords[j])),
			})
		}
	}
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis, points []NamedPoint) {
	fmt.Fprintf(w, "Participants: %d\n", a.Count)
	fmt.Fprintf(w, "Meeting point: %s\n", a.Meeting)
	if a.Count > 2 {
		fmt.Fprintf(w, "Centroid: %s\n", a.Centroid)
	}

	fmt.Fprintln(w, "Travel to the meeting point:")
	for _, t := range a.Travel {
		fmt.Fprintf(w, "  %-12s %8.1f km\n", t.Name, t.Km)
	}
	if a.Count > 1 {
		fmt.Fprintf(w, "Spread: %.1f km\n", a.Spread)
	}

	if len(a.Pairs) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"From", "To", "Km"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.AppendBulk(a.Pairs)
	table.Render()
}
