package view

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/wricardo/halfway/lobby/protocol"
)

const (
	// MaxCards caps each places section
	MaxCards = 15

	NoDetails        = "No midpoint details available."
	NoPlaces         = "No hotels or attractions found."
	UnknownCity      = "Unknown"
	NoCity           = "–"
	UnnamedPlace     = "Unnamed place"
	PlaceholderPhoto = "https://via.placeholder.com/60x60?text=No+Image"
)

// Card is a display-ready place
type Card struct {
	Name     string `json:"name"`
	Price    string `json:"price,omitempty"`
	PhotoURL string `json:"photo_url"`
	Rating   string `json:"rating,omitempty"`
	Distance string `json:"distance,omitempty"`
	MapsURI  string `json:"maps_uri,omitempty"`
}

// NewCard formats a place for display
func NewCard(p protocol.Place) Card {
	card := Card{
		Name:     p.Name.Text,
		Price:    protocol.PriceLabel(p.Price),
		PhotoURL: p.PhotoURL,
		MapsURI:  p.GoogleMapsURI,
	}
	if card.Name == "" {
		card.Name = UnnamedPlace
	}
	if card.PhotoURL == "" {
		card.PhotoURL = PlaceholderPhoto
	}
	if p.Rating > 0 {
		card.Rating = fmt.Sprintf("⭐ %g (%d)", p.Rating, p.UserRatingCount)
	}
	if p.DistanceKM != nil && *p.DistanceKM > 0 {
		card.Distance = fmt.Sprintf("%.1f km away", *p.DistanceKM)
	}
	return card
}

// PlacesPanel shows the places found around the midpoint
type PlacesPanel struct {
	hasDetails  bool
	city        string
	hotels      []Card
	attractions []Card
}

// Replace swaps in new details; nil clears the panel
func (p *PlacesPanel) Replace(details *protocol.MidpointDetails) {
	*p = PlacesPanel{}
	if details == nil {
		return
	}

	p.hasDetails = true
	p.city = details.City
	if p.city == "" {
		p.city = UnknownCity
	}
	p.hotels = cards(details.Hotels)
	p.attractions = cards(details.Attractions)
}

func cards(places []protocol.Place) []Card {
	if len(places) > MaxCards {
		places = places[:MaxCards]
	}
	return lo.Map(places, func(p protocol.Place, _ int) Card {
		return NewCard(p)
	})
}

// City returns the city name or the no-details dash
func (p *PlacesPanel) City() string {
	if !p.hasDetails {
		return NoCity
	}
	return p.city
}

// HasDetails reports whether any details were received
func (p *PlacesPanel) HasDetails() bool {
	return p.hasDetails
}

// Hotels returns the hotel cards
func (p *PlacesPanel) Hotels() []Card {
	return append([]Card(nil), p.hotels...)
}

// Attractions returns the attraction cards
func (p *PlacesPanel) Attractions() []Card {
	return append([]Card(nil), p.attractions...)
}

// Render writes the city and a table per non-empty section
func (p *PlacesPanel) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "City: %s\n", p.City()); err != nil {
		return err
	}
	if !p.hasDetails {
		_, err := fmt.Fprintln(w, NoDetails)
		return err
	}
	if len(p.hotels) == 0 && len(p.attractions) == 0 {
		_, err := fmt.Fprintln(w, NoPlaces)
		return err
	}

	for _, section := range []struct {
		title string
		cards []Card
	}{
		{"Hotels", p.hotels},
		{"Attractions", p.attractions},
	} {
		if len(section.cards) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", section.title); err != nil {
			return err
		}
		renderCards(w, section.cards)
	}
	return nil
}

func renderCards(w io.Writer, cards []Card) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Price", "Rating", "Distance", "Map"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, c := range cards {
		table.Append([]string{c.Name, c.Price, c.Rating, c.Distance, c.MapsURI})
	}
	table.Render()
}
