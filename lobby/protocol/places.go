package protocol

import (
	"bytes"

	"github.com/goccy/go-json"
)

// MidpointDetails describes the area around the midpoint
type MidpointDetails struct {
	City        string  `json:"city"`
	Hotels      []Place `json:"hotels"`
	Attractions []Place `json:"attractions"`
}

// Place is a hotel or attraction near the midpoint
type Place struct {
	Name            PlaceName `json:"name"`
	Price           string    `json:"price,omitempty"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	Rating          float64   `json:"rating,omitempty"`
	UserRatingCount int       `json:"userRatingCount,omitempty"`
	GoogleMapsURI   string    `json:"googleMapsUri,omitempty"`
	DistanceKM      *float64  `json:"distance_km,omitempty"`
}

// PlaceName is a display name that arrives either as a plain string or
// as a localized object {"text": ..., "languageCode": ...}.
type PlaceName struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// UnmarshalJSON accepts a string, an object or null
func (n *PlaceName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = PlaceName{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = PlaceName{Text: s}
		return nil
	}

	type plain PlaceName
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = PlaceName(p)
	return nil
}

var priceLabels = map[string]string{
	"PRICE_LEVEL_FREE":           "Free",
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

// PriceLabel maps a places price level to its display label.
// Labels that are already human readable pass through unchanged.
func PriceLabel(level string) string {
	if label, ok := priceLabels[level]; ok {
		return label
	}
	if level == "PRICE_LEVEL_UNSPECIFIED" {
		return ""
	}
	return level
}
