package view

import (
	"errors"

	"github.com/wricardo/halfway/lobby/store"
)

const panelsKey = "panels"

// Panel names accepted by Toggle
const (
	PanelChat    = "chat"
	PanelDetails = "details"
)

var ErrUnknownPanel = errors.New("unknown panel")

// Panels is the visibility of the side panels for one lobby
type Panels struct {
	Chat    bool `json:"chat"`
	Details bool `json:"details"`
}

// DefaultPanels shows both panels
func DefaultPanels() Panels {
	return Panels{Chat: true, Details: true}
}

// LoadPanels reads the saved visibility for a lobby, falling back to defaults
func LoadPanels(s store.Store, code string) (Panels, error) {
	p := DefaultPanels()
	err := store.GetJSON(lobbyScope(s, code), panelsKey, &p)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultPanels(), nil
	}
	if err != nil {
		return DefaultPanels(), err
	}
	return p, nil
}

// SavePanels stores the visibility for a lobby
func SavePanels(s store.Store, code string, p Panels) error {
	return store.SetJSON(lobbyScope(s, code), panelsKey, p)
}

// Toggle flips the named panel
func (p *Panels) Toggle(name string) error {
	switch name {
	case PanelChat:
		p.Chat = !p.Chat
	case PanelDetails:
		p.Details = !p.Details
	default:
		return ErrUnknownPanel
	}
	return nil
}

func lobbyScope(s store.Store, code string) store.Store {
	return store.Scope(s, "lobby:"+code+":")
}
