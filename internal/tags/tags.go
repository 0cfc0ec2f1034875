// Package tags defines the display tag store the reconcilers write into.
package tags

import "time"

// Color is an RGB display color
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Fixed tag colors
var (
	ColorDefault  = Color{255, 255, 255}
	ColorCleared  = Color{114, 216, 250}
	ColorAwaiting = Color{249, 168, 0}
)

// Definition describes a tag item registered by a reconciler
type Definition struct {
	Name           string   `json:"name"`
	DefaultValue   string   `json:"default_value"`
	AllowedActions []string `json:"allowed_actions,omitempty"`
}

// Entry is the current value of a tag for one callsign. A nil Color means
// default display styling.
type Entry struct {
	TagID     string    `json:"tag_id"`
	Callsign  string    `json:"callsign"`
	Value     string    `json:"value"`
	Color     *Color    `json:"color,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sink is the write side of the tag store
type Sink interface {
	// RegisterTagDefinition registers a tag item and returns its id
	RegisterTagDefinition(def Definition) (string, error)
	// UpdateTagValue sets the value of a tag for one callsign
	UpdateTagValue(tagID, callsign, value string, color *Color) error
}

// Reader is implemented by sinks that can report their current values
type Reader interface {
	// LookupTag resolves a tag name to its id and definition
	LookupTag(name string) (string, Definition, bool)
	// Values returns every entry of a tag, ordered by callsign
	Values(tagID string) ([]Entry, error)
}

// Store is a sink that can also be read back
type Store interface {
	Sink
	Reader
}
