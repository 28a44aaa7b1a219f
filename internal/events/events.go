package events

import "time"

const (
	// TypeDataChanged is informational: fired after every mutating write
	// to the collection document.
	TypeDataChanged = "data.changed"

	// TypeRestoreCompleted is fired exactly once per successful restore.
	// It is the only signal data-displaying clients get; anyone not
	// listening shows stale data after a restore.
	TypeRestoreCompleted = "restore.completed"
)

// Entity kinds carried in events.
const (
	KindGame      = "game"
	KindConsole   = "console"
	KindAccessory = "accessory"
	KindWishlist  = "wishlist"
)

type Event struct {
	Type string    `json:"type"`
	Kind string    `json:"kind,omitempty"` // entity kind for data.changed
	ID   string    `json:"id,omitempty"`   // entity id for data.changed
	At   time.Time `json:"at"`
}
