// Package workspace abstracts the host window environment so the tag
// mapper can run against the live tmux session, a side-effect-free
// simulation, or a deterministic test double.
package workspace

// Slot is one workspace bucket resources are placed into. Identity is the
// index; the name is advisory and empty for unnamed slots.
type Slot struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

// Adapter supplies the environment state the resolver needs and the single
// mutation it performs: creating a named slot on demand.
type Adapter interface {
	// CurrentIndex returns the index of the caller's current slot.
	CurrentIndex() (int, error)
	// Slots returns the slot list in index order.
	Slots() ([]Slot, error)
	// FindSlotByName returns the slot with the given name, or nil.
	FindSlotByName(name string) (*Slot, error)
	// CreateNamedSlot creates a new named slot and returns it.
	CreateNamedSlot(name string) (Slot, error)
}
