// Package tagmap resolves placement specifications against a workspace
// snapshot and plans slot assignments for a whole resource batch.
package tagmap

import (
	"fmt"

	"github.com/ykomatsu/troupe/internal/workspace"
)

// Snapshot is a point-in-time read of the environment: the caller's
// current slot index and the slot list. It is taken once per batch and not
// refreshed mid-plan, except through slot-creation results.
type Snapshot struct {
	CurrentIndex int
	Slots        []workspace.Slot
}

// TakeSnapshot reads the adapter's current state.
func TakeSnapshot(adapter workspace.Adapter) (Snapshot, error) {
	current, err := adapter.CurrentIndex()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read current index: %w", err)
	}
	slots, err := adapter.Slots()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read slots: %w", err)
	}
	return Snapshot{CurrentIndex: current, Slots: slots}, nil
}

// SlotAt returns the slot at the given index, or nil.
func (s Snapshot) SlotAt(index int) *workspace.Slot {
	for i := range s.Slots {
		if s.Slots[i].Index == index {
			return &s.Slots[i]
		}
	}
	return nil
}

// SlotNamed returns the slot with the given name, or nil.
func (s Snapshot) SlotNamed(name string) *workspace.Slot {
	for i := range s.Slots {
		if s.Slots[i].Name == name {
			return &s.Slots[i]
		}
	}
	return nil
}
