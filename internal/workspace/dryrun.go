package workspace

import (
	"fmt"
	"sync"
)

// DryRunAdapter simulates slot creation against a snapshot of the
// environment without touching tmux. Actions records, in order, the
// mutations a live run would have performed.
type DryRunAdapter struct {
	mu      sync.Mutex
	current int
	slots   []Slot
	Actions []string
}

// NewDryRunAdapter seeds the simulation with the given current index and
// slot list. Seeding from a live adapter's state lets a dry run predict
// exactly what the real run would do.
func NewDryRunAdapter(current int, slots []Slot) *DryRunAdapter {
	copied := make([]Slot, len(slots))
	copy(copied, slots)
	return &DryRunAdapter{current: current, slots: copied}
}

// FromAdapter snapshots another adapter's state into a dry-run adapter.
func FromAdapter(base Adapter) (*DryRunAdapter, error) {
	current, err := base.CurrentIndex()
	if err != nil {
		return nil, fmt.Errorf("snapshot current index: %w", err)
	}
	slots, err := base.Slots()
	if err != nil {
		return nil, fmt.Errorf("snapshot slots: %w", err)
	}
	return NewDryRunAdapter(current, slots), nil
}

func (a *DryRunAdapter) CurrentIndex() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, nil
}

func (a *DryRunAdapter) Slots() ([]Slot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Slot, len(a.slots))
	copy(out, a.slots)
	return out, nil
}

func (a *DryRunAdapter) FindSlotByName(name string) (*Slot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.slots {
		if a.slots[i].Name == name {
			s := a.slots[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (a *DryRunAdapter) CreateNamedSlot(name string) (Slot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := 1
	for _, s := range a.slots {
		if s.Index >= next {
			next = s.Index + 1
		}
	}
	slot := Slot{Index: next, Name: name}
	a.slots = append(a.slots, slot)
	a.Actions = append(a.Actions, fmt.Sprintf("create slot %d name=%s", next, name))
	return slot, nil
}
