package workspace

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/ykomatsu/troupe/internal/tmux"
)

// TmuxAdapter is the live adapter: slots are windows of the managed tmux
// session.
type TmuxAdapter struct {
	// create collapses concurrent CreateNamedSlot calls for the same name
	// into one tmux new-window invocation. In-batch deduplication is the
	// planner's job; this guards overlapping requests from separate callers.
	create singleflight.Group
}

// NewTmuxAdapter binds the adapter to the named tmux session, creating the
// session if it does not exist yet.
func NewTmuxAdapter(sessionName string) (*TmuxAdapter, error) {
	tmux.SetSessionName(sessionName)
	if !tmux.SessionExists() {
		if err := tmux.CreateSession("main"); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	return &TmuxAdapter{}, nil
}

func (a *TmuxAdapter) CurrentIndex() (int, error) {
	return tmux.ActiveWindowIndex()
}

func (a *TmuxAdapter) Slots() ([]Slot, error) {
	windows, err := tmux.ListWindows()
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, len(windows))
	for i, w := range windows {
		slots[i] = Slot{Index: w.Index, Name: w.Name}
	}
	return slots, nil
}

func (a *TmuxAdapter) FindSlotByName(name string) (*Slot, error) {
	slots, err := a.Slots()
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].Name == name {
			return &slots[i], nil
		}
	}
	return nil, nil
}

func (a *TmuxAdapter) CreateNamedSlot(name string) (Slot, error) {
	v, err, _ := a.create.Do(name, func() (any, error) {
		// A concurrent caller may have created the window while this call
		// waited on the flight.
		if existing, err := a.FindSlotByName(name); err != nil {
			return Slot{}, err
		} else if existing != nil {
			return *existing, nil
		}
		idx, err := tmux.CreateNamedWindow(name)
		if err != nil {
			return Slot{}, err
		}
		return Slot{Index: idx, Name: name}, nil
	})
	if err != nil {
		return Slot{}, fmt.Errorf("create slot %q: %w", name, err)
	}
	return v.(Slot), nil
}
