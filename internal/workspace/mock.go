package workspace

import "fmt"

// MockAdapter is a deterministic in-memory adapter for tests. Every call
// is recorded so tests can assert exactly how the planner touched the
// environment.
type MockAdapter struct {
	Current  int
	SlotList []Slot
	// NextIndex is assigned to the next created slot; 0 means max+1.
	NextIndex int
	// CreateErr, when set, fails every CreateNamedSlot call.
	CreateErr error

	CreateCalls []string
}

func NewMockAdapter(current int, slots ...Slot) *MockAdapter {
	return &MockAdapter{Current: current, SlotList: slots}
}

func (m *MockAdapter) CurrentIndex() (int, error) { return m.Current, nil }

func (m *MockAdapter) Slots() ([]Slot, error) {
	out := make([]Slot, len(m.SlotList))
	copy(out, m.SlotList)
	return out, nil
}

func (m *MockAdapter) FindSlotByName(name string) (*Slot, error) {
	for i := range m.SlotList {
		if m.SlotList[i].Name == name {
			s := m.SlotList[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MockAdapter) CreateNamedSlot(name string) (Slot, error) {
	m.CreateCalls = append(m.CreateCalls, name)
	if m.CreateErr != nil {
		return Slot{}, fmt.Errorf("create slot %q: %w", name, m.CreateErr)
	}
	idx := m.NextIndex
	if idx == 0 {
		idx = 1
		for _, s := range m.SlotList {
			if s.Index >= idx {
				idx = s.Index + 1
			}
		}
	} else {
		m.NextIndex++
	}
	slot := Slot{Index: idx, Name: name}
	m.SlotList = append(m.SlotList, slot)
	return slot, nil
}
