package tagmap

import (
	"fmt"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/tagspec"
	"github.com/ykomatsu/troupe/internal/workspace"
)

// Planner resolves a whole resource list against one environment snapshot,
// deduplicating named-slot creation and capturing per-resource failures
// inside the plan instead of aborting.
type Planner struct {
	adapter workspace.Adapter
}

func NewPlanner(adapter workspace.Adapter) *Planner {
	return &Planner{adapter: adapter}
}

// pendingEntry tracks one assignment awaiting a named-slot creation.
type pendingEntry struct {
	assignmentIdx int
}

// Plan resolves every resource into either an assignment or a captured
// error. It returns an error only for programmer-error inputs (nil
// resource list) or an unreadable environment; those abort the whole call
// as CRITICAL_TAG_MAPPER_ERROR conditions.
func (p *Planner) Plan(resources []model.Resource) (*model.TagOperationPlan, error) {
	if resources == nil {
		return nil, fmt.Errorf("%s: resource list is nil", model.ErrCriticalTagMapper)
	}

	snap, err := TakeSnapshot(p.adapter)
	if err != nil {
		return nil, fmt.Errorf("%s: snapshot environment: %w", model.ErrCriticalTagMapper, err)
	}

	plan := &model.TagOperationPlan{Assignments: []model.Assignment{}}

	// Deduplication map: requested name -> assignments awaiting that slot,
	// in first-request order.
	pending := make(map[string][]pendingEntry)
	var nameOrder []string

	for _, res := range resources {
		spec, err := tagspec.Parse(res.TagSpec)
		if err != nil {
			plan.Errors = append(plan.Errors, model.TagError{
				Type:       model.ErrTagSpecInvalid,
				ResourceID: res.Name,
				Message:    err.Error(),
			})
			continue
		}

		r := Resolve(res.Name, spec, snap)
		if r.Warning != nil {
			plan.Warnings = append(plan.Warnings, *r.Warning)
		}

		assignment := model.Assignment{
			ResourceID:    res.Name,
			ResolvedIndex: r.Slot.Index,
			ResolvedName:  r.Slot.Name,
			Kind:          spec.Kind,
		}
		plan.Assignments = append(plan.Assignments, assignment)

		if r.NeedsCreation {
			if _, seen := pending[r.RequestedName]; !seen {
				nameOrder = append(nameOrder, r.RequestedName)
			}
			pending[r.RequestedName] = append(pending[r.RequestedName], pendingEntry{
				assignmentIdx: len(plan.Assignments) - 1,
			})
		}
	}

	// One creation call per distinct name; requesters share the outcome.
	dropped := make(map[int]bool)
	for _, name := range nameOrder {
		slot, err := p.adapter.CreateNamedSlot(name)
		if err != nil {
			for _, entry := range pending[name] {
				dropped[entry.assignmentIdx] = true
				plan.Errors = append(plan.Errors, model.TagError{
					Type:       model.ErrTagCreationFailed,
					ResourceID: plan.Assignments[entry.assignmentIdx].ResourceID,
					Message:    fmt.Sprintf("create slot %q: %v", name, err),
				})
			}
			continue
		}
		plan.Creations = append(plan.Creations, model.Creation{Name: name, Slot: slot.Index})
		for _, entry := range pending[name] {
			plan.Assignments[entry.assignmentIdx].ResolvedIndex = slot.Index
			plan.Assignments[entry.assignmentIdx].ResolvedName = slot.Name
		}
	}

	if len(dropped) > 0 {
		kept := plan.Assignments[:0]
		for i := range plan.Assignments {
			if !dropped[i] {
				kept = append(kept, plan.Assignments[i])
			}
		}
		plan.Assignments = kept
	}

	plan.TotalCreated = len(plan.Creations)
	return plan, nil
}
