package model

// SpecKind names the resolved flavor of a placement specification.
type SpecKind string

const (
	SpecRelative SpecKind = "relative"
	SpecAbsolute SpecKind = "absolute"
	SpecNamed    SpecKind = "named"
)

// ResolvedSlot is the concrete workspace slot a resource resolved to.
// Slots are identified by index, not by a live handle, so the same newly
// created slot can be shared across assignments without aliasing.
type ResolvedSlot struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Created bool   `json:"created,omitempty" yaml:"created,omitempty"`
}

// Assignment binds one resource to its resolved slot.
type Assignment struct {
	ResourceID    string   `json:"resource_id" yaml:"resource_id"`
	ResolvedIndex int      `json:"resolved_index" yaml:"resolved_index"`
	ResolvedName  string   `json:"resolved_name,omitempty" yaml:"resolved_name,omitempty"`
	Kind          SpecKind `json:"kind" yaml:"kind"`
}

// Creation records one named slot created during planning.
type Creation struct {
	Name string `json:"name" yaml:"name"`
	Slot int    `json:"slot" yaml:"slot"`
}

// TagOperationPlan is the batch planner's output: every input resource
// contributes either an assignment or an error; warnings never remove a
// resource from the assignment list.
type TagOperationPlan struct {
	Assignments  []Assignment `json:"assignments" yaml:"assignments"`
	Creations    []Creation   `json:"creations,omitempty" yaml:"creations,omitempty"`
	Warnings     []Warning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors       []TagError   `json:"errors,omitempty" yaml:"errors,omitempty"`
	TotalCreated int          `json:"total_created" yaml:"total_created"`
}

// AssignmentFor returns the assignment for a resource, or nil if the
// resource failed resolution.
func (p *TagOperationPlan) AssignmentFor(resourceID string) *Assignment {
	for i := range p.Assignments {
		if p.Assignments[i].ResourceID == resourceID {
			return &p.Assignments[i]
		}
	}
	return nil
}

// ErrorFor returns the planner error for a resource, or nil.
func (p *TagOperationPlan) ErrorFor(resourceID string) *TagError {
	for i := range p.Errors {
		if p.Errors[i].ResourceID == resourceID {
			return &p.Errors[i]
		}
	}
	return nil
}
