package model

// ErrorType classifies tag-resolution and spawn failures on the wire.
type ErrorType string

const (
	// ErrTagSpecInvalid marks a malformed raw specification (type or format).
	ErrTagSpecInvalid ErrorType = "TAG_SPEC_INVALID"
	// ErrTagOverflow marks a relative/absolute target with no matching slot.
	ErrTagOverflow ErrorType = "TAG_OVERFLOW"
	// WarnTagFallbackUsed is non-fatal: an overflow resolved to the current
	// slot instead of failing the resource.
	WarnTagFallbackUsed ErrorType = "TAG_FALLBACK_USED"
	// ErrTagCreationFailed means the environment adapter could not create a
	// requested named slot.
	ErrTagCreationFailed ErrorType = "TAG_CREATION_FAILED"
	// ErrSpawnFailure means the execution adapter reported a launch error.
	ErrSpawnFailure ErrorType = "SPAWN_FAILURE"
	// ErrCriticalTagMapper is the defensive catch-all for malformed input to
	// the planner itself (nil resource list, empty project name).
	ErrCriticalTagMapper ErrorType = "CRITICAL_TAG_MAPPER_ERROR"
	// ErrCompleteFailure is the response-level error type when no resource
	// spawned despite attempts.
	ErrCompleteFailure ErrorType = "COMPLETE_FAILURE"
)

// StructuredError is the error payload attached to failed resources.
type StructuredError struct {
	Type        ErrorType         `json:"type" yaml:"type"`
	Message     string            `json:"message" yaml:"message"`
	Context     map[string]string `json:"context,omitempty" yaml:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// Warning records a non-fatal resolution event tied to one resource.
type Warning struct {
	Type       ErrorType `json:"type" yaml:"type"`
	ResourceID string    `json:"resource_id" yaml:"resource_id"`
	Message    string    `json:"message" yaml:"message"`
	// Target is the out-of-range slot index that triggered a fallback.
	Target int `json:"target,omitempty" yaml:"target,omitempty"`
}

// TagError records a fatal per-resource resolution failure inside a plan.
type TagError struct {
	Type       ErrorType `json:"type" yaml:"type"`
	ResourceID string    `json:"resource_id" yaml:"resource_id"`
	Message    string    `json:"message" yaml:"message"`
}
