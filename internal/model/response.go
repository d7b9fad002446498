package model

// SpawnResult is the per-resource outcome of one launch attempt.
type SpawnResult struct {
	ResourceID string           `json:"resource_id" yaml:"resource_id"`
	Success    bool             `json:"success" yaml:"success"`
	PID        int              `json:"pid,omitempty" yaml:"pid,omitempty"`
	SessionID  string           `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Error      *StructuredError `json:"error,omitempty" yaml:"error,omitempty"`
}

// SpawnedResource is the success-shape entry for one launched resource.
type SpawnedResource struct {
	Name      string `json:"name" yaml:"name"`
	PID       int    `json:"pid" yaml:"pid"`
	SessionID string `json:"session_id" yaml:"session_id"`
	Command   string `json:"command" yaml:"command"`
	TagSpec   any    `json:"tag_spec" yaml:"tag_spec"`
}

// ResponseWarnings carries non-fatal per-resource failures on a response
// that is still an overall success.
type ResponseWarnings struct {
	TagErrors   []PhaseError `json:"tag_errors,omitempty" yaml:"tag_errors,omitempty"`
	SpawnErrors []PhaseError `json:"spawn_errors,omitempty" yaml:"spawn_errors,omitempty"`
}

// PhaseError ties a structured error to the pipeline phase that produced it.
type PhaseError struct {
	Phase      string          `json:"phase" yaml:"phase"`
	ResourceID string          `json:"resource_id" yaml:"resource_id"`
	Error      StructuredError `json:"error" yaml:"error"`
}

// ResponseMetadata summarizes a complete failure.
type ResponseMetadata struct {
	TotalAttempted int `json:"total_attempted" yaml:"total_attempted"`
	SuccessCount   int `json:"success_count" yaml:"success_count"`
	ErrorCount     int `json:"error_count" yaml:"error_count"`
}

// Pipeline phase names used in PhaseError.
const (
	PhaseTagResolution = "tag_resolution"
	PhaseSpawning      = "spawning"
)

// CombinedResponse is the single structured object callers always receive.
// On success the spawned/tag-operation fields are populated; on complete
// failure ErrorType, Errors, and Metadata are populated instead. The two
// shapes never mix.
type CombinedResponse struct {
	ProjectName string `json:"project_name" yaml:"project_name"`

	// Success shape.
	TotalSpawned     int               `json:"total_spawned" yaml:"total_spawned"`
	SpawnedResources []SpawnedResource `json:"spawned_resources,omitempty" yaml:"spawned_resources,omitempty"`
	TagOperations    *TagOperationPlan `json:"tag_operations,omitempty" yaml:"tag_operations,omitempty"`
	Warnings         *ResponseWarnings `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Failure shape.
	ErrorType ErrorType         `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Errors    []PhaseError      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Metadata  *ResponseMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
