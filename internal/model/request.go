package model

// SpawnRequest is the exposed input shape: a project plus the ordered list
// of resources to place and launch. It arrives over the UDS transport as
// JSON and is also accepted from YAML request files by the CLI.
type SpawnRequest struct {
	ProjectName string     `json:"project_name" yaml:"project_name"`
	Resources   []Resource `json:"resources" yaml:"resources"`
	// DryRun routes the request through the simulating adapters.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Resource is one application the caller wants launched into a resolved
// slot. TagSpec is deliberately untyped: a number means a relative offset,
// a string is an absolute index or a slot name. The parser classifies it.
type Resource struct {
	Name       string            `json:"name" yaml:"name"`
	Command    string            `json:"command" yaml:"command"`
	TagSpec    any               `json:"tag_spec" yaml:"tag_spec"`
	WorkingDir string            `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`
	Reuse      *bool             `json:"reuse,omitempty" yaml:"reuse,omitempty"`
	Env        map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}
