// Package model defines the data structures for troupe's configuration,
// spawn requests, tag operation plans, and combined responses.
package model

type Config struct {
	Project Project       `yaml:"project"`
	Session SessionConfig `yaml:"session"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Waiter  WaiterConfig  `yaml:"waiter"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Logging LoggingConfig `yaml:"logging"`
	Notify  NotifyConfig  `yaml:"notify"`
}

type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SessionConfig struct {
	// Name is the tmux session hosting the workspace slots.
	Name string `yaml:"name"`
}

type SpawnConfig struct {
	// DefaultWorkingDir is used when a resource has no working_dir.
	DefaultWorkingDir string `yaml:"default_working_dir"`
	// DefaultReuse applies when a resource leaves reuse unset.
	DefaultReuse bool `yaml:"default_reuse"`
}

type WaiterConfig struct {
	TimeoutSec     int `yaml:"timeout_sec"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

type DaemonConfig struct {
	ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the configuration written by `troupe setup`.
func DefaultConfig(projectName string) Config {
	return Config{
		Project: Project{Name: projectName},
		Session: SessionConfig{Name: "troupe"},
		Waiter:  WaiterConfig{TimeoutSec: 10, PollIntervalMs: 250},
		Daemon:  DaemonConfig{ShutdownTimeoutSec: 30},
		Logging: LoggingConfig{Level: "info"},
		Notify:  NotifyConfig{Enabled: false},
	}
}
