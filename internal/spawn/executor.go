// Package spawn launches resources into their resolved slots and merges
// planner and launch outcomes into one combined response.
package spawn

import (
	"fmt"
	"sync/atomic"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/tmux"
)

// Properties carries the per-resource launch options.
type Properties struct {
	WorkingDir string
	Reuse      bool
	Env        map[string]string
}

// Executor launches one resource into one resolved slot. Launching is
// fire-and-forget: the call returns as soon as the process is started,
// without waiting for it to become visible.
type Executor interface {
	Spawn(command string, slot model.ResolvedSlot, props Properties) (pid int, sessionID string, err error)
}

// TmuxExecutor is the live executor: resources become panes of the slot's
// window.
type TmuxExecutor struct{}

func (TmuxExecutor) Spawn(command string, slot model.ResolvedSlot, props Properties) (int, string, error) {
	if err := tmux.EnsureWindow(slot.Index, slot.Name); err != nil {
		return 0, "", fmt.Errorf("ensure window %d: %w", slot.Index, err)
	}
	return tmux.SpawnInWindow(slot.Index, command, tmux.SpawnOptions{
		WorkingDir: props.WorkingDir,
		Env:        props.Env,
		Reuse:      props.Reuse,
	})
}

// DryRunExecutor simulates launches with synthetic pids, pairing with the
// dry-run environment adapter.
type DryRunExecutor struct {
	seq atomic.Int64
}

func (e *DryRunExecutor) Spawn(command string, slot model.ResolvedSlot, props Properties) (int, string, error) {
	n := e.seq.Add(1)
	return int(90000 + n), fmt.Sprintf("dry-run:%d.%d", slot.Index, n), nil
}
