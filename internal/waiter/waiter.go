// Package waiter polls for a launched resource's visible presence. The
// spawn pipeline itself is fire-and-forget; callers that want confirmation
// use a Waiter with the pid the pipeline emitted.
package waiter

import (
	"context"
	"time"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/tmux"
)

// PaneLister returns pane id -> shell pid for the session. Injectable so
// tests run without tmux.
type PaneLister func() (map[string]int, error)

type Waiter struct {
	timeout  time.Duration
	interval time.Duration
	list     PaneLister
}

// New builds a waiter from config, applying defaults for unset values.
func New(cfg model.WaiterConfig) *Waiter {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	interval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Waiter{timeout: timeout, interval: interval, list: tmux.ListPanePIDs}
}

// SetPaneLister overrides the pane source for testing.
func (w *Waiter) SetPaneLister(list PaneLister) {
	w.list = list
}

// WaitVisible polls until a pane with the given shell pid appears, the
// timeout elapses, or ctx is cancelled. It returns whether the pane was
// found; listing errors end the wait early.
func (w *Waiter) WaitVisible(ctx context.Context, pid int) (bool, error) {
	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		pids, err := w.list()
		if err != nil {
			return false, err
		}
		for _, p := range pids {
			if p == pid {
				return true, nil
			}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}
