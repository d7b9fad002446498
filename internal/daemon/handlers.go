package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ykomatsu/troupe/internal/events"
	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/notify"
	"github.com/ykomatsu/troupe/internal/spawn"
	"github.com/ykomatsu/troupe/internal/uds"
	"github.com/ykomatsu/troupe/internal/workspace"
	atomicyaml "github.com/ykomatsu/troupe/internal/yaml"
)

func (d *Daemon) registerHandlers() {
	d.server.Handle("ping", d.handlePing)
	d.server.Handle("spawn", d.handleSpawn)
	d.server.Handle("status", d.handleStatus)
	d.server.Handle("shutdown", d.handleShutdown)
}

func (d *Daemon) handlePing(req *uds.Request) *uds.Response {
	return uds.SuccessResponse(map[string]any{
		"pong": true,
		"pid":  os.Getpid(),
	})
}

// spawnOutcome is the spawn handler's payload and the shape persisted to
// state/last_run.yaml.
type spawnOutcome struct {
	OK       bool                   `json:"ok" yaml:"ok"`
	Time     string                 `json:"time" yaml:"time"`
	DryRun   bool                   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Response model.CombinedResponse `json:"response" yaml:"response"`
}

func (d *Daemon) handleSpawn(req *uds.Request) *uds.Response {
	var spawnReq model.SpawnRequest
	if err := json.Unmarshal(req.Params, &spawnReq); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("decode spawn request: %v", err))
	}
	if spawnReq.ProjectName == "" {
		return uds.ErrorResponse(uds.ErrCodeValidation, "project_name is required")
	}

	// Batches for the same project run one at a time so concurrent
	// requests cannot double-create a named slot or interleave launches.
	d.lockMap.Lock(spawnReq.ProjectName)
	defer d.lockMap.Unlock(spawnReq.ProjectName)

	cfg := d.getConfig()

	env, exec, err := d.buildAdapters(cfg, spawnReq.DryRun)
	if err != nil {
		d.log(LogLevelError, "adapter setup failed project=%s error=%v", spawnReq.ProjectName, err)
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}

	d.log(LogLevelInfo, "spawn request project=%s resources=%d dry_run=%t",
		spawnReq.ProjectName, len(spawnReq.Resources), spawnReq.DryRun)

	ok, resp, err := spawn.NewService(env, exec, cfg.Spawn).Run(spawnReq)
	if err != nil {
		d.log(LogLevelError, "spawn aborted project=%s error=%v", spawnReq.ProjectName, err)
		if strings.Contains(err.Error(), string(model.ErrCriticalTagMapper)) {
			return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
		}
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}

	d.publishOutcome(spawnReq.ProjectName, ok, resp)

	outcome := spawnOutcome{
		OK:       ok,
		Time:     time.Now().UTC().Format(time.RFC3339),
		DryRun:   spawnReq.DryRun,
		Response: resp,
	}
	if !spawnReq.DryRun {
		statePath := filepath.Join(d.troupeDir, "state", "last_run.yaml")
		if err := atomicyaml.AtomicWrite(statePath, outcome); err != nil {
			d.log(LogLevelWarn, "persist last run failed error=%v", err)
		}
	}

	if !ok && cfg.Notify.Enabled {
		if err := notify.Send("troupe", fmt.Sprintf("spawn failed for project %s", spawnReq.ProjectName)); err != nil {
			d.log(LogLevelDebug, "notification failed error=%v", err)
		}
	}

	d.log(LogLevelInfo, "spawn done project=%s ok=%t spawned=%d",
		spawnReq.ProjectName, ok, resp.TotalSpawned)
	return uds.SuccessResponse(outcome)
}

// buildAdapters picks the live or simulating adapter pair. A dry run is
// seeded from the live environment when available so it predicts what a
// real run would do; without a live session it falls back to a minimal
// synthetic workspace.
func (d *Daemon) buildAdapters(cfg model.Config, dryRun bool) (workspace.Adapter, spawn.Executor, error) {
	if !dryRun {
		env, err := d.envFactory(cfg.Session.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("attach workspace session %q: %w", cfg.Session.Name, err)
		}
		return env, d.execFactory(), nil
	}

	if live, err := d.envFactory(cfg.Session.Name); err == nil {
		if snap, err := workspace.FromAdapter(live); err == nil {
			return snap, &spawn.DryRunExecutor{}, nil
		}
	}
	env := workspace.NewDryRunAdapter(1, []workspace.Slot{{Index: 1, Name: "main"}})
	return env, &spawn.DryRunExecutor{}, nil
}

// publishOutcome fans the batch result out on the event bus.
func (d *Daemon) publishOutcome(project string, ok bool, resp model.CombinedResponse) {
	if resp.TagOperations != nil {
		for _, c := range resp.TagOperations.Creations {
			d.bus.Publish(events.EventSlotCreated, map[string]any{
				"project": project,
				"name":    c.Name,
				"slot":    c.Slot,
			})
		}
	}
	for _, r := range resp.SpawnedResources {
		d.bus.Publish(events.EventResourceSpawned, map[string]any{
			"project":    project,
			"resource":   r.Name,
			"pid":        r.PID,
			"session_id": r.SessionID,
		})
	}

	failed := resp.Errors
	if resp.Warnings != nil {
		failed = append(append([]model.PhaseError{}, resp.Warnings.TagErrors...), resp.Warnings.SpawnErrors...)
	}
	for _, e := range failed {
		d.bus.Publish(events.EventSpawnFailed, map[string]any{
			"project":  project,
			"resource": e.ResourceID,
			"phase":    e.Phase,
			"type":     string(e.Error.Type),
		})
	}

	d.bus.Publish(events.EventBatchCompleted, map[string]any{
		"project": project,
		"ok":      ok,
		"spawned": resp.TotalSpawned,
	})
}

// statusPayload is the status handler's response data.
type statusPayload struct {
	Project string           `json:"project"`
	Session string           `json:"session"`
	Slots   []workspace.Slot `json:"slots,omitempty"`
	LastRun *spawnOutcome    `json:"last_run,omitempty"`
}

func (d *Daemon) handleStatus(req *uds.Request) *uds.Response {
	cfg := d.getConfig()
	payload := statusPayload{
		Project: cfg.Project.Name,
		Session: cfg.Session.Name,
	}

	// Slot listing is best-effort: the session may not exist yet.
	if env, err := d.envFactory(cfg.Session.Name); err == nil {
		if slots, err := env.Slots(); err == nil {
			payload.Slots = slots
		}
	}

	statePath := filepath.Join(d.troupeDir, "state", "last_run.yaml")
	var last spawnOutcome
	if err := atomicyaml.Load(statePath, &last); err == nil {
		payload.LastRun = &last
	}

	return uds.SuccessResponse(payload)
}

func (d *Daemon) handleShutdown(req *uds.Request) *uds.Response {
	d.log(LogLevelInfo, "shutdown requested over socket")
	go d.Shutdown()
	return uds.SuccessResponse(map[string]any{"stopping": true})
}
