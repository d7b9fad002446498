package spawn

import (
	"fmt"

	"github.com/ykomatsu/troupe/internal/model"
)

// SpawnAll launches every resource in its original list order, one at a
// time; each call returns before the next begins. A failure for one
// resource never stops the rest. Resources without a usable slot (planner
// failures) are recorded as skips without touching the executor.
func SpawnAll(plan *model.TagOperationPlan, resources []model.Resource, exec Executor, defaults model.SpawnConfig) []model.SpawnResult {
	created := make(map[int]bool, len(plan.Creations))
	for _, c := range plan.Creations {
		created[c.Slot] = true
	}

	results := make([]model.SpawnResult, 0, len(resources))
	for _, res := range resources {
		assignment := plan.AssignmentFor(res.Name)
		if assignment == nil {
			results = append(results, model.SpawnResult{
				ResourceID: res.Name,
				Success:    false,
				Error: &model.StructuredError{
					Type:    model.ErrSpawnFailure,
					Message: "skipped: tag resolution produced no usable slot",
					Context: map[string]string{"command": res.Command},
				},
			})
			continue
		}

		slot := model.ResolvedSlot{
			Index:   assignment.ResolvedIndex,
			Name:    assignment.ResolvedName,
			Created: created[assignment.ResolvedIndex],
		}

		pid, sessionID, err := exec.Spawn(res.Command, slot, properties(res, defaults))
		if err != nil {
			results = append(results, model.SpawnResult{
				ResourceID: res.Name,
				Success:    false,
				Error: &model.StructuredError{
					Type:    model.ErrSpawnFailure,
					Message: err.Error(),
					Context: map[string]string{"command": res.Command},
					Suggestions: []string{
						"check that the command exists and is executable",
						fmt.Sprintf("verify slot %d is reachable in the session", slot.Index),
					},
				},
			})
			continue
		}

		results = append(results, model.SpawnResult{
			ResourceID: res.Name,
			Success:    true,
			PID:        pid,
			SessionID:  sessionID,
		})
	}
	return results
}

func properties(res model.Resource, defaults model.SpawnConfig) Properties {
	props := Properties{
		WorkingDir: res.WorkingDir,
		Reuse:      defaults.DefaultReuse,
		Env:        res.Env,
	}
	if props.WorkingDir == "" {
		props.WorkingDir = defaults.DefaultWorkingDir
	}
	if res.Reuse != nil {
		props.Reuse = *res.Reuse
	}
	return props
}
