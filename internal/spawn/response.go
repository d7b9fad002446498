package spawn

import "github.com/ykomatsu/troupe/internal/model"

// BuildResponse merges the planner's plan and the orchestrator's results
// into the single combined response. The decision rule: any success means
// overall success (failures demoted to warnings); zero successes with at
// least one attempt means complete failure; an empty resource list is a
// success with nothing spawned.
func BuildResponse(projectName string, plan *model.TagOperationPlan, results []model.SpawnResult, resources []model.Resource) (bool, model.CombinedResponse) {
	byID := make(map[string]model.Resource, len(resources))
	for _, res := range resources {
		byID[res.Name] = res
	}

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}

	// Each failed resource contributes exactly one phase error: the planner
	// failure when it exists, otherwise the orchestrator's.
	var tagErrors, spawnErrors []model.PhaseError
	for _, te := range plan.Errors {
		tagErrors = append(tagErrors, model.PhaseError{
			Phase:      model.PhaseTagResolution,
			ResourceID: te.ResourceID,
			Error:      model.StructuredError{Type: te.Type, Message: te.Message},
		})
	}
	for _, r := range results {
		if r.Success || plan.ErrorFor(r.ResourceID) != nil {
			continue
		}
		spawnErrors = append(spawnErrors, model.PhaseError{
			Phase:      model.PhaseSpawning,
			ResourceID: r.ResourceID,
			Error:      *r.Error,
		})
	}
	errorCount := len(tagErrors) + len(spawnErrors)
	totalAttempted := len(resources)

	if successCount == 0 && totalAttempted > 0 {
		return false, model.CombinedResponse{
			ProjectName: projectName,
			ErrorType:   model.ErrCompleteFailure,
			Errors:      append(tagErrors, spawnErrors...),
			Metadata: &model.ResponseMetadata{
				TotalAttempted: totalAttempted,
				SuccessCount:   0,
				ErrorCount:     errorCount,
			},
		}
	}

	resp := model.CombinedResponse{
		ProjectName:      projectName,
		TotalSpawned:     successCount,
		SpawnedResources: []model.SpawnedResource{},
		TagOperations:    plan,
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		res := byID[r.ResourceID]
		resp.SpawnedResources = append(resp.SpawnedResources, model.SpawnedResource{
			Name:      r.ResourceID,
			PID:       r.PID,
			SessionID: r.SessionID,
			Command:   res.Command,
			TagSpec:   res.TagSpec,
		})
	}
	if errorCount > 0 {
		resp.Warnings = &model.ResponseWarnings{TagErrors: tagErrors, SpawnErrors: spawnErrors}
	}
	return true, resp
}
