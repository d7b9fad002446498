package spawn

import (
	"fmt"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/tagmap"
	"github.com/ykomatsu/troupe/internal/workspace"
)

// Service is the per-invocation pipeline: parse, plan, spawn, build. It is
// constructed fresh for each request with its two adapters and discarded
// after the response is produced.
type Service struct {
	env      workspace.Adapter
	exec     Executor
	defaults model.SpawnConfig
}

func NewService(env workspace.Adapter, exec Executor, defaults model.SpawnConfig) *Service {
	return &Service{env: env, exec: exec, defaults: defaults}
}

// Run executes the pipeline for one request. Per-resource failures are
// captured inside the response; the returned error covers only
// programmer-error inputs and an unreadable environment, which abort the
// whole call.
func (s *Service) Run(req model.SpawnRequest) (bool, model.CombinedResponse, error) {
	if req.ProjectName == "" {
		return false, model.CombinedResponse{}, fmt.Errorf("%s: project name is empty", model.ErrCriticalTagMapper)
	}

	plan, err := tagmap.NewPlanner(s.env).Plan(req.Resources)
	if err != nil {
		return false, model.CombinedResponse{}, err
	}

	results := SpawnAll(plan, req.Resources, s.exec, s.defaults)

	ok, resp := BuildResponse(req.ProjectName, plan, results, req.Resources)
	return ok, resp, nil
}
