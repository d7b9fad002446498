package tagmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/workspace"
)

func TestPlanNilResourcesIsCritical(t *testing.T) {
	p := NewPlanner(workspace.NewMockAdapter(1))
	_, err := p.Plan(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(model.ErrCriticalTagMapper))
}

func TestPlanEmptyResources(t *testing.T) {
	p := NewPlanner(workspace.NewMockAdapter(1))
	plan, err := p.Plan([]model.Resource{})
	require.NoError(t, err)
	assert.Empty(t, plan.Assignments)
	assert.Empty(t, plan.Errors)
	assert.Zero(t, plan.TotalCreated)
}

func TestPlanResolvesMixedSpecs(t *testing.T) {
	adapter := workspace.NewMockAdapter(3,
		workspace.Slot{Index: 1}, workspace.Slot{Index: 2}, workspace.Slot{Index: 3},
		workspace.Slot{Index: 4}, workspace.Slot{Index: 5},
	)
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "editor", Command: "vim", TagSpec: 1},
		{Name: "browser", Command: "firefox", TagSpec: "5"},
	})
	require.NoError(t, err)

	require.Len(t, plan.Assignments, 2)
	assert.Equal(t, "editor", plan.Assignments[0].ResourceID)
	assert.Equal(t, 4, plan.Assignments[0].ResolvedIndex)
	assert.Equal(t, model.SpecRelative, plan.Assignments[0].Kind)
	assert.Equal(t, "browser", plan.Assignments[1].ResourceID)
	assert.Equal(t, 5, plan.Assignments[1].ResolvedIndex)
	assert.Equal(t, model.SpecAbsolute, plan.Assignments[1].Kind)
	assert.Empty(t, plan.Warnings)
	assert.Empty(t, plan.Errors)
}

func TestPlanDeduplicatesCreation(t *testing.T) {
	adapter := workspace.NewMockAdapter(1, workspace.Slot{Index: 1})
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "a", Command: "a", TagSpec: "scratch"},
		{Name: "b", Command: "b", TagSpec: "scratch"},
		{Name: "c", Command: "c", TagSpec: "scratch"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"scratch"}, adapter.CreateCalls, "exactly one creation call")
	require.Len(t, plan.Creations, 1)
	assert.Equal(t, 1, plan.TotalCreated)

	require.Len(t, plan.Assignments, 3)
	created := plan.Creations[0].Slot
	for _, a := range plan.Assignments {
		assert.Equal(t, created, a.ResolvedIndex, "all requesters share the created slot")
		assert.Equal(t, "scratch", a.ResolvedName)
	}
}

func TestPlanCreationFailureFansOut(t *testing.T) {
	adapter := workspace.NewMockAdapter(1, workspace.Slot{Index: 1})
	adapter.CreateErr = errors.New("window limit reached")
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "a", Command: "a", TagSpec: "scratch"},
		{Name: "b", Command: "b", TagSpec: "scratch"},
		{Name: "ok", Command: "ok", TagSpec: 0},
	})
	require.NoError(t, err, "plan never aborts on per-resource failures")

	assert.Equal(t, []string{"scratch"}, adapter.CreateCalls, "no per-requester retry")

	require.Len(t, plan.Errors, 2)
	for _, te := range plan.Errors {
		assert.Equal(t, model.ErrTagCreationFailed, te.Type)
	}

	// Only the unaffected resource keeps an assignment.
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "ok", plan.Assignments[0].ResourceID)
}

func TestPlanParseErrorDoesNotAbortSiblings(t *testing.T) {
	adapter := workspace.NewMockAdapter(2, workspace.Slot{Index: 1}, workspace.Slot{Index: 2})
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "bad", Command: "x", TagSpec: true},
		{Name: "worse", Command: "y", TagSpec: "99"},
		{Name: "good", Command: "z", TagSpec: -1},
	})
	require.NoError(t, err)

	require.Len(t, plan.Errors, 2)
	assert.Equal(t, model.ErrTagSpecInvalid, plan.Errors[0].Type)
	assert.Equal(t, "bad", plan.Errors[0].ResourceID)
	assert.Equal(t, model.ErrTagSpecInvalid, plan.Errors[1].Type)
	assert.Equal(t, "worse", plan.Errors[1].ResourceID)

	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "good", plan.Assignments[0].ResourceID)
	assert.Equal(t, 1, plan.Assignments[0].ResolvedIndex)
}

func TestPlanFallbackWarningCarriesResource(t *testing.T) {
	adapter := workspace.NewMockAdapter(1, workspace.Slot{Index: 1})
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "mail", Command: "mutt", TagSpec: 7},
	})
	require.NoError(t, err)

	require.Len(t, plan.Warnings, 1)
	w := plan.Warnings[0]
	assert.Equal(t, model.WarnTagFallbackUsed, w.Type)
	assert.Equal(t, "mail", w.ResourceID)
	assert.Equal(t, 8, w.Target)

	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, 1, plan.Assignments[0].ResolvedIndex)
}

func TestPlanPreservesInputOrder(t *testing.T) {
	adapter := workspace.NewMockAdapter(1,
		workspace.Slot{Index: 1}, workspace.Slot{Index: 2}, workspace.Slot{Index: 3},
	)
	p := NewPlanner(adapter)

	plan, err := p.Plan([]model.Resource{
		{Name: "one", Command: "1", TagSpec: "2"},
		{Name: "two", Command: "2", TagSpec: "shared"},
		{Name: "three", Command: "3", TagSpec: 0},
		{Name: "four", Command: "4", TagSpec: "shared"},
	})
	require.NoError(t, err)

	ids := make([]string, len(plan.Assignments))
	for i, a := range plan.Assignments {
		ids[i] = a.ResourceID
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, ids)
}
