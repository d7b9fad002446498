package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/workspace"
)

func TestServiceRunEndToEnd(t *testing.T) {
	// current_index=3, slots 1..5; editor offset +1 -> 4, browser "5" -> 5.
	adapter := workspace.NewMockAdapter(3,
		workspace.Slot{Index: 1}, workspace.Slot{Index: 2}, workspace.Slot{Index: 3},
		workspace.Slot{Index: 4}, workspace.Slot{Index: 5},
	)
	exec := &fakeExecutor{}
	svc := NewService(adapter, exec, model.SpawnConfig{})

	ok, resp, err := svc.Run(model.SpawnRequest{
		ProjectName: "demo",
		Resources: []model.Resource{
			{Name: "editor", Command: "vim", TagSpec: 1},
			{Name: "browser", Command: "firefox", TagSpec: "5"},
		},
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2, resp.TotalSpawned)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, 4, exec.calls[0].slot.Index)
	assert.Equal(t, 5, exec.calls[1].slot.Index)
	assert.Nil(t, resp.Warnings)
}

func TestServiceRunSharedNamedSlot(t *testing.T) {
	adapter := workspace.NewMockAdapter(1, workspace.Slot{Index: 1})
	exec := &fakeExecutor{}
	svc := NewService(adapter, exec, model.SpawnConfig{})

	ok, resp, err := svc.Run(model.SpawnRequest{
		ProjectName: "demo",
		Resources: []model.Resource{
			{Name: "repl", Command: "python", TagSpec: "dev"},
			{Name: "logs", Command: "tail -f app.log", TagSpec: "dev"},
		},
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"dev"}, adapter.CreateCalls)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, exec.calls[0].slot.Index, exec.calls[1].slot.Index)
	assert.True(t, exec.calls[0].slot.Created)
	require.NotNil(t, resp.TagOperations)
	assert.Equal(t, 1, resp.TagOperations.TotalCreated)
}

func TestServiceRunRejectsEmptyProjectName(t *testing.T) {
	svc := NewService(workspace.NewMockAdapter(1), &fakeExecutor{}, model.SpawnConfig{})
	_, _, err := svc.Run(model.SpawnRequest{Resources: []model.Resource{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(model.ErrCriticalTagMapper))
}

func TestServiceRunRejectsNilResources(t *testing.T) {
	svc := NewService(workspace.NewMockAdapter(1), &fakeExecutor{}, model.SpawnConfig{})
	_, _, err := svc.Run(model.SpawnRequest{ProjectName: "demo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(model.ErrCriticalTagMapper))
}

func TestServiceRunEveryResourceAccountedFor(t *testing.T) {
	adapter := workspace.NewMockAdapter(2, workspace.Slot{Index: 1}, workspace.Slot{Index: 2})
	exec := &fakeExecutor{}
	svc := NewService(adapter, exec, model.SpawnConfig{})

	ok, resp, err := svc.Run(model.SpawnRequest{
		ProjectName: "demo",
		Resources: []model.Resource{
			{Name: "good", Command: "a", TagSpec: 0},
			{Name: "badspec", Command: "b", TagSpec: map[string]any{}},
			{Name: "far", Command: "c", TagSpec: 9},
		},
	})
	require.NoError(t, err)
	require.True(t, ok)

	// good and far spawn (far via fallback warning), badspec is a warning.
	assert.Equal(t, 2, resp.TotalSpawned)
	require.NotNil(t, resp.Warnings)
	assert.Len(t, resp.Warnings.TagErrors, 1)
	require.NotNil(t, resp.TagOperations)
	assert.Len(t, resp.TagOperations.Warnings, 1)

	seen := map[string]bool{}
	for _, sr := range resp.SpawnedResources {
		seen[sr.Name] = true
	}
	for _, pe := range resp.Warnings.TagErrors {
		seen[pe.ResourceID] = true
	}
	assert.Equal(t, map[string]bool{"good": true, "badspec": true, "far": true}, seen,
		"every input resource appears exactly once in the output")
}
