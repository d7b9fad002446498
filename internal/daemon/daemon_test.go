package daemon

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/spawn"
	"github.com/ykomatsu/troupe/internal/uds"
	"github.com/ykomatsu/troupe/internal/workspace"
	atomicyaml "github.com/ykomatsu/troupe/internal/yaml"
)

type fakeExecutor struct {
	commands []string
}

func (f *fakeExecutor) Spawn(command string, slot model.ResolvedSlot, props spawn.Properties) (int, string, error) {
	f.commands = append(f.commands, command)
	return 1000 + len(f.commands), "troupe:" + slot.Name, nil
}

func testDaemon(t *testing.T) (*Daemon, *workspace.MockAdapter, *fakeExecutor, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"logs", "state", "locks"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
	}

	var logBuf bytes.Buffer
	d, err := newDaemon(dir, model.DefaultConfig("demo"), &logBuf, nil)
	require.NoError(t, err)

	env := workspace.NewMockAdapter(1, workspace.Slot{Index: 1, Name: "main"})
	exec := &fakeExecutor{}
	d.SetEnvFactory(func(string) (workspace.Adapter, error) { return env, nil })
	d.SetExecFactory(func() spawn.Executor { return exec })
	return d, env, exec, &logBuf
}

func spawnRequest(t *testing.T, req model.SpawnRequest) *uds.Request {
	t.Helper()
	r, err := uds.NewRequest("spawn", req)
	require.NoError(t, err)
	return r
}

func TestHandlePing(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	resp := d.handlePing(&uds.Request{ProtocolVersion: uds.ProtocolVersion, Command: "ping"})
	require.True(t, resp.Success)

	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, true, data["pong"])
}

func TestHandleSpawnSuccess(t *testing.T) {
	d, env, exec, _ := testDaemon(t)

	resp := d.handleSpawn(spawnRequest(t, model.SpawnRequest{
		ProjectName: "demo",
		Resources: []model.Resource{
			{Name: "editor", Command: "nvim", TagSpec: 1},
			{Name: "logs", Command: "tail -f app.log", TagSpec: "monitor"},
		},
	}))
	require.True(t, resp.Success)

	var outcome spawnOutcome
	require.NoError(t, json.Unmarshal(resp.Data, &outcome))
	assert.True(t, outcome.OK)
	assert.Equal(t, 2, outcome.Response.TotalSpawned)
	assert.Len(t, exec.commands, 2)
	assert.Equal(t, []string{"monitor"}, env.CreateCalls)
}

func TestHandleSpawnPersistsLastRun(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	resp := d.handleSpawn(spawnRequest(t, model.SpawnRequest{
		ProjectName: "demo",
		Resources:   []model.Resource{{Name: "editor", Command: "nvim", TagSpec: 0}},
	}))
	require.True(t, resp.Success)

	var saved spawnOutcome
	require.NoError(t, atomicyaml.Load(filepath.Join(d.troupeDir, "state", "last_run.yaml"), &saved))
	assert.True(t, saved.OK)
	assert.Equal(t, "demo", saved.Response.ProjectName)
	assert.Equal(t, 1, saved.Response.TotalSpawned)
}

func TestHandleSpawnDryRunSkipsPersistence(t *testing.T) {
	d, env, exec, _ := testDaemon(t)

	resp := d.handleSpawn(spawnRequest(t, model.SpawnRequest{
		ProjectName: "demo",
		DryRun:      true,
		Resources:   []model.Resource{{Name: "worker", Command: "make run", TagSpec: "jobs"}},
	}))
	require.True(t, resp.Success)

	var outcome spawnOutcome
	require.NoError(t, json.Unmarshal(resp.Data, &outcome))
	assert.True(t, outcome.OK)
	assert.True(t, outcome.DryRun)

	// The dry run must not touch the real adapters or the state file.
	assert.Empty(t, env.CreateCalls)
	assert.Empty(t, exec.commands)
	_, err := os.Stat(filepath.Join(d.troupeDir, "state", "last_run.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleSpawnRejectsMissingProject(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	resp := d.handleSpawn(spawnRequest(t, model.SpawnRequest{
		Resources: []model.Resource{{Name: "editor", Command: "nvim", TagSpec: 0}},
	}))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestHandleSpawnRejectsNilResources(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	resp := d.handleSpawn(spawnRequest(t, model.SpawnRequest{ProjectName: "demo"}))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, string(model.ErrCriticalTagMapper))
}

func TestHandleSpawnMalformedParams(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	resp := d.handleSpawn(&uds.Request{
		ProtocolVersion: uds.ProtocolVersion,
		Command:         "spawn",
		Params:          []byte(`{"project_name": 42}`),
	})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestHandleStatus(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	// Seed a last run so status can report it.
	first := d.handleSpawn(spawnRequest(t, model.SpawnRequest{
		ProjectName: "demo",
		Resources:   []model.Resource{{Name: "editor", Command: "nvim", TagSpec: 0}},
	}))
	require.True(t, first.Success)

	resp := d.handleStatus(&uds.Request{ProtocolVersion: uds.ProtocolVersion, Command: "status"})
	require.True(t, resp.Success)

	var payload statusPayload
	require.NoError(t, json.Unmarshal(resp.Data, &payload))
	assert.Equal(t, "demo", payload.Project)
	assert.Equal(t, "troupe", payload.Session)
	require.NotNil(t, payload.LastRun)
	assert.Equal(t, 1, payload.LastRun.Response.TotalSpawned)
	require.Len(t, payload.Slots, 1)
	assert.Equal(t, "main", payload.Slots[0].Name)
}

func TestReloadConfig(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	cfg := model.DefaultConfig("demo")
	cfg.Logging.Level = "debug"
	cfg.Session.Name = "stage"
	path := filepath.Join(d.troupeDir, "config.yaml")
	require.NoError(t, atomicyaml.AtomicWrite(path, cfg))

	d.reloadConfig(path)

	got := d.getConfig()
	assert.Equal(t, "stage", got.Session.Name)
	assert.Equal(t, LogLevelDebug, d.logLevel)
}

func TestReloadConfigKeepsOldOnError(t *testing.T) {
	d, _, _, _ := testDaemon(t)

	path := filepath.Join(d.troupeDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml"), 0644))

	d.reloadConfig(path)

	assert.Equal(t, "troupe", d.getConfig().Session.Name)
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"":        LogLevelInfo,
		"bogus":   LogLevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestLogLevelGate(t *testing.T) {
	d, _, _, logBuf := testDaemon(t)

	d.log(LogLevelDebug, "hidden message")
	assert.NotContains(t, logBuf.String(), "hidden message")

	d.log(LogLevelWarn, "visible message")
	assert.Contains(t, logBuf.String(), "visible message")
}
