package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stager/internal/library"
	"github.com/mesh-intelligence/stager/internal/paths"
	"github.com/mesh-intelligence/stager/internal/pipeline"
	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

type harness struct {
	configDir string
	dataDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, env := range []string{"STAGER_BACKEND", "STAGER_LOG_MODE", "STAGER_MODEL", "STAGER_GENERATOR", "STAGER_DATA_DIR"} {
		t.Setenv(env, "")
	}
	h := &harness{configDir: t.TempDir(), dataDir: t.TempDir()}
	cfg := "backend: sqlite\nlog_mode: prod\ngeneration:\n  retries: 1\n  retry_delay: 0s\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"), []byte(cfg), 0o644))
	return h
}

func (h *harness) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

// runJSON runs a command in --json mode and decodes its output into v.
func (h *harness) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := h.run(append([]string{"--json"}, args...)...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// seedAsset creates a job with one scene and one asset and returns the
// job and asset IDs.
func (h *harness) seedAsset(t *testing.T) (jobID, assetID string) {
	t.Helper()
	var job types.Job
	h.runJSON(t, &job, "job", "create", "12 Elm Street")

	var scene types.Scene
	h.runJSON(t, &scene, "scene", "create", job.JobID, "Living room")

	original := filepath.Join(t.TempDir(), "IMG_0001.jpg")
	require.NoError(t, os.WriteFile(original, []byte("jpeg-bytes"), 0o644))
	var asset types.Asset
	h.runJSON(t, &asset, "asset", "add", job.JobID, original, "--scene", scene.SceneID)
	assert.Equal(t, "IMG_0001", asset.Name)
	assert.Equal(t, original, asset.OriginalPath)
	return job.JobID, asset.AssetID
}

func (h *harness) createVersion(t *testing.T, assetID string, extra ...string) types.Version {
	t.Helper()
	args := append([]string{"version", "create", assetID, "--module", "staging",
		"--prompt", "Stage the living room", "--guardrail", "Keep the walls"}, extra...)
	var v types.Version
	h.runJSON(t, &v, args...)
	return v
}

func TestInit(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "stager initialized (sqlite backend)")
	assert.DirExists(t, paths.OutputsDir(h.dataDir))
	assert.FileExists(t, filepath.Join(h.dataDir, "stager.db"))
	assert.FileExists(t, filepath.Join(h.configDir, "config.yaml"))
}

func TestInitUser(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("per-user data dir follows XDG on linux only")
	}
	h := newHarness(t)
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config-dir", h.configDir, "--json", "init", "--user"})
	require.NoError(t, root.Execute())

	var result map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, filepath.Join(xdg, paths.AppName), result["data_dir"])

	cfg, err := os.ReadFile(filepath.Join(h.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), filepath.Join(xdg, paths.AppName))
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)
	jobID, assetID := h.seedAsset(t)

	var jobs []types.Job
	h.runJSON(t, &jobs, "job", "list")
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].JobID)

	var assets []types.Asset
	h.runJSON(t, &assets, "asset", "list", jobID)
	require.Len(t, assets, 1)
	assert.NotEmpty(t, assets[0].SceneID)

	var moved types.Asset
	h.runJSON(t, &moved, "asset", "assign", assetID)
	assert.Empty(t, moved.SceneID)

	out, err := h.run("asset", "list", jobID)
	require.NoError(t, err)
	assert.Contains(t, out, "IMG_0001")

	_, err = h.run("asset", "remove", assetID)
	require.NoError(t, err)
	h.runJSON(t, &assets, "asset", "list", jobID)
	assert.Empty(t, assets)
}

func TestVersionLifecycle(t *testing.T) {
	h := newHarness(t)
	jobID, assetID := h.seedAsset(t)

	first := h.createVersion(t, assetID, "--seed", "7")
	assert.Equal(t, types.TierPreview, first.QualityTier)
	assert.Equal(t, types.GenerationPending, first.GenerationStatus)
	require.NotNil(t, first.Seed)
	assert.Equal(t, int64(7), *first.Seed)
	want := prompt.Assemble(prompt.Input{Base: "Stage the living room", Guardrails: []string{"Keep the walls"}})
	assert.Equal(t, want.Hash, first.Recipe.Settings.String(types.SettingPromptHash))

	_, err := h.run("version", "gen-status", first.VersionID, "completed")
	require.NoError(t, err)
	_, err = h.run("version", "status", first.VersionID, "preview_ready")
	require.NoError(t, err)

	var changed []types.Version
	h.runJSON(t, &changed, "version", "approve", assetID, first.VersionID)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].IsApproved())

	second := h.createVersion(t, assetID)
	h.runJSON(t, &changed, "version", "approve", assetID, second.VersionID)
	require.Len(t, changed, 2)
	assert.Equal(t, first.VersionID, changed[0].VersionID, "demotion is written first")
	assert.False(t, changed[0].IsApproved())

	_, err = h.run("version", "delete", second.VersionID)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	reason, ok := types.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ReasonDeleteLocked, reason)

	var hq types.Version
	h.runJSON(t, &hq, "version", "regen", second.VersionID, "--tier", "hq", "--model", "custom-model")
	assert.Equal(t, types.TierHQPreview, hq.QualityTier)
	assert.Equal(t, second.VersionID, hq.ParentVersionID)
	assert.Equal(t, "custom-model", hq.Model)

	var entries []library.Entry
	h.runJSON(t, &entries, "version", "list", jobID, "--approved")
	require.Len(t, entries, 1)
	assert.Equal(t, second.VersionID, entries[0].VersionID)
	assert.Equal(t, "Living room", entries[0].SceneName)

	h.runJSON(t, &entries, "version", "list", jobID, "--tier", "hq_preview")
	require.Len(t, entries, 1)
	assert.Equal(t, hq.VersionID, entries[0].VersionID)

	var stats library.Stats
	h.runJSON(t, &stats, "version", "stats", jobID)
	assert.Equal(t, 1, stats.Assets)
	assert.Equal(t, 3, stats.Versions)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 3, stats.ByModule[types.ModuleStaging])

	var deleted []string
	h.runJSON(t, &deleted, "version", "prune", assetID)
	assert.Equal(t, []string{first.VersionID}, deleted)

	var shown types.Version
	h.runJSON(t, &shown, "version", "show", second.VersionID)
	assert.Equal(t, types.StatusApproved, shown.Status)
}

func TestDuplicateAndRetry(t *testing.T) {
	h := newHarness(t)
	_, assetID := h.seedAsset(t)
	src := h.createVersion(t, assetID, "--tier", "hq_preview")

	var dup types.Version
	h.runJSON(t, &dup, "version", "duplicate", src.VersionID, "--extra", "Add plants", "--module", "relight")
	assert.Equal(t, types.TierPreview, dup.QualityTier)
	assert.Equal(t, types.ModuleRelight, dup.Module)
	assert.Equal(t, src.VersionID, dup.ParentVersionID)
	_, mismatch := prompt.Verify(dup.Recipe)
	assert.Nil(t, mismatch)

	_, err := h.run("version", "retry", src.VersionID)
	reason, ok := types.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ReasonNotFailed, reason)

	_, err = h.run("version", "gen-status", src.VersionID, "failed", "--error", "quota")
	require.NoError(t, err)
	var retried types.Version
	h.runJSON(t, &retried, "version", "retry", src.VersionID)
	assert.Equal(t, types.TierHQPreview, retried.QualityTier)
	assert.Equal(t, src.VersionID, retried.ParentVersionID)
}

func TestPromptCommands(t *testing.T) {
	h := newHarness(t)

	var res prompt.Result
	h.runJSON(t, &res, "prompt", "assemble", "--prompt", "  Stage it  ", "--option", "modern", "--option", "warm")
	want := prompt.Assemble(prompt.Input{Base: "Stage it", Options: []string{"modern", "warm"}})
	assert.Equal(t, want.FullPrompt, res.FullPrompt)
	assert.Equal(t, want.Hash, res.Hash)

	_, assetID := h.seedAsset(t)
	v := h.createVersion(t, assetID)
	out, err := h.run("prompt", "verify", v.VersionID)
	require.NoError(t, err)
	assert.Contains(t, out, "matches")
}

func TestRunWithGenerator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("generator script needs a POSIX shell")
	}
	h := newHarness(t)
	_, assetID := h.seedAsset(t)
	v := h.createVersion(t, assetID)

	gen := filepath.Join(t.TempDir(), "gen.sh")
	require.NoError(t, os.WriteFile(gen, []byte("#!/bin/sh\nprintf 'staged:'\ncat\n"), 0o755))

	var outcomes []pipeline.Outcome
	h.runJSON(t, &outcomes, "version", "run", v.VersionID, "--generator", gen)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Failed)
	data, err := os.ReadFile(outcomes[0].OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "staged:jpeg-bytes", string(data))
	assert.Equal(t, paths.OutputsDir(h.dataDir), filepath.Dir(filepath.Dir(filepath.Dir(outcomes[0].OutputPath))))

	var shown types.Version
	h.runJSON(t, &shown, "version", "show", v.VersionID)
	assert.Equal(t, types.StatusPreviewReady, shown.Status)
	assert.Equal(t, types.GenerationCompleted, shown.GenerationStatus)

	_, err = h.run("version", "run", v.VersionID)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err), "no generator configured")
}

func TestExitCodes(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing version", []string{"version", "show", "nope"}, exitUserError},
		{"unknown module", []string{"version", "create", "a1", "--module", "paint"}, exitUserError},
		{"missing asset", []string{"version", "create", "a1", "--module", "staging"}, exitUserError},
		{"wrong arg count", []string{"job", "create"}, exitUserError},
		{"unknown flag", []string{"job", "list", "--bogus"}, exitUserError},
		{"bad status", []string{"version", "status", "v1", "shiny"}, exitUserError},
		{"bad regen tier", []string{"version", "regen", "v1", "--tier", "8k"}, exitUserError},
		{"empty job name", []string{"job", "create", "   "}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(fmt.Errorf("get: %w", types.ErrNotFound)))
	assert.Equal(t, exitUserError, exitCode(&types.InvariantError{Reason: types.ReasonFinalized}))
	assert.Equal(t, exitSysError, exitCode(errors.New("disk full")))
	assert.Equal(t, exitSysError, exitCode(sysError(types.ErrNotFound)), "explicit code wins")
}

func TestDataDirLocked(t *testing.T) {
	h := newHarness(t)
	lock := flock.New(paths.LockFile(h.dataDir))
	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = lock.Unlock() })

	_, err = h.run("job", "list")
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
	assert.Contains(t, err.Error(), "in use")
}
