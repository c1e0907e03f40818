package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/internal/memory"
	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	backend *memory.Backend
	ledger  *Ledger
	logs    *observer.ObservedLogs
	asset   *types.Asset
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	b := memory.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { _ = b.Detach() })

	asset := &types.Asset{AssetID: "asset-a", JobID: "job-1", Name: "Kitchen", CreatedAt: t0}
	require.NoError(t, b.Assets().Put(asset.Key(), asset))

	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{
		WithClock(tickingClock()),
		WithLogger(logger.FromZap(zap.New(core))),
	}, opts...)
	return &fixture{
		backend: b,
		ledger:  New(b.Versions(), b.Assets(), opts...),
		logs:    logs,
		asset:   asset,
	}
}

func (f *fixture) create(t *testing.T, module types.Module, tier types.QualityTier) *types.Version {
	t.Helper()
	v, err := f.ledger.CreateVersion(NewVersion{
		AssetID:     f.asset.AssetID,
		Module:      module,
		QualityTier: tier,
		Recipe:      types.Recipe{BasePrompt: "Clean the room"},
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) stored(t *testing.T, id string) *types.Version {
	t.Helper()
	v, err := f.backend.Versions().Get(id)
	require.NoError(t, err)
	return v
}

func TestCreateVersion(t *testing.T) {
	f := newFixture(t)
	seed := int64(42)

	v, err := f.ledger.CreateVersion(NewVersion{
		AssetID:          f.asset.AssetID,
		Module:           types.ModuleCleanup,
		QualityTier:      types.TierPreview,
		Recipe:           types.Recipe{BasePrompt: "Clean"},
		SourceVersionIDs: []string{"upstream"},
		Seed:             &seed,
		Model:            "m1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.VersionID)
	assert.Equal(t, "job-1", v.JobID)
	assert.Equal(t, types.StatusGenerating, v.Status)
	assert.Equal(t, types.GenerationPending, v.GenerationStatus)
	assert.Equal(t, types.LifecycleDraft, v.LifecycleStatus)
	require.NotNil(t, v.StartedAt)
	assert.Equal(t, v.CreatedAt, *v.StartedAt)
	assert.Equal(t, []string{"upstream"}, v.SourceVersionIDs)
	require.NotNil(t, v.Seed)
	assert.Equal(t, int64(42), *v.Seed)

	seed = 7
	assert.Equal(t, int64(42), *f.stored(t, v.VersionID).Seed, "seed is copied")

	asset, err := f.backend.Assets().Get(f.asset.AssetID)
	require.NoError(t, err)
	assert.Equal(t, []string{v.VersionID}, asset.VersionIDs)
}

func TestCreateVersionIndependentVersions(t *testing.T) {
	f := newFixture(t)
	v1 := f.create(t, types.ModuleCleanup, types.TierPreview)
	v2 := f.create(t, types.ModuleCleanup, types.TierPreview)

	assert.NotEqual(t, v1.VersionID, v2.VersionID)
	asset, err := f.backend.Assets().Get(f.asset.AssetID)
	require.NoError(t, err)
	assert.Equal(t, []string{v1.VersionID, v2.VersionID}, asset.VersionIDs)
}

func TestCreateVersionRejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  NewVersion
		want error
	}{
		{"unknown asset", NewVersion{AssetID: "nope", Module: types.ModuleCleanup, QualityTier: types.TierPreview}, types.ErrNotFound},
		{"bad module", NewVersion{AssetID: "asset-a", Module: "painting", QualityTier: types.TierPreview}, types.ErrInvalidModule},
		{"bad tier", NewVersion{AssetID: "asset-a", Module: types.ModuleCleanup, QualityTier: "8k"}, types.ErrInvalidTier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateVersion(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetGenerationStatus(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, types.ModuleStaging, types.TierPreview)

	got, err := f.ledger.SetGenerationStatus(v.VersionID, types.GenerationFailed, "quota exceeded")
	require.NoError(t, err)
	assert.Equal(t, types.GenerationFailed, got.GenerationStatus)
	assert.Equal(t, "quota exceeded", got.GenerationError)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, types.LifecycleDraft, got.LifecycleStatus)

	_, err = f.ledger.SetGenerationStatus(v.VersionID, types.GenerationPending, "")
	reason, ok := types.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ReasonGenerationClosed, reason)

	_, err = f.ledger.SetGenerationStatus("missing", types.GenerationCompleted, "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSetStatusAndOutput(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, types.ModuleCleanup, types.TierPreview)

	got, err := f.ledger.SetStatus(v.VersionID, types.StatusFinalReady, "")
	require.NoError(t, err)
	assert.NotNil(t, got.FinalGeneratedAt)

	_, err = f.ledger.SetStatus(v.VersionID, "bogus", "")
	assert.ErrorIs(t, err, types.ErrInvalidStatus)

	got, err = f.ledger.SetOutput(v.VersionID, "/out/a.png", "/out/a_thumb.png")
	require.NoError(t, err)
	assert.Equal(t, "/out/a.png", got.OutputPath)
	assert.Equal(t, types.StatusFinalReady, got.Status, "output leaves status alone")

	got, err = f.ledger.SetOutput(v.VersionID, "/out/b.png", "")
	require.NoError(t, err)
	assert.Equal(t, "/out/a_thumb.png", got.ThumbnailPath)
}

// failingStore wraps a store and fails writes with a fixed error.
type failingStore struct {
	types.Store[*types.Version]
	err error
}

func (s failingStore) Put(types.Key, *types.Version) error { return s.err }

func TestStoreErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, types.ModuleCleanup, types.TierPreview)

	ioErr := errors.New("disk full")
	l := New(failingStore{Store: f.backend.Versions(), err: ioErr}, f.backend.Assets())

	_, err := l.SetStatus(v.VersionID, types.StatusPreviewReady, "")
	assert.ErrorIs(t, err, ioErr)
	assert.NotErrorIs(t, err, types.ErrNotFound)
	_, isInvariant := types.ReasonOf(err)
	assert.False(t, isInvariant)

	_, err = l.Approve(f.asset.AssetID, v.VersionID)
	assert.ErrorIs(t, err, ioErr)
}

func TestPreparePrompt(t *testing.T) {
	f := newFixture(t)
	recipe := types.Recipe{}
	stamped := prompt.Stamp(&recipe, prompt.Input{Base: "BASE", Options: []string{"OPT"}})

	v, err := f.ledger.CreateVersion(NewVersion{
		AssetID: f.asset.AssetID, Module: types.ModuleStaging, QualityTier: types.TierPreview, Recipe: recipe,
	})
	require.NoError(t, err)

	got, err := f.ledger.PreparePrompt(v.VersionID)
	require.NoError(t, err)
	assert.Nil(t, got.Mismatch)
	assert.Equal(t, stamped, got.Prompt)

	// Tamper with the stored components so the stored hash goes stale.
	stored := f.stored(t, v.VersionID)
	stored.Recipe.BasePrompt = "EDITED"
	require.NoError(t, f.backend.Versions().Put(stored.Key(), stored))

	got, err = f.ledger.PreparePrompt(v.VersionID)
	require.NoError(t, err)
	require.NotNil(t, got.Mismatch)
	assert.Equal(t, stamped.Hash, got.Mismatch.StoredHash)
	assert.Equal(t, "EDITED\n\nOPT", got.Prompt.FullPrompt)
	assert.Equal(t, stamped.Hash, f.stored(t, v.VersionID).Recipe.Settings.String(types.SettingPromptHash),
		"stored recipe is not rewritten")

	warnings := f.logs.FilterMessage("prompt integrity mismatch").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, v.VersionID, warnings[0].ContextMap()["version_id"])

	_, err = f.ledger.PreparePrompt("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
