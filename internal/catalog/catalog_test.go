package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stager/internal/memory"
	"github.com/mesh-intelligence/stager/pkg/types"
)

func setup(t *testing.T) (*Catalog, *memory.Backend) {
	t.Helper()
	b := memory.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { _ = b.Detach() })
	return New(b, nil), b
}

func TestJobs(t *testing.T) {
	c, _ := setup(t)

	_, err := c.CreateJob("   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	j1, err := c.CreateJob(" 12 Oak Street ")
	require.NoError(t, err)
	assert.Equal(t, "12 Oak Street", j1.Name)
	j2, err := c.CreateJob("Harbor Loft")
	require.NoError(t, err)

	jobs, err := c.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, j1.JobID, jobs[0].JobID)
	assert.Equal(t, j2.JobID, jobs[1].JobID)

	_, err = c.GetJob("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestScenes(t *testing.T) {
	c, _ := setup(t)
	job, err := c.CreateJob("job")
	require.NoError(t, err)

	_, err = c.CreateScene("missing", "Kitchen")
	assert.ErrorIs(t, err, types.ErrNotFound)

	s, err := c.CreateScene(job.JobID, "Kitchen")
	require.NoError(t, err)
	assert.Equal(t, job.JobID, s.JobID)

	scenes, err := c.ListScenes(job.JobID)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "Kitchen", scenes[0].Name)

	empty, err := c.ListScenes("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAssets(t *testing.T) {
	c, _ := setup(t)
	job, err := c.CreateJob("job")
	require.NoError(t, err)
	other, err := c.CreateJob("other")
	require.NoError(t, err)
	kitchen, err := c.CreateScene(job.JobID, "Kitchen")
	require.NoError(t, err)
	foreign, err := c.CreateScene(other.JobID, "Garage")
	require.NoError(t, err)

	a, err := c.AddAsset(NewAsset{JobID: job.JobID, SceneID: kitchen.SceneID, Name: "IMG_001", OriginalPath: "/in/001.jpg"})
	require.NoError(t, err)
	assert.Equal(t, kitchen.SceneID, a.SceneID)
	assert.NotNil(t, a.VersionIDs)

	_, err = c.AddAsset(NewAsset{JobID: job.JobID, SceneID: foreign.SceneID, Name: "IMG_002"})
	assert.ErrorIs(t, err, ErrSceneMismatch)
	_, err = c.AddAsset(NewAsset{JobID: "missing", Name: "IMG_003"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	moved, err := c.AssignScene(a.AssetID, "")
	require.NoError(t, err)
	assert.Empty(t, moved.SceneID)

	_, err = c.AssignScene(a.AssetID, foreign.SceneID)
	assert.ErrorIs(t, err, ErrSceneMismatch)

	assets, err := c.ListAssets(job.JobID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Empty(t, assets[0].SceneID)
}

func TestRemoveAssetKeepsVersions(t *testing.T) {
	c, b := setup(t)
	job, err := c.CreateJob("job")
	require.NoError(t, err)
	a, err := c.AddAsset(NewAsset{JobID: job.JobID, Name: "IMG_001"})
	require.NoError(t, err)

	v := &types.Version{VersionID: "v1", AssetID: a.AssetID, JobID: job.JobID}
	require.NoError(t, b.Versions().Put(v.Key(), v))

	require.NoError(t, c.RemoveAsset(a.AssetID))
	_, err = c.GetAsset(a.AssetID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	kept, err := b.Versions().Get("v1")
	require.NoError(t, err)
	assert.Equal(t, a.AssetID, kept.AssetID)

	assert.ErrorIs(t, c.RemoveAsset(a.AssetID), types.ErrNotFound)
}
