package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssetAttachVersion(t *testing.T) {
	a := &Asset{AssetID: "a1", UpdatedAt: t0}
	later := t0.Add(time.Minute)

	assert.True(t, a.AttachVersion("v1", later))
	assert.True(t, a.AttachVersion("v2", later))
	assert.False(t, a.AttachVersion("v1", later.Add(time.Minute)), "attach is append-if-absent")
	assert.Equal(t, []string{"v1", "v2"}, a.VersionIDs)
	assert.Equal(t, later, a.UpdatedAt)
}

func TestAssetDetachVersion(t *testing.T) {
	a := &Asset{AssetID: "a1", VersionIDs: []string{"v1", "v2", "v3"}}

	assert.True(t, a.DetachVersion("v2", t0))
	assert.False(t, a.DetachVersion("v2", t0))
	assert.Equal(t, []string{"v1", "v3"}, a.VersionIDs)
}

func TestAssetAssignScene(t *testing.T) {
	a := &Asset{AssetID: "a1", SceneID: "s1"}
	a.AssignScene("s2", t0)
	assert.Equal(t, "s2", a.SceneID)
	a.AssignScene("", t0)
	assert.Empty(t, a.SceneID)
}

func TestEntityKeys(t *testing.T) {
	assert.Equal(t, Key{ID: "j1"}, (&Job{JobID: "j1"}).Key())
	assert.Equal(t, Key{Parent: "j1", ID: "s1"}, (&Scene{JobID: "j1", SceneID: "s1"}).Key())
	assert.Equal(t, Key{Parent: "j1", ID: "a1"}, (&Asset{JobID: "j1", AssetID: "a1"}).Key())
	assert.Equal(t, Key{Parent: "a1", ID: "v1"}, (&Version{AssetID: "a1", VersionID: "v1"}).Key())
}

func TestParseEnums(t *testing.T) {
	m, ok := ParseModule(" Cleanup ")
	assert.True(t, ok)
	assert.Equal(t, ModuleCleanup, m)

	_, ok = ParseModule("sky_replace")
	assert.False(t, ok)

	tier, ok := ParseQualityTier("NATIVE_4K")
	assert.True(t, ok)
	assert.Equal(t, TierNative4K, tier)
	assert.Equal(t, "4K", tier.ImageSize())
	assert.Equal(t, "1K", TierPreview.ImageSize())

	s, ok := ParseStatus("final_ready")
	assert.True(t, ok)
	assert.Equal(t, StatusFinalReady, s)

	g, ok := ParseGenerationStatus("Failed")
	assert.True(t, ok)
	assert.Equal(t, GenerationFailed, g)
}
