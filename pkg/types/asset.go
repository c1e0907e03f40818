package types

import (
	"slices"
	"time"
)

// Asset identifies a source image within a job. It lists the versions
// generated from it; versions outlive scene reassignment and asset removal.
type Asset struct {
	AssetID      string    `json:"asset_id"`
	JobID        string    `json:"job_id"`
	SceneID      string    `json:"scene_id,omitempty"`
	Name         string    `json:"name"`
	OriginalPath string    `json:"original_path"`
	VersionIDs   []string  `json:"version_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the store key of the asset; assets are owned by jobs.
func (a *Asset) Key() Key {
	return Key{Parent: a.JobID, ID: a.AssetID}
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	cp := *a
	cp.VersionIDs = cloneStrings(a.VersionIDs)
	return &cp
}

// AttachVersion appends versionID if it is not already listed.
// Reports whether the list changed.
func (a *Asset) AttachVersion(versionID string, now time.Time) bool {
	if slices.Contains(a.VersionIDs, versionID) {
		return false
	}
	a.VersionIDs = append(a.VersionIDs, versionID)
	a.UpdatedAt = now
	return true
}

// DetachVersion removes versionID from the list. Reports whether the list
// changed.
func (a *Asset) DetachVersion(versionID string, now time.Time) bool {
	i := slices.Index(a.VersionIDs, versionID)
	if i < 0 {
		return false
	}
	a.VersionIDs = slices.Delete(a.VersionIDs, i, i+1)
	a.UpdatedAt = now
	return true
}

// AssignScene moves the asset to sceneID; an empty ID removes it from its
// scene.
func (a *Asset) AssignScene(sceneID string, now time.Time) {
	a.SceneID = sceneID
	a.UpdatedAt = now
}
