// Package library is the read side over version records: a filtered,
// denormalized view of a job's versions and the views and counts built on
// top of it. It never writes.
package library

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// Filter narrows a query. Zero-valued fields do not filter; set fields are
// AND-combined.
type Filter struct {
	Module       types.Module
	Statuses     []types.Status
	SceneID      string
	AssetID      string
	QualityTier  types.QualityTier
	ApprovedOnly bool
	FinalOnly    bool
}

// Entry is a version enriched with the names of its asset and scene.
type Entry struct {
	*types.Version
	SceneID   string `json:"scene_id,omitempty"`
	AssetName string `json:"asset_name"`
	SceneName string `json:"scene_name"`
}

// Library answers queries against the asset, scene and version stores.
type Library struct {
	assets   types.Store[*types.Asset]
	scenes   types.Store[*types.Scene]
	versions types.Store[*types.Version]
}

// New creates a Library over the backend's stores.
func New(b types.Backend) *Library {
	return &Library{assets: b.Assets(), scenes: b.Scenes(), versions: b.Versions()}
}

// Query returns the versions of a job that match f, newest first. Versions
// created at the same instant keep their store order. An unknown job
// yields an empty list.
func (l *Library) Query(jobID string, f Filter) ([]Entry, error) {
	assets, err := l.assets.ListByParent(jobID)
	if err != nil {
		return nil, fmt.Errorf("listing assets of job %s: %w", jobID, err)
	}
	scenes, err := l.scenes.ListByParent(jobID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes of job %s: %w", jobID, err)
	}
	sceneNames := make(map[string]string, len(scenes))
	for _, s := range scenes {
		sceneNames[s.SceneID] = s.Name
	}

	out := []Entry{}
	for _, a := range assets {
		if f.AssetID != "" && a.AssetID != f.AssetID {
			continue
		}
		if f.SceneID != "" && a.SceneID != f.SceneID {
			continue
		}
		vs, err := l.versions.ListByParent(a.AssetID)
		if err != nil {
			return nil, fmt.Errorf("listing versions of asset %s: %w", a.AssetID, err)
		}
		for _, v := range vs {
			if !f.matches(v) {
				continue
			}
			out = append(out, Entry{
				Version:   v,
				SceneID:   a.SceneID,
				AssetName: a.Name,
				SceneName: sceneNames[a.SceneID],
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (f Filter) matches(v *types.Version) bool {
	if f.Module != "" && v.Module != f.Module {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, v.Status) {
		return false
	}
	if f.QualityTier != "" && v.QualityTier != f.QualityTier {
		return false
	}
	if f.ApprovedOnly && !IsChainable(v) {
		return false
	}
	if f.FinalOnly && v.Status != types.StatusFinalReady {
		return false
	}
	return true
}

// IsChainable reports whether a version's output may feed another module:
// its status is approved or final_ready.
func IsChainable(v *types.Version) bool {
	return v.Status == types.StatusApproved || v.Status == types.StatusFinalReady
}

// ChainableVersions lists the versions of a job whose outputs may feed a
// later module.
func (l *Library) ChainableVersions(jobID string) ([]Entry, error) {
	return l.Query(jobID, Filter{ApprovedOnly: true})
}

// CleanupOutputsForStaging lists chainable cleanup versions, optionally
// limited to one scene.
func (l *Library) CleanupOutputsForStaging(jobID, sceneID string) ([]Entry, error) {
	return l.Query(jobID, Filter{Module: types.ModuleCleanup, SceneID: sceneID, ApprovedOnly: true})
}
