// Package catalog keeps the job, scene and asset records that versions hang
// off. It never creates or deletes versions.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// Catalog errors.
var (
	ErrNameRequired  = errors.New("name is required")
	ErrSceneMismatch = errors.New("scene belongs to a different job")
)

// Catalog manages jobs, scenes and assets on a Backend.
type Catalog struct {
	jobs   types.Store[*types.Job]
	scenes types.Store[*types.Scene]
	assets types.Store[*types.Asset]
	log    *logger.Logger
	now    func() time.Time
}

// New creates a Catalog over the backend's stores.
func New(b types.Backend, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{
		jobs:   b.Jobs(),
		scenes: b.Scenes(),
		assets: b.Assets(),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob stores a new job.
func (c *Catalog) CreateJob(name string) (*types.Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	j := &types.Job{JobID: types.NewID(), Name: name, CreatedAt: c.now()}
	if err := c.jobs.Put(j.Key(), j); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	c.log.Debug("job created", "job_id", j.JobID, "name", j.Name)
	return j, nil
}

// GetJob returns one job.
func (c *Catalog) GetJob(jobID string) (*types.Job, error) {
	j, err := c.jobs.Get(jobID)
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", jobID, err)
	}
	return j, nil
}

// ListJobs returns every job in creation order.
func (c *Catalog) ListJobs() ([]*types.Job, error) {
	jobs, err := c.jobs.ListByParent("")
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// CreateScene stores a new scene under an existing job.
func (c *Catalog) CreateScene(jobID, name string) (*types.Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := c.GetJob(jobID); err != nil {
		return nil, err
	}
	s := &types.Scene{SceneID: types.NewID(), JobID: jobID, Name: name, CreatedAt: c.now()}
	if err := c.scenes.Put(s.Key(), s); err != nil {
		return nil, fmt.Errorf("creating scene: %w", err)
	}
	c.log.Debug("scene created", "scene_id", s.SceneID, "job_id", jobID)
	return s, nil
}

// ListScenes returns the scenes of a job in creation order.
func (c *Catalog) ListScenes(jobID string) ([]*types.Scene, error) {
	scenes, err := c.scenes.ListByParent(jobID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes of job %s: %w", jobID, err)
	}
	return scenes, nil
}

// NewAsset describes an imported source image.
type NewAsset struct {
	JobID        string
	SceneID      string
	Name         string
	OriginalPath string
}

// AddAsset stores a new asset under an existing job, optionally in a scene
// of the same job.
func (c *Catalog) AddAsset(req NewAsset) (*types.Asset, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := c.GetJob(req.JobID); err != nil {
		return nil, err
	}
	if req.SceneID != "" {
		if err := c.checkScene(req.JobID, req.SceneID); err != nil {
			return nil, err
		}
	}
	now := c.now()
	a := &types.Asset{
		AssetID:      types.NewID(),
		JobID:        req.JobID,
		SceneID:      req.SceneID,
		Name:         name,
		OriginalPath: req.OriginalPath,
		VersionIDs:   []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.assets.Put(a.Key(), a); err != nil {
		return nil, fmt.Errorf("adding asset: %w", err)
	}
	c.log.Debug("asset added", "asset_id", a.AssetID, "job_id", a.JobID, "scene_id", a.SceneID)
	return a, nil
}

// GetAsset returns one asset.
func (c *Catalog) GetAsset(assetID string) (*types.Asset, error) {
	a, err := c.assets.Get(assetID)
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", assetID, err)
	}
	return a, nil
}

// ListAssets returns the assets of a job in creation order.
func (c *Catalog) ListAssets(jobID string) ([]*types.Asset, error) {
	assets, err := c.assets.ListByParent(jobID)
	if err != nil {
		return nil, fmt.Errorf("listing assets of job %s: %w", jobID, err)
	}
	return assets, nil
}

// AssignScene moves an asset into a scene of its job. An empty sceneID
// removes it from any scene. Versions are unaffected.
func (c *Catalog) AssignScene(assetID, sceneID string) (*types.Asset, error) {
	a, err := c.GetAsset(assetID)
	if err != nil {
		return nil, err
	}
	if sceneID != "" {
		if err := c.checkScene(a.JobID, sceneID); err != nil {
			return nil, err
		}
	}
	a.AssignScene(sceneID, c.now())
	if err := c.assets.Put(a.Key(), a); err != nil {
		return nil, fmt.Errorf("assigning scene: %w", err)
	}
	return a, nil
}

// RemoveAsset deletes the asset record. Its versions stay in the store as
// audit records and keep their asset and job IDs.
func (c *Catalog) RemoveAsset(assetID string) error {
	a, err := c.GetAsset(assetID)
	if err != nil {
		return err
	}
	if err := c.assets.Delete(assetID); err != nil {
		return fmt.Errorf("removing asset %s: %w", assetID, err)
	}
	c.log.Info("asset removed", "asset_id", assetID, "versions_kept", len(a.VersionIDs))
	return nil
}

func (c *Catalog) checkScene(jobID, sceneID string) error {
	s, err := c.scenes.Get(sceneID)
	if err != nil {
		return fmt.Errorf("getting scene %s: %w", sceneID, err)
	}
	if s.JobID != jobID {
		return fmt.Errorf("%w: scene %s is in job %s", ErrSceneMismatch, sceneID, s.JobID)
	}
	return nil
}
