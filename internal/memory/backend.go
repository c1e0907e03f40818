// Package memory implements an in-memory Backend. Nothing survives Detach;
// it backs tests and throwaway sessions.
package memory

import (
	"sync"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend keeps every table in maps guarded by one lock.
type Backend struct {
	mu       sync.RWMutex
	attached bool

	jobs     *table[*types.Job]
	scenes   *table[*types.Scene]
	assets   *table[*types.Asset]
	versions *table[*types.Version]
}

// NewBackend creates an unattached in-memory backend.
func NewBackend() *Backend {
	b := &Backend{}
	b.jobs = newTable(b, types.TableJobs, cloneJob)
	b.scenes = newTable(b, types.TableScenes, cloneScene)
	b.assets = newTable(b, types.TableAssets, (*types.Asset).Clone)
	b.versions = newTable(b, types.TableVersions, (*types.Version).Clone)
	return b
}

// Attach validates config and starts with empty tables.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	b.jobs.reset()
	b.scenes.reset()
	b.assets.reset()
	b.versions.reset()
	b.attached = true
	return nil
}

// Detach drops all data. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = false
	return nil
}

func (b *Backend) Jobs() types.Store[*types.Job] { return b.jobs }
func (b *Backend) Scenes() types.Store[*types.Scene] { return b.scenes }
func (b *Backend) Assets() types.Store[*types.Asset] { return b.assets }
func (b *Backend) Versions() types.Store[*types.Version] { return b.versions }

func cloneJob(j *types.Job) *types.Job {
	cp := *j
	return &cp
}

func cloneScene(s *types.Scene) *types.Scene {
	cp := *s
	return &cp
}
