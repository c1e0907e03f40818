package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// Ledger applies version lifecycle operations against a version store and
// an asset store.
type Ledger struct {
	versions types.Store[*types.Version]
	assets   types.Store[*types.Asset]
	models   types.ModelConfig
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(lg *Ledger) {
		if now != nil {
			lg.now = now
		}
	}
}

// WithModels sets the model routing used by regenerations.
func WithModels(m types.ModelConfig) Option {
	return func(lg *Ledger) {
		lg.models = m
	}
}

// New creates a Ledger over the given stores.
func New(versions types.Store[*types.Version], assets types.Store[*types.Asset], opts ...Option) *Ledger {
	l := &Ledger{
		versions: versions,
		assets:   assets,
		log:      logger.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewVersion describes a version to create.
type NewVersion struct {
	AssetID          string
	Module           types.Module
	QualityTier      types.QualityTier
	Recipe           types.Recipe
	SourceVersionIDs []string
	ParentVersionID  string
	Seed             *int64
	Model            string
}

// CreateVersion persists a new pending version and links it into its
// asset's version list. Each call creates an independent version.
// Returns ErrNotFound if the asset does not exist.
func (l *Ledger) CreateVersion(req NewVersion) (*types.Version, error) {
	if _, ok := types.ParseModule(string(req.Module)); !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidModule, req.Module)
	}
	if _, ok := types.ParseQualityTier(string(req.QualityTier)); !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidTier, req.QualityTier)
	}
	asset, err := l.assets.Get(req.AssetID)
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", req.AssetID, err)
	}

	now := l.now()
	started := now
	sources := make([]string, len(req.SourceVersionIDs))
	copy(sources, req.SourceVersionIDs)
	var seed *int64
	if req.Seed != nil {
		s := *req.Seed
		seed = &s
	}

	v := &types.Version{
		VersionID:        types.NewID(),
		AssetID:          asset.AssetID,
		JobID:            asset.JobID,
		Module:           req.Module,
		QualityTier:      req.QualityTier,
		Status:           types.StatusGenerating,
		GenerationStatus: types.GenerationPending,
		LifecycleStatus:  types.LifecycleDraft,
		Recipe:           req.Recipe.Clone(),
		SourceVersionIDs: sources,
		ParentVersionID:  req.ParentVersionID,
		Seed:             seed,
		Model:            req.Model,
		CreatedAt:        now,
		UpdatedAt:        now,
		StartedAt:        &started,
	}
	if err := l.versions.Put(v.Key(), v); err != nil {
		return nil, fmt.Errorf("persisting version: %w", err)
	}

	// Link only after the version itself is durable.
	if asset.AttachVersion(v.VersionID, now) {
		if err := l.assets.Put(asset.Key(), asset); err != nil {
			return nil, fmt.Errorf("linking version %s to asset %s: %w", v.VersionID, asset.AssetID, err)
		}
	}

	l.log.Debug("version created",
		"version_id", v.VersionID,
		"asset_id", v.AssetID,
		"module", v.Module,
		"tier", v.QualityTier,
		"parent_version_id", v.ParentVersionID,
	)
	return v, nil
}

// Get returns the version with the given ID.
func (l *Ledger) Get(versionID string) (*types.Version, error) {
	v, err := l.versions.Get(versionID)
	if err != nil {
		return nil, fmt.Errorf("getting version %s: %w", versionID, err)
	}
	return v, nil
}

// SetGenerationStatus moves the generation overlay of one version. It never
// changes approval.
func (l *Ledger) SetGenerationStatus(versionID string, status types.GenerationStatus, errMsg string) (*types.Version, error) {
	return l.update(versionID, func(v *types.Version, now time.Time) error {
		from := v.Generation()
		if err := v.SetGeneration(status, errMsg, now); err != nil {
			return err
		}
		l.log.Debug("generation status changed", "version_id", v.VersionID, "from", from, "to", status)
		return nil
	})
}

// SetStatus sets the legacy status of one version.
func (l *Ledger) SetStatus(versionID string, status types.Status, errMsg string) (*types.Version, error) {
	return l.update(versionID, func(v *types.Version, now time.Time) error {
		from := v.Status
		if err := v.SetStatus(status, errMsg, now); err != nil {
			return err
		}
		l.log.Debug("status changed", "version_id", v.VersionID, "from", from, "to", status)
		return nil
	})
}

// SetOutput records the artifact paths of one version.
func (l *Ledger) SetOutput(versionID, outputPath, thumbnailPath string) (*types.Version, error) {
	return l.update(versionID, func(v *types.Version, now time.Time) error {
		v.SetOutput(outputPath, thumbnailPath, now)
		return nil
	})
}

// update loads one version, applies fn, and stores the result.
func (l *Ledger) update(versionID string, fn func(v *types.Version, now time.Time) error) (*types.Version, error) {
	v, err := l.Get(versionID)
	if err != nil {
		return nil, err
	}
	if err := fn(v, l.now()); err != nil {
		return nil, err
	}
	if err := l.versions.Put(v.Key(), v); err != nil {
		return nil, fmt.Errorf("persisting version %s: %w", v.VersionID, err)
	}
	return v, nil
}

// siblings lists every version of an asset.
func (l *Ledger) siblings(assetID string) ([]*types.Version, error) {
	vs, err := l.versions.ListByParent(assetID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of asset %s: %w", assetID, err)
	}
	return vs, nil
}

// detachFromAsset removes versionIDs from the owning asset's list. A
// missing asset is not an error; versions outlive their asset.
func (l *Ledger) detachFromAsset(assetID string, versionIDs ...string) error {
	asset, err := l.assets.Get(assetID)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting asset %s: %w", assetID, err)
	}
	now := l.now()
	changed := false
	for _, id := range versionIDs {
		if asset.DetachVersion(id, now) {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := l.assets.Put(asset.Key(), asset); err != nil {
		return fmt.Errorf("detaching versions from asset %s: %w", assetID, err)
	}
	return nil
}
