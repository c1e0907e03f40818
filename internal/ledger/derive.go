package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// DuplicateOptions tweaks a duplicated version. Zero values copy the source.
type DuplicateOptions struct {
	Module types.Module
	Patch  *types.RecipePatch
}

// Duplicate creates a new preview-tier version from an existing one with
// optional tweaks. The source is left untouched and becomes the parent.
// When the source recipe carries a prompt hash, the merged recipe is
// restamped so its hash matches its components. A source that had already
// drifted is logged first.
func (l *Ledger) Duplicate(versionID string, opts DuplicateOptions) (*types.Version, error) {
	src, err := l.Get(versionID)
	if err != nil {
		return nil, err
	}
	module := src.Module
	if opts.Module != "" {
		module = opts.Module
	}
	if _, mismatch := prompt.Verify(src.Recipe); mismatch != nil {
		l.log.Warn("prompt integrity mismatch on duplicate source",
			"version_id", src.VersionID,
			"stored_hash", mismatch.StoredHash,
			"computed_hash", mismatch.ComputedHash,
		)
	}
	recipe := src.Recipe.Merge(opts.Patch)
	if recipe.Settings.String(types.SettingPromptHash) != "" {
		prompt.Stamp(&recipe, prompt.InputFromRecipe(recipe))
	}
	return l.CreateVersion(NewVersion{
		AssetID:          src.AssetID,
		Module:           module,
		QualityTier:      types.TierPreview,
		Recipe:           recipe,
		SourceVersionIDs: src.SourceVersionIDs,
		ParentVersionID:  src.VersionID,
		Seed:             src.Seed,
		Model:            src.Model,
	})
}

// Retry creates a fresh attempt for a failed version with identical inputs.
// The failed version stays as the audit record.
func (l *Ledger) Retry(versionID string) (*types.Version, error) {
	src, err := l.Get(versionID)
	if err != nil {
		return nil, err
	}
	if src.Generation() != types.GenerationFailed {
		return nil, &types.InvariantError{
			Reason:    types.ReasonNotFailed,
			VersionID: versionID,
			Detail:    "generation is " + string(src.Generation()),
		}
	}
	return l.CreateVersion(NewVersion{
		AssetID:          src.AssetID,
		Module:           src.Module,
		QualityTier:      src.QualityTier,
		Recipe:           src.Recipe,
		SourceVersionIDs: src.SourceVersionIDs,
		ParentVersionID:  src.VersionID,
		Seed:             src.Seed,
		Model:            src.Model,
	})
}

// RegenerateHQ creates an HQ preview from an approved version.
func (l *Ledger) RegenerateHQ(versionID, customModel string) (*types.Version, error) {
	return l.regenerate(versionID, types.TierHQPreview, customModel, types.StatusApproved)
}

// RegenerateNative4K creates a native 4K render from an approved version.
func (l *Ledger) RegenerateNative4K(versionID, customModel string) (*types.Version, error) {
	return l.regenerate(versionID, types.TierNative4K, customModel, types.StatusApproved)
}

// GenerateFinal creates the final render from an approved or HQ-ready
// version.
func (l *Ledger) GenerateFinal(versionID, customModel string) (*types.Version, error) {
	return l.regenerate(versionID, types.TierFinal, customModel, types.StatusApproved, types.StatusHQReady)
}

func (l *Ledger) regenerate(versionID string, tier types.QualityTier, customModel string, accepted ...types.Status) (*types.Version, error) {
	approved, err := l.Get(versionID)
	if err != nil {
		return nil, err
	}
	if !statusIn(approved.Status, accepted) {
		return nil, &types.InvariantError{
			Reason:    types.ReasonNotApproved,
			VersionID: versionID,
			Detail:    "status is " + string(approved.Status),
		}
	}

	parent, err := l.parentOf(approved)
	if err != nil {
		return nil, err
	}
	var sources []string
	if id, ok := ResolveSourceVersionID(approved, parent); ok {
		sources = []string{id}
	}

	override := customModel
	if strings.TrimSpace(override) == "" {
		override = l.models.Custom
	}
	primary, secondary := l.models.TierModels(tier)

	v, err := l.CreateVersion(NewVersion{
		AssetID:          approved.AssetID,
		Module:           approved.Module,
		QualityTier:      tier,
		Recipe:           approved.Recipe,
		SourceVersionIDs: sources,
		ParentVersionID:  approved.VersionID,
		Seed:             approved.Seed,
		Model:            SelectModel(override, primary, secondary),
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("regeneration created",
		"version_id", v.VersionID,
		"from_version_id", approved.VersionID,
		"tier", tier,
		"model", v.Model,
	)
	return v, nil
}

// parentOf fetches the direct parent of v. A missing parent is reported as
// nil, not as an error.
func (l *Ledger) parentOf(v *types.Version) (*types.Version, error) {
	if v.ParentVersionID == "" {
		return nil, nil
	}
	parent, err := l.versions.Get(v.ParentVersionID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting parent version %s: %w", v.ParentVersionID, err)
	}
	return parent, nil
}

// ResolveSourceVersionID picks the upstream image for a regeneration. The
// approved version's parent is used when it exists and has an output;
// otherwise ok is false and the asset's original image is the source.
func ResolveSourceVersionID(approved, parent *types.Version) (id string, ok bool) {
	if approved == nil || approved.ParentVersionID == "" || parent == nil {
		return "", false
	}
	if parent.VersionID != approved.ParentVersionID || parent.OutputPath == "" {
		return "", false
	}
	return parent.VersionID, true
}

// SelectModel applies model precedence: a non-blank custom override, then
// the primary configured model, then the secondary, then
// types.DefaultFallbackModel.
func SelectModel(custom, primary, secondary string) string {
	for _, m := range []string{custom, primary, secondary} {
		if m = strings.TrimSpace(m); m != "" {
			return m
		}
	}
	return types.DefaultFallbackModel
}

func statusIn(s types.Status, set []types.Status) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}
