package ledger

import (
	"fmt"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// Delete removes an unlocked version and detaches it from its asset.
// Approved and final versions are refused with ReasonDeleteLocked and left
// untouched.
func (l *Ledger) Delete(versionID string) error {
	v, err := l.Get(versionID)
	if err != nil {
		return err
	}
	if err := v.CheckDeletable(); err != nil {
		return err
	}
	// Detach first: an interrupted delete leaves an orphan record for the
	// preview sweep, never a dangling asset reference.
	if err := l.detachFromAsset(v.AssetID, versionID); err != nil {
		return err
	}
	if err := l.versions.Delete(versionID); err != nil {
		return fmt.Errorf("deleting version %s: %w", versionID, err)
	}
	l.log.Info("version deleted", "version_id", versionID, "asset_id", v.AssetID)
	return nil
}

// DeletePreviewsExceptApproved sweeps preview-tier versions of an asset
// that nothing depends on. Locked versions, pending attempts, and any
// version reachable from a locked one through parent or source links are
// kept. Returns the IDs that were deleted.
func (l *Ledger) DeletePreviewsExceptApproved(assetID string) ([]string, error) {
	siblings, err := l.siblings(assetID)
	if err != nil {
		return nil, err
	}

	keep := protectedVersions(siblings)
	var doomed []string
	for _, v := range siblings {
		if v.QualityTier != types.TierPreview || keep[v.VersionID] {
			continue
		}
		if v.Generation() == types.GenerationPending {
			continue
		}
		doomed = append(doomed, v.VersionID)
	}

	deleted := make([]string, 0, len(doomed))
	for _, id := range doomed {
		if err := l.versions.Delete(id); err != nil {
			return deleted, fmt.Errorf("deleting version %s: %w", id, err)
		}
		deleted = append(deleted, id)
	}
	if len(deleted) > 0 {
		if err := l.detachFromAsset(assetID, deleted...); err != nil {
			return deleted, err
		}
		l.log.Info("previews pruned", "asset_id", assetID, "deleted", len(deleted))
	}
	return deleted, nil
}

// protectedVersions returns the locked versions plus everything they
// reference, transitively, within the given set.
func protectedVersions(vs []*types.Version) map[string]bool {
	byID := make(map[string]*types.Version, len(vs))
	for _, v := range vs {
		byID[v.VersionID] = v
	}
	keep := make(map[string]bool)
	var stack []string
	for _, v := range vs {
		if v.IsLocked() {
			stack = append(stack, v.VersionID)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if keep[id] {
			continue
		}
		keep[id] = true
		v, ok := byID[id]
		if !ok {
			continue
		}
		if v.ParentVersionID != "" {
			stack = append(stack, v.ParentVersionID)
		}
		stack = append(stack, v.SourceVersionIDs...)
	}
	return keep
}
