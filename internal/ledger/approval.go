package ledger

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// ApprovalPlan is the full set of writes one Approve call performs.
// Demotions are applied before Promotion.
type ApprovalPlan struct {
	Demotions []*types.Version
	Promotion *types.Version
}

// Changed returns every version the plan writes, demotions first.
func (p ApprovalPlan) Changed() []*types.Version {
	out := make([]*types.Version, 0, len(p.Demotions)+1)
	out = append(out, p.Demotions...)
	if p.Promotion != nil {
		out = append(out, p.Promotion)
	}
	return out
}

// PlanApproval computes the updates that make target the only approved
// version among siblings. Any sibling carrying either approval marker is
// demoted. Inputs are not modified; the plan holds updated copies.
func PlanApproval(target *types.Version, siblings []*types.Version, now time.Time) ApprovalPlan {
	var plan ApprovalPlan
	for _, s := range siblings {
		if s == nil || s.VersionID == target.VersionID || !s.IsApproved() {
			continue
		}
		d := s.Clone()
		d.Demote(now)
		plan.Demotions = append(plan.Demotions, d)
	}
	p := target.Clone()
	p.Promote(now)
	plan.Promotion = p
	return plan
}

// Approve makes versionID the single approved version of assetID and
// returns every version it changed.
func (l *Ledger) Approve(assetID, versionID string) ([]*types.Version, error) {
	target, err := l.Get(versionID)
	if err != nil {
		return nil, err
	}
	if target.AssetID != assetID {
		return nil, &types.InvariantError{
			Reason:    types.ReasonAssetMismatch,
			VersionID: versionID,
			Detail:    fmt.Sprintf("belongs to asset %s, not %s", target.AssetID, assetID),
		}
	}
	siblings, err := l.siblings(assetID)
	if err != nil {
		return nil, err
	}

	plan := PlanApproval(target, siblings, l.now())
	for _, v := range plan.Changed() {
		if err := l.versions.Put(v.Key(), v); err != nil {
			return nil, fmt.Errorf("applying approval to version %s: %w", v.VersionID, err)
		}
	}

	l.log.Info("version approved",
		"version_id", versionID,
		"asset_id", assetID,
		"demoted", len(plan.Demotions),
	)
	return plan.Changed(), nil
}

// Unapprove reverts an approved version to draft. Finalized versions are
// refused with ReasonFinalized.
func (l *Ledger) Unapprove(versionID string) (*types.Version, error) {
	v, err := l.update(versionID, func(v *types.Version, now time.Time) error {
		return v.Unapprove(now)
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("version unapproved", "version_id", versionID)
	return v, nil
}
