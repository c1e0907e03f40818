// Version entity: one immutable generation attempt and its mutable status
// fields.
package types

import "time"

// Version is one generation attempt for an asset. Content fields are fixed
// at creation; only the status fields, output paths and timestamps change.
type Version struct {
	VersionID        string           `json:"version_id"`
	AssetID          string           `json:"asset_id"`
	JobID            string           `json:"job_id"`
	Module           Module           `json:"module"`
	QualityTier      QualityTier      `json:"quality_tier"`
	Status           Status           `json:"status"`
	GenerationStatus GenerationStatus `json:"generation_status,omitempty"`
	LifecycleStatus  LifecycleStatus  `json:"lifecycle_status,omitempty"`
	Recipe           Recipe           `json:"recipe"`
	SourceVersionIDs []string         `json:"source_version_ids"`
	ParentVersionID  string           `json:"parent_version_id,omitempty"`
	Seed             *int64           `json:"seed,omitempty"`
	Model            string           `json:"model,omitempty"`
	OutputPath       string           `json:"output_path,omitempty"`
	ThumbnailPath    string           `json:"thumbnail_path,omitempty"`
	Error            string           `json:"error,omitempty"`
	GenerationError  string           `json:"generation_error,omitempty"`
	ApprovedBy       string           `json:"approved_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	FinalGeneratedAt *time.Time       `json:"final_generated_at,omitempty"`
}

// Key returns the store key of the version; versions are owned by assets.
func (v *Version) Key() Key {
	return Key{Parent: v.AssetID, ID: v.VersionID}
}

// Clone returns a deep copy so callers can compute updates without
// touching stored records.
func (v *Version) Clone() *Version {
	cp := *v
	cp.Recipe = v.Recipe.Clone()
	cp.SourceVersionIDs = cloneStrings(v.SourceVersionIDs)
	cp.Seed = cloneInt64(v.Seed)
	cp.StartedAt = cloneTime(v.StartedAt)
	cp.CompletedAt = cloneTime(v.CompletedAt)
	cp.ApprovedAt = cloneTime(v.ApprovedAt)
	cp.FinalGeneratedAt = cloneTime(v.FinalGeneratedAt)
	return &cp
}

// IsApproved reports whether either approval marker is set. Both the
// lifecycle flag and the legacy status count when scanning for siblings
// to demote.
func (v *Version) IsApproved() bool {
	return v.LifecycleStatus == LifecycleApproved || v.Status == StatusApproved
}

// IsLocked reports whether the version may never be deleted: it is
// approved, or its legacy status says approved or final_ready.
func (v *Version) IsLocked() bool {
	return v.LifecycleStatus == LifecycleApproved ||
		v.Status == StatusApproved ||
		v.Status == StatusFinalReady
}

// IsFinalized reports whether a final render exists or is underway.
func (v *Version) IsFinalized() bool {
	return v.Status == StatusFinalReady || v.Status == StatusFinalGenerating
}

// Generation returns the canonical generation status of the version.
func (v *Version) Generation() GenerationStatus {
	return ResolveGenerationStatus(v)
}

// SetGeneration moves the generation overlay. An attempt runs
// pending -> completed|failed once; a finished attempt is never reopened,
// and repeating the current status is a no-op refresh.
// Lifecycle approval is never touched.
func (v *Version) SetGeneration(status GenerationStatus, errMsg string, now time.Time) error {
	current := v.Generation()
	switch status {
	case GenerationPending:
		if current != GenerationIdle && current != GenerationPending {
			return newInvariant(ReasonGenerationClosed, v.VersionID,
				"cannot reopen a "+string(current)+" attempt")
		}
		v.StartedAt = timePtr(now)
		v.CompletedAt = nil
		v.GenerationError = ""
	case GenerationCompleted, GenerationFailed:
		if current != GenerationIdle && current != GenerationPending && current != status {
			return newInvariant(ReasonGenerationClosed, v.VersionID,
				"attempt already "+string(current))
		}
		v.CompletedAt = timePtr(now)
		if status == GenerationCompleted {
			v.GenerationError = ""
		} else {
			v.GenerationError = errMsg
		}
	default:
		return ErrInvalidGenerationStatus
	}
	v.GenerationStatus = status
	v.UpdatedAt = now
	return nil
}

// SetStatus sets the legacy status. Entering approved also raises the
// lifecycle flag and entering final_ready stamps FinalGeneratedAt. A
// non-empty errMsg is recorded on the version.
func (v *Version) SetStatus(status Status, errMsg string, now time.Time) error {
	if _, ok := ParseStatus(string(status)); !ok {
		return ErrInvalidStatus
	}
	v.Status = status
	switch status {
	case StatusApproved:
		v.LifecycleStatus = LifecycleApproved
		v.ApprovedAt = timePtr(now)
	case StatusFinalReady:
		v.FinalGeneratedAt = timePtr(now)
	}
	if errMsg != "" {
		v.Error = errMsg
	}
	v.UpdatedAt = now
	return nil
}

// SetOutput records produced artifact paths. An empty thumbnail keeps the
// existing one.
func (v *Version) SetOutput(outputPath, thumbnailPath string, now time.Time) {
	v.OutputPath = outputPath
	if thumbnailPath != "" {
		v.ThumbnailPath = thumbnailPath
	}
	v.UpdatedAt = now
}

// Demote clears approval. The legacy status reverts to preview_ready only
// when it was exactly approved; other statuses such as final_ready stay.
func (v *Version) Demote(now time.Time) {
	v.LifecycleStatus = LifecycleDraft
	v.ApprovedAt = nil
	v.ApprovedBy = ""
	if v.Status == StatusApproved {
		v.Status = StatusPreviewReady
	}
	v.UpdatedAt = now
}

// Promote marks the version approved on both markers. An already approved
// version keeps its original ApprovedAt.
func (v *Version) Promote(now time.Time) {
	if v.LifecycleStatus != LifecycleApproved || v.ApprovedAt == nil {
		v.ApprovedAt = timePtr(now)
	}
	v.LifecycleStatus = LifecycleApproved
	v.Status = StatusApproved
	v.UpdatedAt = now
}

// Unapprove reverts an approved version to a draft preview. Finalized
// versions refuse with ReasonFinalized.
func (v *Version) Unapprove(now time.Time) error {
	if v.IsFinalized() {
		return newInvariant(ReasonFinalized, v.VersionID, "status "+string(v.Status))
	}
	v.Demote(now)
	return nil
}

// CheckDeletable returns an InvariantError when the version is locked.
func (v *Version) CheckDeletable() error {
	if v.IsLocked() {
		return newInvariant(ReasonDeleteLocked, v.VersionID, "status "+string(v.Status))
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneInt64(n *int64) *int64 {
	if n == nil {
		return nil
	}
	cp := *n
	return &cp
}
