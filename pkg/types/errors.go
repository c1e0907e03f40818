package types

import (
	"errors"
	"fmt"
)

// Store operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
)

// Entity method errors.
var (
	ErrInvalidStatus           = errors.New("invalid status value")
	ErrInvalidGenerationStatus = errors.New("invalid generation status value")
	ErrInvalidModule           = errors.New("invalid module")
	ErrInvalidTier             = errors.New("invalid quality tier")
	ErrInvariantViolation      = errors.New("invariant violation")
)

// Reason is a stable code describing which lifecycle rule an operation broke.
type Reason string

const (
	// ReasonDeleteLocked: the version is approved or finalized and cannot be deleted.
	ReasonDeleteLocked Reason = "delete_locked"
	// ReasonNotApproved: a regeneration was requested from a version that is not approved.
	ReasonNotApproved Reason = "not_approved"
	// ReasonFinalized: a finalized version cannot be unapproved.
	ReasonFinalized Reason = "finalized"
	// ReasonGenerationClosed: the generation attempt already ended; retries are new versions.
	ReasonGenerationClosed Reason = "generation_closed"
	// ReasonAssetMismatch: the version does not belong to the asset named by the caller.
	ReasonAssetMismatch Reason = "asset_mismatch"
	// ReasonNotFailed: only failed versions can be retried.
	ReasonNotFailed Reason = "not_failed"
)

// InvariantError reports an operation refused because it would break a
// lifecycle invariant. It matches ErrInvariantViolation under errors.Is.
type InvariantError struct {
	Reason    Reason
	VersionID string
	Detail    string
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("version %s: %s", e.VersionID, e.Reason)
	}
	return fmt.Sprintf("version %s: %s: %s", e.VersionID, e.Reason, e.Detail)
}

// Unwrap lets errors.Is(err, ErrInvariantViolation) succeed.
func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// ErrorKind classifies invariant failures as validation errors so callers
// can tell them apart from store I/O failures.
func (e *InvariantError) ErrorKind() string {
	return "validation"
}

// newInvariant builds an InvariantError.
func newInvariant(reason Reason, versionID, detail string) *InvariantError {
	return &InvariantError{Reason: reason, VersionID: versionID, Detail: detail}
}

// ReasonOf returns the reason code carried by err, if err is (or wraps) an
// InvariantError.
func ReasonOf(err error) (Reason, bool) {
	var inv *InvariantError
	if errors.As(err, &inv) {
		return inv.Reason, true
	}
	return "", false
}
