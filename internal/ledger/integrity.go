package ledger

import (
	"github.com/mesh-intelligence/stager/internal/prompt"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// PreparedPrompt is the payload a caller sends to the image provider for a
// version, plus any integrity mismatch found while preparing it.
type PreparedPrompt struct {
	Version  *types.Version
	Prompt   prompt.Result
	Mismatch *prompt.Mismatch
}

// PreparePrompt recomputes the prompt for a version from its recipe. A
// stored hash that disagrees is logged and reported, never fatal; the
// recomputed prompt is always the payload. The stored recipe is not
// rewritten.
func (l *Ledger) PreparePrompt(versionID string) (PreparedPrompt, error) {
	v, err := l.Get(versionID)
	if err != nil {
		return PreparedPrompt{}, err
	}
	res, mismatch := prompt.Verify(v.Recipe)
	if mismatch != nil {
		l.log.Warn("prompt integrity mismatch",
			"version_id", v.VersionID,
			"stored_hash", mismatch.StoredHash,
			"computed_hash", mismatch.ComputedHash,
		)
	}
	return PreparedPrompt{Version: v, Prompt: res, Mismatch: mismatch}, nil
}
