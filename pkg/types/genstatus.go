package types

// legacyGenerationStatus maps every legacy Status to its canonical
// generation status. Adding a Status without an entry here fails
// TestResolveGenerationStatusCoversAllStatuses.
var legacyGenerationStatus = map[Status]GenerationStatus{
	StatusGenerating:         GenerationPending,
	StatusHQGenerating:       GenerationPending,
	StatusNative4KGenerating: GenerationPending,
	StatusFinalGenerating:    GenerationPending,
	StatusError:              GenerationFailed,
	StatusPreviewReady:       GenerationCompleted,
	StatusHQReady:            GenerationCompleted,
	StatusNative4KReady:      GenerationCompleted,
	StatusFinalReady:         GenerationCompleted,
	StatusApproved:           GenerationCompleted,
}

// ResolveGenerationStatus reconciles the generation overlay and the legacy
// status into one canonical value. A set overlay wins verbatim; otherwise
// the legacy status is mapped. A nil version, or an unknown status, is idle.
func ResolveGenerationStatus(v *Version) GenerationStatus {
	if v == nil {
		return GenerationIdle
	}
	if v.GenerationStatus != "" {
		return v.GenerationStatus
	}
	if g, ok := legacyGenerationStatus[v.Status]; ok {
		return g
	}
	return GenerationIdle
}
