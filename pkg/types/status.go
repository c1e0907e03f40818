package types

import "strings"

// Module is a pipeline stage that produces versions.
type Module string

const (
	ModuleCleanup  Module = "cleanup"
	ModuleStaging  Module = "staging"
	ModuleRenovate Module = "renovate"
	ModuleTwilight Module = "twilight"
	ModuleRelight  Module = "relight"
)

var allModules = []Module{
	ModuleCleanup,
	ModuleStaging,
	ModuleRenovate,
	ModuleTwilight,
	ModuleRelight,
}

// AllModules returns the ordered list of pipeline modules.
func AllModules() []Module {
	cp := make([]Module, len(allModules))
	copy(cp, allModules)
	return cp
}

// ParseModule converts a string into a known Module.
func ParseModule(value string) (Module, bool) {
	m := Module(normalizeEnum(value))
	for _, known := range allModules {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// QualityTier classifies how refined a version's output is. Tiers are a
// classification, not a state machine: a version keeps its tier for life.
type QualityTier string

const (
	TierPreview   QualityTier = "preview"
	TierHQPreview QualityTier = "hq_preview"
	TierNative4K  QualityTier = "native_4k"
	TierFinal     QualityTier = "final"
)

var allTiers = []QualityTier{
	TierPreview,
	TierHQPreview,
	TierNative4K,
	TierFinal,
}

// AllQualityTiers returns the tiers in increasing refinement order.
func AllQualityTiers() []QualityTier {
	cp := make([]QualityTier, len(allTiers))
	copy(cp, allTiers)
	return cp
}

// ParseQualityTier converts a string into a known QualityTier.
func ParseQualityTier(value string) (QualityTier, bool) {
	t := QualityTier(normalizeEnum(value))
	for _, known := range allTiers {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// ImageSize returns the provider image size requested for the tier.
func (t QualityTier) ImageSize() string {
	switch t {
	case TierHQPreview:
		return "2K"
	case TierNative4K, TierFinal:
		return "4K"
	default:
		return "1K"
	}
}

// Status is the legacy coarse lifecycle of a version. It is kept for
// compatibility with stored records; GenerationStatus and LifecycleStatus
// carry the authoritative execution and approval state.
type Status string

const (
	StatusGenerating         Status = "generating"
	StatusPreviewReady       Status = "preview_ready"
	StatusApproved           Status = "approved"
	StatusHQGenerating       Status = "hq_generating"
	StatusHQReady            Status = "hq_ready"
	StatusNative4KGenerating Status = "native_4k_generating"
	StatusNative4KReady      Status = "native_4k_ready"
	StatusFinalGenerating    Status = "final_generating"
	StatusFinalReady         Status = "final_ready"
	StatusError              Status = "error"
)

var allStatuses = []Status{
	StatusGenerating,
	StatusPreviewReady,
	StatusApproved,
	StatusHQGenerating,
	StatusHQReady,
	StatusNative4KGenerating,
	StatusNative4KReady,
	StatusFinalGenerating,
	StatusFinalReady,
	StatusError,
}

// AllStatuses returns the ordered list of known legacy statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	s := Status(normalizeEnum(value))
	for _, known := range allStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// GenerationStatus is the outcome of the single generation attempt a
// version represents.
type GenerationStatus string

const (
	GenerationIdle      GenerationStatus = "idle"
	GenerationPending   GenerationStatus = "pending"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

var allGenerationStatuses = []GenerationStatus{
	GenerationIdle,
	GenerationPending,
	GenerationCompleted,
	GenerationFailed,
}

// AllGenerationStatuses returns the canonical generation statuses.
func AllGenerationStatuses() []GenerationStatus {
	cp := make([]GenerationStatus, len(allGenerationStatuses))
	copy(cp, allGenerationStatuses)
	return cp
}

// ParseGenerationStatus converts a string into a known GenerationStatus.
func ParseGenerationStatus(value string) (GenerationStatus, bool) {
	g := GenerationStatus(normalizeEnum(value))
	for _, known := range allGenerationStatuses {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// LifecycleStatus is the approval flag of a version.
type LifecycleStatus string

const (
	LifecycleDraft    LifecycleStatus = "draft"
	LifecycleApproved LifecycleStatus = "approved"
)

func normalizeEnum(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
