package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveGenerationStatusCoversAllStatuses(t *testing.T) {
	for _, s := range AllStatuses() {
		t.Run(string(s), func(t *testing.T) {
			_, ok := legacyGenerationStatus[s]
			assert.True(t, ok, "status %q has no canonical generation status", s)
		})
	}
}

func TestResolveGenerationStatus(t *testing.T) {
	tests := []struct {
		name    string
		version *Version
		want    GenerationStatus
	}{
		{name: "nil version is idle", version: nil, want: GenerationIdle},
		{name: "empty version is idle", version: &Version{}, want: GenerationIdle},
		{name: "unknown legacy status is idle", version: &Version{Status: "archived"}, want: GenerationIdle},
		{name: "generating is pending", version: &Version{Status: StatusGenerating}, want: GenerationPending},
		{name: "hq generating is pending", version: &Version{Status: StatusHQGenerating}, want: GenerationPending},
		{name: "native 4k generating is pending", version: &Version{Status: StatusNative4KGenerating}, want: GenerationPending},
		{name: "final generating is pending", version: &Version{Status: StatusFinalGenerating}, want: GenerationPending},
		{name: "error is failed", version: &Version{Status: StatusError}, want: GenerationFailed},
		{name: "preview ready is completed", version: &Version{Status: StatusPreviewReady}, want: GenerationCompleted},
		{name: "hq ready is completed", version: &Version{Status: StatusHQReady}, want: GenerationCompleted},
		{name: "native 4k ready is completed", version: &Version{Status: StatusNative4KReady}, want: GenerationCompleted},
		{name: "final ready is completed", version: &Version{Status: StatusFinalReady}, want: GenerationCompleted},
		{name: "approved is completed", version: &Version{Status: StatusApproved}, want: GenerationCompleted},
		{
			name:    "overlay wins over legacy status",
			version: &Version{Status: StatusPreviewReady, GenerationStatus: GenerationFailed},
			want:    GenerationFailed,
		},
		{
			name:    "overlay idle wins over generating",
			version: &Version{Status: StatusGenerating, GenerationStatus: GenerationIdle},
			want:    GenerationIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveGenerationStatus(tt.version))
		})
	}
}
