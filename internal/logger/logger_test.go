package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("version_id", "v1")

	l.Warn("prompt hash mismatch", "stored_hash", "aaa", "computed_hash", "bbb")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "prompt hash mismatch", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "v1", fields["version_id"])
	assert.Equal(t, "aaa", fields["stored_hash"])
	assert.Equal(t, "bbb", fields["computed_hash"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{ModeDev, ModeProd, ""} {
		l, err := New(mode)
		require.NoError(t, err, "mode %q", mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Debug("ignored", "k", "v")
	l.Info("ignored")
	l.Error("ignored")
	l.Sync()
}
