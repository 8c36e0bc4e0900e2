package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProduction(t *testing.T) {
	log, err := New("contacts-api", "prod")
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestNewDevelopment(t *testing.T) {
	log, err := New("contacts", "DEV")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zap.DebugLevel))
}
