package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel), "debug logger should enable debug level")
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.False(t, logger.Core().Enabled(zap.DebugLevel), "production logger should not enable debug level")
		_ = logger.Sync()
	})
}

func TestNewCLILogger(t *testing.T) {
	logger, err := NewCLILogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel), "cli logger should hide info")
	assert.True(t, logger.Core().Enabled(zap.WarnLevel), "cli logger should show warnings")
	_ = logger.Sync()

	debug, err := NewCLILogger(true)
	require.NoError(t, err)
	assert.True(t, debug.Core().Enabled(zap.DebugLevel), "debug cli logger should enable debug level")
	_ = debug.Sync()
}
