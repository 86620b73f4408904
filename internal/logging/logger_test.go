package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDevelopment(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("debug message visible in development")
}

func TestNewProduction(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("info message")
}

func TestNewWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flinkview.log")
	logger, err := NewWithConfig(Config{FilePath: path})
	require.NoError(t, err)

	logger.Info("written to file")
	_ = logger.Sync() // stderr sync can fail on some platforms

	assert.FileExists(t, path)
}
