package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikiskaarup/nanabox/internal/config"
)

func TestSetupLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    logrus.Level
	}{
		{"configured", "warn", false, logrus.WarnLevel},
		{"verbose wins", "error", true, logrus.DebugLevel},
		{"invalid falls back to info", "loud", false, logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logrus.New()
			closer := Setup(logger, config.LogConfig{Level: tt.level}, tt.verbose)
			defer closer.Close()

			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nanabox.log")

	logger := logrus.New()
	closer := Setup(logger, config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, false)
	logger.Info("hello from the test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
	assert.NotContains(t, string(data), "\x1b[")
}
