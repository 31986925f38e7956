package main

import (
	"os"
	"path/filepath"
	"testing"

	"ecoshelf-extractor/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		name     string
		log      config.LogConfig
		verbose  bool
		expected logrus.Level
	}{
		{"quiet by default", config.LogConfig{Level: "info"}, false, logrus.WarnLevel},
		{"verbose", config.LogConfig{Level: "info"}, true, logrus.DebugLevel},
		{"configured level", config.LogConfig{Level: "info", Explicit: true}, false, logrus.InfoLevel},
		{"configured level beats verbose", config.LogConfig{Level: "error", Explicit: true}, true, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(tt.log, tt.verbose)
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestSetup_LogLevelSources(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		yaml     string
		expected logrus.Level
	}{
		{"nothing configured", nil, "", logrus.WarnLevel},
		{"prefixed env", map[string]string{"ECOSHELF_LOG_LEVEL": "debug"}, "", logrus.DebugLevel},
		{"plain env", map[string]string{"LOG_LEVEL": "info"}, "", logrus.InfoLevel},
		{"config file", nil, "log:\n  level: error\n", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			t.Setenv("ECOSHELF_LOG_LEVEL", "")
			t.Setenv("LOG_LEVEL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0o600))
			}

			_, logger, err := setup(&rootFlags{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestSetup_FlagOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, _, err := setup(&rootFlags{relayURL: "http://relay.test", browser: true})
	require.NoError(t, err)
	assert.Equal(t, "http://relay.test", cfg.RelayURL)
	assert.True(t, cfg.UseHeadlessBrowser)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
