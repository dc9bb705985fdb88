package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GlebRadaev/settlement/internal/config"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name           string
		config         *config.Config
		expectedError  bool
		expectedLogLvl zapcore.Level
	}{
		{
			name:           "Console info",
			config:         &config.Config{LogLvl: "info", LogFormat: "console"},
			expectedLogLvl: zapcore.InfoLevel,
		},
		{
			name:           "JSON error",
			config:         &config.Config{LogLvl: "error", LogFormat: "json"},
			expectedLogLvl: zapcore.ErrorLevel,
		},
		{
			name:           "Debug with default format",
			config:         &config.Config{LogLvl: "debug"},
			expectedLogLvl: zapcore.DebugLevel,
		},
		{
			name:           "Warn",
			config:         &config.Config{LogLvl: "warn", LogFormat: "json"},
			expectedLogLvl: zapcore.WarnLevel,
		},
		{
			name:          "Invalid log level",
			config:        &config.Config{LogLvl: "invalid"},
			expectedError: true,
		},
		{
			name:          "Invalid format",
			config:        &config.Config{LogLvl: "info", LogFormat: "xml"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, zap.L().Core().Enabled(tt.expectedLogLvl))
			if tt.expectedLogLvl > zapcore.DebugLevel {
				assert.False(t, zap.L().Core().Enabled(tt.expectedLogLvl-1))
			}
		})
	}
}
