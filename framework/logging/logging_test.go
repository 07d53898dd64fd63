package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-webbeans/framework/config"
	"github.com/km-arc/go-webbeans/framework/logging"
)

func cfgWith(env, level string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "test", Env: env},
		Log: config.LogConfig{Level: level},
	}
}

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env, level string
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"local", "debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"production", "info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"production", "warn", zapcore.WarnLevel, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			log, err := logging.New(cfgWith(tt.env, tt.level))
			require.NoError(t, err)
			assert.NotNil(t, log.Check(tt.enabled, "x"))
			assert.Nil(t, log.Check(tt.disabled, "x"))
		})
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := logging.New(cfgWith("local", "chatty"))
	require.Error(t, err)

	assert.NotNil(t, logging.Must(cfgWith("local", "chatty")))
}
