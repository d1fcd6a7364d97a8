package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"power-market-lab/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{name: "debug", level: "debug", want: zapcore.DebugLevel},
		{name: "upper case", level: "WARN", want: zapcore.WarnLevel},
		{name: "unknown falls back to info", level: "chatty", want: zapcore.InfoLevel},
		{name: "empty falls back to info", level: "", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(config.LogConfig{Level: tt.level, Encoding: "json"})
			require.NoError(t, err)
			defer func() { _ = l.Sync() }()

			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew_UnknownEncodingUsesConsole(t *testing.T) {
	l, err := New(config.LogConfig{Level: "info", Encoding: "xml"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l, err := New(config.LogConfig{Level: "info", Encoding: "console"})
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}
