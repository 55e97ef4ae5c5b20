package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "valid", id: "req_01-abc", want: "req_01-abc"},
		{name: "empty dropped", id: "", want: ""},
		{name: "spaces dropped", id: "req 1", want: ""},
		{name: "newline injection dropped", id: "req\n{\"level\":\"error\"}", want: ""},
		{name: "too long dropped", id: strings.Repeat("a", maxIDLen+1), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(context.Background(), tt.id)
			assert.Equal(t, tt.want, RequestIDFromContext(ctx))
		})
	}
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	//nolint:staticcheck // nil context is tolerated on purpose
	assert.Empty(t, ContextFields(nil))
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		tl := NewTestLogger()
		ctx := WithLogger(context.Background(), tl.Logger)

		FromContext(ctx).Info(ctx, "from context")

		tl.AssertLogged(t, zapcore.InfoLevel, "from context")
	})

	t.Run("falls back to nop", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		logger.Info(context.Background(), "discarded")
	})
}

func TestFromSettings(t *testing.T) {
	t.Run("debug disables sampling", func(t *testing.T) {
		cfg, err := FromSettings(config.LoggingConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.Equal(t, zapcore.DebugLevel, cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.False(t, cfg.Sampling.Enabled)
	})

	t.Run("empty keeps defaults", func(t *testing.T) {
		cfg, err := FromSettings(config.LoggingConfig{})
		require.NoError(t, err)
		assert.Equal(t, zapcore.InfoLevel, cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.True(t, cfg.Sampling.Enabled)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := FromSettings(config.LoggingConfig{Level: "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := FromSettings(config.LoggingConfig{Format: "xml"})
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no outputs", mutate: func(c *Config) { c.Output.Console = false }, wantErr: "at least one output"},
		{name: "zero tick", mutate: func(c *Config) { c.Sampling.Tick = 0 }, wantErr: "sampling tick"},
		{name: "negative skip", mutate: func(c *Config) { c.Caller.Skip = -1 }, wantErr: "caller skip"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields["env"] = "" }, wantErr: "empty value"},
		{name: "bad pattern", mutate: func(c *Config) { c.Redaction.Patterns = []string{"["} }, wantErr: "invalid redaction pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDualCore(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		core, err := newDualCore(NewDefaultConfig(), nil)
		require.NoError(t, err)
		assert.NotNil(t, core)
	})

	t.Run("otel requested without provider falls back to console", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.OTEL = true
		core, err := newDualCore(cfg, nil)
		require.NoError(t, err)
		assert.NotNil(t, core)
	})

	t.Run("otel only without provider", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.Console = false
		cfg.Output.OTEL = true
		_, err := newDualCore(cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one output")
	})
}
