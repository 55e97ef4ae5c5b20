package logging

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedactingEncoder_CallSiteFields(t *testing.T) {
	logger, buf := newBufferedLogger(t, nil)

	logger.Info(context.Background(), "calling pinecone",
		zap.String("api_key", "pcsk_abc123"),
		zap.String("Api-Key", "pcsk_abc123"),
		zap.String("header", "Bearer abc.def"),
		zap.String("model", "pinecone-rerank-v0"),
	)

	assert.NotContains(t, buf.String(), "pcsk_abc123")
	assert.NotContains(t, buf.String(), "abc.def")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["api_key"])
	assert.Equal(t, "[REDACTED]", lines[0]["Api-Key"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["header"])
	assert.Equal(t, "pinecone-rerank-v0", lines[0]["model"])
}

func TestRedactingEncoder_WithFields(t *testing.T) {
	logger, buf := newBufferedLogger(t, nil)

	child := logger.With(zap.String("token", "t-123"), zap.String("index", "docs"))
	child.Info(context.Background(), "child")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["token"])
	assert.Equal(t, "docs", lines[0]["index"])
}

func TestRedactingEncoder_Message(t *testing.T) {
	logger, buf := newBufferedLogger(t, nil)

	logger.Warn(context.Background(), "rejected key pcsk_leaked_value")

	assert.NotContains(t, buf.String(), "pcsk_leaked_value")
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	logger, buf := newBufferedLogger(t, func(c *Config) { c.Redaction.Enabled = false })

	logger.Info(context.Background(), "plain", zap.String("api_key", "visible"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["api_key"])
}

func TestNewRedactingEncoder_InvalidPattern(t *testing.T) {
	cfg := NewDefaultConfig().Redaction
	cfg.Patterns = []string{"("}

	_, err := NewRedactingEncoder(newEncoder("json"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redaction pattern")
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()

	tl.Info(context.Background(), "configured", Secret("pinecone", config.Secret("pcsk_0123456789")))

	entries := tl.All()
	require.Len(t, entries, 1)
	obj, ok := entries[0].ContextMap()["pinecone"].(map[string]interface{})
	require.True(t, ok, "secret field should marshal as an object")
	assert.Equal(t, "[REDACTED:15]", obj["pinecone"])
	tl.AssertNoValue(t, "pcsk_0123456789")
}

