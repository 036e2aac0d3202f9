package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

func TestNewDefaultsToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.New(logger.WithOutput(&buf))
	l.Info("hello", slog.String("k", "v"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestEnvironmentPresets(t *testing.T) {
	t.Parallel()

	t.Run("development is text at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := logger.New(logger.WithEnvironment(logger.EnvDevelopment, "billingd"), logger.WithOutput(&buf))
		l.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
		assert.Contains(t, buf.String(), "service=billingd")
	})

	t.Run("production drops debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := logger.New(logger.WithEnvironment(logger.EnvProduction, "billingd"), logger.WithOutput(&buf))
		l.Debug("hidden")
		assert.Empty(t, buf.String())

		l.Info("visible")
		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "production", rec["env"])
	})
}

func TestWithFormatPanicsOnGarbage(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}
