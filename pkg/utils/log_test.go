package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogHandler(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		logger := slog.New(newLogHandler(&out, HandlerTypeJSON, LogLevelInfo, false /*addSource*/))
		logger.Debug("hidden")
		logger.Info("shown", "key", "value")

		record := make(map[string]any)
		require.NoError(t, json.Unmarshal(out.Bytes(), &record))
		assert.Equal(t, "shown", record["msg"])
		assert.Equal(t, "value", record["key"])
	})
	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		logger := slog.New(newLogHandler(&out, HandlerTypeText, LogLevelWarn, false /*addSource*/))
		logger.Info("hidden")
		logger.Warn("shown")
		assert.Contains(t, out.String(), "msg=shown")
		assert.NotContains(t, out.String(), "hidden")
	})
	t.Run("unsupported_handler_falls_back_to_json", func(t *testing.T) {
		invariantsMetric.Reset()
		var out bytes.Buffer
		logger := slog.New(newLogHandler(&out, "yaml", LogLevelInfo, false /*addSource*/))
		logger.Info("shown")
		assert.True(t, json.Valid(out.Bytes()))
		assert.Equal(t, 1, GetMetricValue("log", "unsupported_handler_type"))
	})
}
