package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "prod", "info")
	log.Info("booking created", "booking_id", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "booking created", rec["msg"])
	assert.Equal(t, "abc", rec["booking_id"])
}

func TestNewWithWriter_DevIsText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "dev", "debug")
	log.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
