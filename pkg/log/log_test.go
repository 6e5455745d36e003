package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CarriesAppAttribute(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "info")
	logger.Info("workflow run completed", "run_id", "run-1")

	out := buf.String()
	assert.Contains(t, out, "app=propflow")
	assert.Contains(t, out, "run_id=run-1")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "warn")
	logger.Info("should be filtered")
	logger.Warn("should pass")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should pass")
}

func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "verbose")
	logger.Debug("too chatty")
	logger.Info("visible")

	out := buf.String()
	assert.NotContains(t, out, "too chatty")
	assert.Contains(t, out, "visible")
}
