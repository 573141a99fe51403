package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestJSONLoggerEmitsStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("experiment started", Worker(3), Ops(1024), Phase("execute"))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "experiment started", entry["msg"])
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, float64(3), fields["worker"])
	assert.Equal(t, float64(1024), fields["ops"])
	assert.Equal(t, "execute", fields["phase"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))

	logger.SetLevel(DebugLevel)
	logger.Debug("now kept")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestWithPresetsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).With(Library("adjlist"))

	logger.Info("loaded", Uint64("edges", 42))

	fields := lastEntry(t, &buf)["fields"].(map[string]any)
	assert.Equal(t, "adjlist", fields["library"])
	assert.Equal(t, float64(42), fields["edges"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, InfoLevel, ParseLevel("gibberish"))
}

func TestErrorField(t *testing.T) {
	assert.Nil(t, Error(nil).Value)
	f := Error(assert.AnError)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, assert.AnError.Error(), f.Value)
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Info("ignored", String("k", "v"))
		logger.With(Worker(1)).Error("ignored")
	})
}
