package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"chatty", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := WithComponent(NewWithWriter("warn", &buf), "encoder")
	log.Info("hidden")
	log.Warn("shown", "pass", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "component=encoder")
	assert.Contains(t, out, "pass=2")
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webmfit.log")
	var console bytes.Buffer
	log, closer := New(Config{Level: "debug", File: path, Console: &console})
	log.Debug("probed", "duration", 60)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=probed")
	assert.Contains(t, console.String(), "msg=probed")
}

func TestNew_NoSinks(t *testing.T) {
	log, closer := New(Config{Level: "debug"})
	log.Error("dropped")
	assert.NoError(t, closer.Close())
}
