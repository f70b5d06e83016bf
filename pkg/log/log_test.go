package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_JSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "info"
	opts.CallerSkip = 1
	opts.OutputPaths = []string{path}

	l := NewLogger(opts).WithName("fetch").WithValues("session", "s-1")
	l.Debug("hidden")
	l.Info("window fetched", "window", 2, "records", 17)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "window fetched", lines[0]["message"])
	assert.Equal(t, "fetch", lines[0]["logger"])
	assert.Equal(t, "s-1", lines[0]["session"])
	assert.EqualValues(t, 2, lines[0]["window"])
}

func TestZapLogger_LevelChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "warn"
	opts.OutputPaths = []string{path}

	l := NewLogger(opts).(*zapLogger)
	l.Info("dropped")
	l.level.SetLevel(parseLevel("debug"))
	l.Debug("kept")

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["message"])
}

func TestOptions_Validate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Format = "xml"
	opts.Level = "loud"
	assert.Len(t, opts.Validate(), 2)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("nothing")
		l.Error(nil, "nothing")
		_ = l.Logr()
	})
}
