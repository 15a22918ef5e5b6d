package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFocusAreas_Defaults(t *testing.T) {
	areas, err := LoadFocusAreas("")
	require.NoError(t, err)
	assert.Len(t, areas, 7)
	assert.Contains(t, areas[0], "Numerical")
}

func TestLoadFocusAreas_FromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "focus.yaml")
	require.NoError(t, os.WriteFile(p, []byte(
		"focus_areas:\n  - Budget overruns\n  - Legal claims\n"), 0o644))

	areas, err := LoadFocusAreas(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Budget overruns", "Legal claims"}, areas)
}

func TestLoadFocusAreas_EmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "focus.yaml")
	require.NoError(t, os.WriteFile(p, []byte("focus_areas: []\n"), 0o644))

	_, err := LoadFocusAreas(p)
	require.Error(t, err)
}

func TestLoadFocusAreas_MissingFile(t *testing.T) {
	_, err := LoadFocusAreas(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
