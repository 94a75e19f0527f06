package sandbox

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalCompare(t *testing.T) {
	names := []string{
		"mcp_plot_10.png",
		"mcp_plot_2.png",
		"mcp_plot_1.png",
		"chart.png",
		"mcp_plot_11.png",
		"mcp_plot_9.png",
	}
	slices.SortFunc(names, naturalCompare)
	assert.Equal(t, []string{
		"chart.png",
		"mcp_plot_1.png",
		"mcp_plot_2.png",
		"mcp_plot_9.png",
		"mcp_plot_10.png",
		"mcp_plot_11.png",
	}, names)
}

func TestNaturalCompareLeadingZeros(t *testing.T) {
	assert.Less(t, naturalCompare("img_2.png", "img_010.png"), 0)
	assert.Equal(t, 0, naturalCompare("a1", "a1"))
	assert.Less(t, naturalCompare("a", "a1"), 0)
}

func TestCollectArtifacts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"mcp_plot_1.png":  "one",
		"mcp_plot_12.png": "twelve",
		"mcp_plot_3.png":  "three",
		"main.py":         "print(1)",
		"notes.txt":       "x",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.png"), 0o755))

	artifacts, err := collectArtifacts(dir, DefaultPolicy())
	require.NoError(t, err)

	var names []string
	for _, a := range artifacts {
		names = append(names, a.Name)
		assert.Equal(t, "image/png", a.MIMEType)
		assert.Equal(t, files[a.Name], string(a.Data))
	}
	assert.Equal(t, []string{"mcp_plot_1.png", "mcp_plot_3.png", "mcp_plot_12.png"}, names)
}

func TestCollectArtifactsCustomPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svg"), []byte("<svg/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("png"), 0o644))

	policy := DefaultPolicy()
	policy.ArtifactPatterns = []string{"*.svg"}

	artifacts, err := collectArtifacts(dir, policy)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "a.svg", artifacts[0].Name)
	assert.Equal(t, "image/svg+xml", artifacts[0].MIMEType)
}

func TestCollectArtifactsMissingDir(t *testing.T) {
	_, err := collectArtifacts(filepath.Join(t.TempDir(), "gone"), DefaultPolicy())
	assert.Error(t, err)
}
