package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreambleDefaults(t *testing.T) {
	p, err := Preamble(DefaultPolicy().Plot)
	require.NoError(t, err)

	assert.Contains(t, p, `matplotlib.use("Agg")`)
	assert.Contains(t, p, `os.environ.setdefault("MPLBACKEND", "Agg")`)
	assert.Contains(t, p, `fname = f"mcp_plot_{len(glob.glob('mcp_plot_*.png'))+1}.png"`)
	assert.Contains(t, p, `dpi=200`)
	assert.Contains(t, p, "plt.show = __mcp_show")
}

func TestPreambleCustomOptions(t *testing.T) {
	p, err := Preamble(PlotOptions{Backend: "svg", Prefix: "fig_", Format: "svg", DPI: 72})
	require.NoError(t, err)

	assert.Contains(t, p, `matplotlib.use("svg")`)
	assert.Contains(t, p, `glob.glob('fig_*.svg')`)
	assert.Contains(t, p, `dpi=72`)
}

func TestComposeScript(t *testing.T) {
	code := "import os\nos.system('echo hi')"
	script := ComposeScript("PRE", code)
	assert.Equal(t, "PRE\n\n"+code+"\n", script)
	assert.True(t, strings.HasSuffix(ComposeScript("PRE", ""), "\n\n\n"))
}

func TestPolicyIsArtifact(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.IsArtifact("mcp_plot_1.png"))
	assert.True(t, p.IsArtifact("other.png"))
	assert.False(t, p.IsArtifact("main.py"))
	assert.False(t, p.IsArtifact("plot.jpg"))
}
