package sandbox

import (
	"fmt"
	"strings"
	"text/template"
)

// The preamble forces a non-interactive backend and turns plt.show() into a
// save of the current figure. Files are numbered from the count of figures
// already saved, so the n-th show() call writes <prefix>n.<format>.
var preambleTmpl = template.Must(template.New("preamble").Parse(`import os
import glob

os.environ.setdefault("MPLBACKEND", "{{.Backend}}")
try:
    import matplotlib
    matplotlib.use("{{.Backend}}")
    import matplotlib.pyplot as plt
except ImportError:
    plt = None

def __mcp_show(*args, **kwargs):
    fname = f"{{.Prefix}}{len(glob.glob('{{.Prefix}}*.{{.Format}}'))+1}.{{.Format}}"
    plt.savefig(fname, dpi={{.DPI}}, bbox_inches="tight")

if plt is not None:
    plt.show = __mcp_show
`))

// Preamble renders the Python code prepended to every script.
func Preamble(opts PlotOptions) (string, error) {
	var b strings.Builder
	if err := preambleTmpl.Execute(&b, opts); err != nil {
		return "", fmt.Errorf("rendering preamble: %w", err)
	}
	return b.String(), nil
}

// ComposeScript joins the preamble and the caller's code. The code is not
// inspected or rewritten.
func ComposeScript(preamble, code string) string {
	return preamble + "\n\n" + code + "\n"
}
