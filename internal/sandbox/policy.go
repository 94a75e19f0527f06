package sandbox

import "time"

// PlotOptions controls how the preamble persists figures.
type PlotOptions struct {
	Backend string // matplotlib backend (e.g. "Agg")
	Prefix  string // file name prefix for saved figures
	Format  string // file extension without the dot
	DPI     int
}

// Policy defines how executions are set up and what is collected afterwards.
type Policy struct {
	Python           string            // interpreter binary
	TempDir          string            // parent of workspaces; "" means os.TempDir()
	WorkspacePrefix  string            // workspace directory name prefix
	ScriptName       string            // name of the composed script inside the workspace
	ArtifactPatterns []string          // glob patterns matched against workspace file names
	Env              map[string]string // extra environment for the subprocess
	KillGrace        time.Duration     // how long to wait for pipes after the process is killed
	Plot             PlotOptions
}

// DefaultPolicy returns the defaults used by the run_python tool.
func DefaultPolicy() Policy {
	return Policy{
		Python:           "python",
		WorkspacePrefix:  "mcp_py_",
		ScriptName:       "main.py",
		ArtifactPatterns: []string{"*.png"},
		KillGrace:        2 * time.Second,
		Plot: PlotOptions{
			Backend: "Agg",
			Prefix:  "mcp_plot_",
			Format:  "png",
			DPI:     200,
		},
	}
}

// IsArtifact checks if a workspace file name matches one of the artifact patterns.
func (p Policy) IsArtifact(name string) bool {
	for _, pattern := range p.ArtifactPatterns {
		if ok, _ := matchName(pattern, name); ok {
			return true
		}
	}
	return false
}
