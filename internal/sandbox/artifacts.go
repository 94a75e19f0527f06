package sandbox

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

func matchName(pattern, name string) (bool, error) {
	return filepath.Match(pattern, name)
}

// collectArtifacts reads every file in dir whose name matches the policy's
// artifact patterns, in natural name order.
func collectArtifacts(dir string, policy Policy) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing workspace: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !policy.IsArtifact(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortFunc(names, naturalCompare)

	artifacts := make([]Artifact, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", name, err)
		}
		artifacts = append(artifacts, Artifact{
			Name:     name,
			MIMEType: mimeTypeFor(name),
			Data:     data,
		})
	}
	return artifacts, nil
}

func mimeTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "image/") {
		// TypeByExtension may append parameters such as charset for svg.
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	return "image/png"
}

// naturalCompare orders names so that runs of digits compare by value:
// mcp_plot_2.png sorts before mcp_plot_10.png.
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, restA := leadingChunk(a)
		cb, restB := leadingChunk(b)
		if ca != cb {
			if isDigit(ca[0]) && isDigit(cb[0]) {
				if c := compareNumeric(ca, cb); c != 0 {
					return c
				}
			}
			return strings.Compare(ca, cb)
		}
		a, b = restA, restB
	}
	return len(a) - len(b)
}

// leadingChunk splits s after its first run of digits or non-digits.
func leadingChunk(s string) (string, string) {
	digits := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
