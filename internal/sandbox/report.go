package sandbox

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// NoOutput is returned when an execution produced nothing worth showing.
const NoOutput = "(no output)"

// TimeoutMessage is the report for an execution that hit its time limit.
func TimeoutMessage(seconds int) string {
	return fmt.Sprintf("❌ **Execution timed out** (exceeded %d seconds)", seconds)
}

// Assemble renders stdout, stderr and artifacts as a Markdown document.
// Empty sections are left out; images are inlined as data URIs in the given order.
func Assemble(stdout, stderr string, artifacts []Artifact) string {
	var parts []string

	if s := strings.TrimSpace(stdout); s != "" {
		parts = append(parts, "**stdout:**\n```\n"+s+"\n```")
	}
	if s := strings.TrimSpace(stderr); s != "" {
		parts = append(parts, "**stderr:**\n```\n"+s+"\n```")
	}
	for _, a := range artifacts {
		parts = append(parts, imageRef(a))
	}

	if len(parts) == 0 {
		return NoOutput
	}
	return strings.Join(parts, "\n\n")
}

func imageRef(a Artifact) string {
	mimeType := a.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("![chart](data:%s;base64,%s)", mimeType, base64.StdEncoding.EncodeToString(a.Data))
}
