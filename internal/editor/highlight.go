package editor

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// Highlight renders code with ANSI syntax colors for read-only previews
// (tutorial step code, exercise starters, revealed solutions). On any
// failure the plain source comes back unchanged.
func Highlight(code, language string) string {
	if strings.TrimSpace(code) == "" {
		return code
	}
	var sb strings.Builder
	if err := quick.Highlight(&sb, code, lexerFor(language), "terminal256", "monokai"); err != nil {
		return code
	}
	return sb.String()
}

func lexerFor(language string) string {
	switch strings.ToLower(language) {
	case "javascript", "js":
		return "javascript"
	case "typescript", "ts":
		return "typescript"
	case "python", "py":
		return "python"
	case "go", "golang":
		return "go"
	default:
		return "plaintext"
	}
}
