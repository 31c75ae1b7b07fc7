package app

import "strings"

// normalizeLanguage maps the aliases people actually type to the canonical
// tags the rule table and highlighter use.
func normalizeLanguage(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "js", "javascript":
		return "javascript"
	case "ts", "typescript":
		return "typescript"
	case "py", "python":
		return "python"
	case "go", "golang":
		return "go"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
