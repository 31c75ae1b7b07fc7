package app

import (
	"fmt"
	"strings"
)

// buildExplainText produces the local, heuristic explanation shown by the
// AI Help overlay. No provider is involved: it walks the snippet line by
// line and names the constructs it recognizes.
func buildExplainText(code, language string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "No code to explain. Type something in the editor first."
	}

	var b strings.Builder
	b.WriteString("Your " + language + " code\n\nWhat this does\n")
	n := 0
	for _, line := range strings.Split(trimmed, "\n") {
		stmt := strings.TrimSpace(line)
		if stmt == "" || strings.HasPrefix(stmt, "//") {
			continue
		}
		desc := describeStatement(stmt)
		if desc == "" {
			desc = "Runs this statement."
		}
		n++
		b.WriteString(fmt.Sprintf("%d. `%s` - %s\n", n, truncateStmt(stmt), desc))
	}
	if n == 0 {
		return "Only comments and blank lines here. Nothing executes."
	}

	if hints := styleHints(trimmed); len(hints) > 0 {
		b.WriteString("\nStyle hints\n")
		for _, h := range hints {
			b.WriteString("- " + h + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func describeStatement(stmt string) string {
	switch {
	case strings.HasPrefix(stmt, "function ") || strings.Contains(stmt, "=>"):
		return "Defines a function."
	case strings.HasPrefix(stmt, "const "):
		return "Declares a constant binding."
	case strings.HasPrefix(stmt, "let "):
		return "Declares a block-scoped variable."
	case strings.HasPrefix(stmt, "var "):
		return "Declares a function-scoped variable (prefer let or const)."
	case strings.HasPrefix(stmt, "for ") || strings.HasPrefix(stmt, "for("):
		return "Starts a loop."
	case strings.HasPrefix(stmt, "while ") || strings.HasPrefix(stmt, "while("):
		return "Loops while the condition stays true."
	case strings.HasPrefix(stmt, "if ") || strings.HasPrefix(stmt, "if("):
		return "Branches on a condition."
	case strings.HasPrefix(stmt, "return"):
		return "Returns a value to the caller."
	case strings.Contains(stmt, "console.log"):
		return "Prints to the console."
	}
	return ""
}

func styleHints(code string) []string {
	var hints []string
	if strings.Contains(code, "var ") {
		hints = append(hints, "Swap var for let or const to get block scoping.")
	}
	if strings.Contains(code, "while (true)") || strings.Contains(code, "while(true)") {
		hints = append(hints, "A while (true) loop needs a break or a changing condition to ever stop.")
	}
	if strings.Contains(code, "console.log") {
		hints = append(hints, "Remember to strip console.log calls before shipping.")
	}
	return hints
}

func truncateStmt(stmt string) string {
	const limit = 48
	r := []rune(stmt)
	if len(r) <= limit {
		return stmt
	}
	return string(r[:limit-3]) + "..."
}
