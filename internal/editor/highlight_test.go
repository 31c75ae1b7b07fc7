package editor

import (
	"strings"
	"testing"
)

func TestHighlightEmitsANSIForKnownLanguage(t *testing.T) {
	got := Highlight("const x = 1;", "javascript")
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes in highlighted output, got %q", got)
	}
	if !strings.Contains(got, "const") {
		t.Fatalf("highlighted output lost the source text: %q", got)
	}
}

func TestHighlightLeavesBlankInputAlone(t *testing.T) {
	if got := Highlight("   ", "javascript"); got != "   " {
		t.Fatalf("blank input must pass through, got %q", got)
	}
}

func TestLexerForFallsBackToPlaintext(t *testing.T) {
	if got := lexerFor("brainfuck-ish"); got != "plaintext" {
		t.Fatalf("expected plaintext fallback, got %q", got)
	}
	if got := lexerFor("JS"); got != "javascript" {
		t.Fatalf("expected javascript for JS, got %q", got)
	}
}
