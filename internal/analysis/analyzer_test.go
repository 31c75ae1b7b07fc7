package analysis

import (
	"context"
	"strings"
	"testing"
)

func TestAnalyzeReportsVarAndConsoleLogInOrder(t *testing.T) {
	a := New(nil)
	rep, err := a.Analyze(context.Background(), Request{
		Code:     "var x = 1;\nconsole.log(x);",
		Language: "javascript",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(rep.Findings), rep.Findings)
	}
	if rep.Findings[0].RuleID != "prefer-let-const" || rep.Findings[0].Category != CategoryWarning {
		t.Fatalf("first finding: got %+v", rep.Findings[0])
	}
	if rep.Findings[1].RuleID != "debug-statements" || rep.Findings[1].Category != CategoryInfo {
		t.Fatalf("second finding: got %+v", rep.Findings[1])
	}
}

func TestAnalyzeVarRuleFiresAtMostOnce(t *testing.T) {
	a := New(nil)
	rep, err := a.Analyze(context.Background(), Request{
		Code:     "var a = 1;\nvar b = 2;\nvar c = 3;",
		Language: "javascript",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	count := 0
	for _, f := range rep.Findings {
		if f.RuleID == "prefer-let-const" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected prefer-let-const exactly once, got %d", count)
	}
}

func TestAnalyzeConsoleLogGatedByLanguage(t *testing.T) {
	a := New(nil)
	rep, err := a.Analyze(context.Background(), Request{
		Code:     "console.log(1)",
		Language: "python",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, f := range rep.Findings {
		if f.RuleID == "debug-statements" {
			t.Fatalf("debug-statements must not fire for python input")
		}
	}
}

func TestAnalyzeExtractFunctionsThreshold(t *testing.T) {
	a := New(nil)

	short := Request{Code: "let x = 1;", Language: "javascript"}
	rep, err := a.Analyze(context.Background(), short)
	if err != nil {
		t.Fatalf("analyze short: %v", err)
	}
	for _, f := range rep.Findings {
		if f.RuleID == "extract-functions" {
			t.Fatalf("extract-functions must not fire below the length threshold")
		}
	}

	long := Request{Code: strings.Repeat("let x = 1; x += 1; ", 5), Language: "javascript"}
	rep, err = a.Analyze(context.Background(), long)
	if err != nil {
		t.Fatalf("analyze long: %v", err)
	}
	found := false
	for _, f := range rep.Findings {
		if f.RuleID == "extract-functions" {
			found = true
		}
	}
	if !found {
		t.Fatalf("extract-functions should fire on long function-free code")
	}

	withFn := Request{Code: "const f = () => {};" + strings.Repeat(" let x = 1;", 10), Language: "javascript"}
	rep, err = a.Analyze(context.Background(), withFn)
	if err != nil {
		t.Fatalf("analyze withFn: %v", err)
	}
	for _, f := range rep.Findings {
		if f.RuleID == "extract-functions" {
			t.Fatalf("extract-functions must not fire when an arrow function is present")
		}
	}
}

func TestAnalyzeLongLineReportsFirstOffendingLine(t *testing.T) {
	a := New(nil)
	code := "short\n" + strings.Repeat("x", 130) + "\nshort again"
	rep, err := a.Analyze(context.Background(), Request{Code: code, Language: "javascript"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, f := range rep.Findings {
		if f.RuleID == "long-line" {
			if f.Line != 2 {
				t.Fatalf("long-line: expected line 2, got %d", f.Line)
			}
			return
		}
	}
	t.Fatalf("long-line finding missing")
}

func TestAnalyzeMixedLoopStyles(t *testing.T) {
	a := New(nil)
	code := "for (let i = 0; i < 3; i++) {}\nitems.forEach((x) => x);"
	rep, err := a.Analyze(context.Background(), Request{Code: code, Language: "javascript"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	found := false
	for _, f := range rep.Findings {
		if f.RuleID == "mixed-loop-styles" {
			found = true
		}
	}
	if !found {
		t.Fatalf("mixed-loop-styles should fire when both styles appear")
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	a := New(nil)
	req := Request{Code: "var x = 1;\nconsole.log(x);", Language: "javascript"}
	first, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(first.Findings) != len(second.Findings) {
		t.Fatalf("same input produced different finding counts: %d vs %d", len(first.Findings), len(second.Findings))
	}
	for i := range first.Findings {
		if first.Findings[i] != second.Findings[i] {
			t.Fatalf("finding %d differs between runs", i)
		}
	}
}

func TestAnalyzeHonorsContextCancel(t *testing.T) {
	a := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, Request{Code: "var x = 1;"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestValidateRulesRejectsDuplicateIDs(t *testing.T) {
	rules := []Rule{
		{ID: "r1", Type: "contains_all", Category: CategoryInfo, Severity: SeverityLow, Message: "m", Contains: []string{"a"}},
		{ID: "r1", Type: "contains_all", Category: CategoryInfo, Severity: SeverityLow, Message: "m", Contains: []string{"b"}},
	}
	if err := ValidateRules(rules); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidateRulesRejectsUnknownType(t *testing.T) {
	rules := []Rule{
		{ID: "r1", Type: "regex", Category: CategoryInfo, Severity: SeverityLow, Message: "m"},
	}
	if err := ValidateRules(rules); err == nil {
		t.Fatalf("expected unknown type error")
	}
}
