package analysis

import (
	"context"
	"fmt"
	"strings"
)

// match reports whether a rule fired and, when meaningful, the 1-based line
// the finding points at (0 when the finding is not tied to a line).
type match struct {
	Fired bool
	Line  int
}

type evaluatorFunc func(Request, Rule) match

// Analyzer evaluates an ordered rule list against a code snippet. Evaluation
// is total: every rule is checked independently and unconditionally, findings
// are appended in rule order, and no rule suppresses another. Analyze is a
// pure function of (code, language).
type Analyzer struct {
	registry map[string]evaluatorFunc
	rules    []Rule
}

func New(rules []Rule) *Analyzer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	a := &Analyzer{
		registry: map[string]evaluatorFunc{},
		rules:    append([]Rule(nil), rules...),
	}
	a.registry["contains_all"] = evalContainsAll
	a.registry["absent_over_length"] = evalAbsentOverLength
	a.registry["line_length"] = evalLineLength
	return a
}

func (a *Analyzer) Rules() []Rule {
	return append([]Rule(nil), a.rules...)
}

func (a *Analyzer) Analyze(ctx context.Context, req Request) (Report, error) {
	report := Report{
		Kind:          ReportKind,
		SchemaVersion: SchemaVersion,
		Language:      req.Language,
		RulesRun:      len(a.rules),
	}
	for _, rule := range a.rules {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		if !ruleAppliesTo(rule, req.Language) {
			continue
		}
		eval, ok := a.registry[rule.Type]
		if !ok {
			return Report{}, fmt.Errorf("unknown rule type %q for rule %q", rule.Type, rule.ID)
		}
		m := eval(req, rule)
		if !m.Fired {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			RuleID:   rule.ID,
			Category: rule.Category,
			Severity: rule.Severity,
			Message:  rule.Message,
			Fix:      rule.Fix,
			Line:     m.Line,
		})
	}
	return report, nil
}

func ruleAppliesTo(rule Rule, language string) bool {
	if len(rule.Languages) == 0 {
		return true
	}
	lang := strings.ToLower(strings.TrimSpace(language))
	for _, l := range rule.Languages {
		if strings.ToLower(strings.TrimSpace(l)) == lang {
			return true
		}
	}
	return false
}

func evalContainsAll(req Request, rule Rule) match {
	for _, needle := range rule.Contains {
		if !strings.Contains(req.Code, needle) {
			return match{}
		}
	}
	return match{Fired: len(rule.Contains) > 0}
}

func evalAbsentOverLength(req Request, rule Rule) match {
	if len(req.Code) <= rule.MinLength {
		return match{}
	}
	for _, needle := range rule.Absent {
		if strings.Contains(req.Code, needle) {
			return match{}
		}
	}
	return match{Fired: true}
}

func evalLineLength(req Request, rule Rule) match {
	limit := rule.MaxLineLength
	if limit <= 0 {
		limit = 120
	}
	for i, line := range strings.Split(req.Code, "\n") {
		if len(line) > limit {
			return match{Fired: true, Line: i + 1}
		}
	}
	return match{}
}

// ValidateRules rejects rule lists the evaluator registry cannot serve.
// Called by the catalog loader before rules reach an Analyzer.
func ValidateRules(rules []Rule) error {
	known := map[string]struct{}{
		"contains_all":       {},
		"absent_over_length": {},
		"line_length":        {},
	}
	seen := map[string]struct{}{}
	for _, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("rules[].id is required")
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if _, ok := known[r.Type]; !ok {
			return fmt.Errorf("rule %q has unknown type %q", r.ID, r.Type)
		}
		switch r.Category {
		case CategoryError, CategoryWarning, CategoryInfo, CategorySuggestion:
		default:
			return fmt.Errorf("rule %q has invalid category %q", r.ID, r.Category)
		}
		switch r.Severity {
		case SeverityHigh, SeverityMedium, SeverityLow:
		default:
			return fmt.Errorf("rule %q has invalid severity %q", r.ID, r.Severity)
		}
		if r.Message == "" {
			return fmt.Errorf("rule %q is missing a message", r.ID)
		}
		if r.Type == "contains_all" && len(r.Contains) == 0 {
			return fmt.Errorf("rule %q needs at least one contains pattern", r.ID)
		}
		if r.Type == "absent_over_length" && len(r.Absent) == 0 {
			return fmt.Errorf("rule %q needs at least one absent pattern", r.ID)
		}
	}
	return nil
}
