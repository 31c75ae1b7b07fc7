package analysis

// DefaultRules is the built-in rule table, used when the content catalog does
// not ship one. Order matters: findings are reported in this order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "prefer-let-const",
			Type:     "contains_all",
			Category: CategoryWarning,
			Severity: SeverityMedium,
			Message:  "Consider using 'let' or 'const' instead of 'var' for block scoping.",
			Fix:      "Replace 'var' declarations with 'let' or 'const'.",
			Contains: []string{"var "},
		},
		{
			ID:        "debug-statements",
			Type:      "contains_all",
			Category:  CategoryInfo,
			Severity:  SeverityLow,
			Message:   "console.log statements found. Remove them before shipping.",
			Fix:       "Delete console.log calls or route them through a logger.",
			Contains:  []string{"console.log"},
			Languages: []string{"javascript"},
		},
		{
			ID:        "extract-functions",
			Type:      "absent_over_length",
			Category:  CategorySuggestion,
			Severity:  SeverityMedium,
			Message:   "No functions defined. Breaking code into functions improves readability.",
			Fix:       "Group related statements into named functions.",
			Absent:    []string{"function", "=>"},
			MinLength: 50,
		},
		{
			ID:            "long-line",
			Type:          "line_length",
			Category:      CategoryWarning,
			Severity:      SeverityLow,
			Message:       "Line exceeds 120 characters. Long lines hurt readability.",
			Fix:           "Wrap the expression or extract intermediate variables.",
			MaxLineLength: 120,
		},
		{
			ID:       "mixed-loop-styles",
			Type:     "contains_all",
			Category: CategorySuggestion,
			Severity: SeverityLow,
			Message:  "Both classic loops and forEach in use. Prefer one consistent style.",
			Fix:      "Standardize on functional array methods (map, filter, reduce) where possible.",
			Contains: []string{"for", "forEach"},
		},
	}
}
