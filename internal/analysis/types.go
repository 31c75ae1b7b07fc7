package analysis

const (
	ReportKind    = "analysis_report"
	SchemaVersion = 1
)

type Category string

const (
	CategoryError      Category = "error"
	CategoryWarning    Category = "warning"
	CategoryInfo       Category = "info"
	CategorySuggestion Category = "suggestion"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rule is one pattern-to-finding mapping. Rules are immutable data: they are
// either loaded from the content catalog or taken from DefaultRules, and the
// evaluator never mutates them.
type Rule struct {
	ID       string
	Type     string
	Category Category
	Severity Severity
	Message  string
	Fix      string

	// Contains lists substrings that must all be present in the code.
	Contains []string
	// Absent lists substrings of which none may be present in the code.
	Absent []string
	// Languages restricts the rule to the listed language tags. Empty means all.
	Languages []string
	// MinLength is the exclusive code-length threshold for threshold rules.
	MinLength int
	// MaxLineLength is the exclusive per-line length threshold for line rules.
	MaxLineLength int
}

type Request struct {
	Code     string
	Language string
}

type Finding struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"`
	Line     int      `json:"line,omitempty"`
}

type Report struct {
	Kind          string    `json:"kind"`
	SchemaVersion int       `json:"schema_version"`
	Language      string    `json:"language"`
	RulesRun      int       `json:"rules_run"`
	Findings      []Finding `json:"findings"`
}
