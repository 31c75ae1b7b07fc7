package catalog

import (
	"fmt"
	"regexp"

	"codecoach/internal/analysis"
	"codecoach/internal/suggest"
)

const (
	CatalogKind            = "catalog"
	TutorialKind           = "tutorial"
	ExerciseKind           = "exercise"
	RulesKind              = "rules"
	SuggestionsKind        = "suggestions"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

type Catalog struct {
	Kind          string         `yaml:"kind"`
	SchemaVersion int            `yaml:"schema_version"`
	CatalogID     string         `yaml:"catalog_id"`
	Name          string         `yaml:"name"`
	Version       string         `yaml:"version"`
	DescriptionMD string         `yaml:"description_md"`
	MinAppVersion string         `yaml:"min_app_version"`
	Topics        []string       `yaml:"topics"`
	Tutorials     []TutorialRef  `yaml:"tutorials"`
	Exercises     []ExerciseRef  `yaml:"exercises"`
	RulesPath     string         `yaml:"rules_path"`
	SuggestsPath  string         `yaml:"suggestions_path"`
	Extensions    map[string]any `yaml:"extensions"`

	Path              string               `yaml:"-"`
	LoadedTutorials   []Tutorial           `yaml:"-"`
	LoadedExercises   []Exercise           `yaml:"-"`
	LoadedRules       []analysis.Rule      `yaml:"-"`
	LoadedSuggestions []suggest.Suggestion `yaml:"-"`
}

type TutorialRef struct {
	TutorialID string `yaml:"tutorial_id"`
	Path       string `yaml:"path"`
	Enabled    *bool  `yaml:"enabled"`
}

type ExerciseRef struct {
	ExerciseID string `yaml:"exercise_id"`
	Path       string `yaml:"path"`
	Enabled    *bool  `yaml:"enabled"`
}

type Tutorial struct {
	Kind          string `yaml:"kind"`
	SchemaVersion int    `yaml:"schema_version"`
	TutorialID    string `yaml:"tutorial_id"`
	Title         string `yaml:"title"`
	DescriptionMD string `yaml:"description_md"`
	Difficulty    string `yaml:"difficulty"`
	Duration      string `yaml:"duration"`
	Topic         string `yaml:"topic"`
	Steps         []Step `yaml:"steps"`

	Path string `yaml:"-"`
}

type Step struct {
	StepID        string   `yaml:"step_id"`
	Title         string   `yaml:"title"`
	ContentMD     string   `yaml:"content_md"`
	Code          string   `yaml:"code"`
	ExplanationMD string   `yaml:"explanation_md"`
	Tips          []string `yaml:"tips"`
}

type Exercise struct {
	Kind             string     `yaml:"kind"`
	SchemaVersion    int        `yaml:"schema_version"`
	ExerciseID       string     `yaml:"exercise_id"`
	Title            string     `yaml:"title"`
	DescriptionMD    string     `yaml:"description_md"`
	Difficulty       string     `yaml:"difficulty"`
	Topic            string     `yaml:"topic"`
	EstimatedMinutes int        `yaml:"estimated_minutes"`
	Points           int        `yaml:"points"`
	StarterCode      string     `yaml:"starter_code"`
	SolutionCode     string     `yaml:"solution_code"`
	TestCases        []TestCase `yaml:"test_cases"`

	Path string `yaml:"-"`
}

// TestCase is a display-only literal pair. Nothing executes it.
type TestCase struct {
	Input    string `yaml:"input"`
	Expected string `yaml:"expected"`
}

type RulesFile struct {
	Kind          string     `yaml:"kind"`
	SchemaVersion int        `yaml:"schema_version"`
	Rules         []RuleSpec `yaml:"rules"`
}

type RuleSpec struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	Category      string   `yaml:"category"`
	Severity      string   `yaml:"severity"`
	Message       string   `yaml:"message"`
	Fix           string   `yaml:"fix"`
	Contains      []string `yaml:"contains"`
	Absent        []string `yaml:"absent"`
	Languages     []string `yaml:"languages"`
	MinLength     int      `yaml:"min_length"`
	MaxLineLength int      `yaml:"max_line_length"`
}

type SuggestionsFile struct {
	Kind          string           `yaml:"kind"`
	SchemaVersion int              `yaml:"schema_version"`
	Suggestions   []SuggestionSpec `yaml:"suggestions"`
}

type SuggestionSpec struct {
	ID          string   `yaml:"id"`
	Category    string   `yaml:"category"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Solution    string   `yaml:"solution"`
	CodeExample string   `yaml:"code_example"`
	Keywords    []string `yaml:"keywords"`
	CodeMarkers []string `yaml:"code_markers"`
}

func (c Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(c.CatalogID) {
		return fmt.Errorf("invalid catalog_id %q", c.CatalogID)
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	seenT := map[string]struct{}{}
	for _, ref := range c.Tutorials {
		if ref.TutorialID == "" {
			return fmt.Errorf("tutorials[].tutorial_id is required")
		}
		if _, ok := seenT[ref.TutorialID]; ok {
			return fmt.Errorf("duplicate tutorial_id %q in catalog.yaml", ref.TutorialID)
		}
		seenT[ref.TutorialID] = struct{}{}
	}
	seenE := map[string]struct{}{}
	for _, ref := range c.Exercises {
		if ref.ExerciseID == "" {
			return fmt.Errorf("exercises[].exercise_id is required")
		}
		if _, ok := seenE[ref.ExerciseID]; ok {
			return fmt.Errorf("duplicate exercise_id %q in catalog.yaml", ref.ExerciseID)
		}
		seenE[ref.ExerciseID] = struct{}{}
	}
	return nil
}

func (t Tutorial) Validate() error {
	if t.Kind != TutorialKind {
		return fmt.Errorf("kind must be %q", TutorialKind)
	}
	if t.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if t.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported tutorial schema_version %d (max supported %d)", t.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(t.TutorialID) {
		return fmt.Errorf("invalid tutorial_id %q", t.TutorialID)
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	switch t.Difficulty {
	case "Beginner", "Intermediate", "Advanced":
	default:
		return fmt.Errorf("difficulty must be Beginner, Intermediate or Advanced")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("tutorial must have at least one step")
	}
	seen := map[string]struct{}{}
	for _, s := range t.Steps {
		if s.StepID == "" {
			return fmt.Errorf("steps[].step_id is required")
		}
		if _, ok := seen[s.StepID]; ok {
			return fmt.Errorf("duplicate step_id %q", s.StepID)
		}
		seen[s.StepID] = struct{}{}
		if s.Title == "" {
			return fmt.Errorf("step %q is missing a title", s.StepID)
		}
		if s.ContentMD == "" {
			return fmt.Errorf("step %q is missing content_md", s.StepID)
		}
	}
	return nil
}

func (e Exercise) Validate() error {
	if e.Kind != ExerciseKind {
		return fmt.Errorf("kind must be %q", ExerciseKind)
	}
	if e.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if e.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported exercise schema_version %d (max supported %d)", e.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(e.ExerciseID) {
		return fmt.Errorf("invalid exercise_id %q", e.ExerciseID)
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	switch e.Difficulty {
	case "Easy", "Medium", "Hard":
	default:
		return fmt.Errorf("difficulty must be Easy, Medium or Hard")
	}
	if e.StarterCode == "" {
		return fmt.Errorf("starter_code is required")
	}
	if e.SolutionCode == "" {
		return fmt.Errorf("solution_code is required")
	}
	for i, tc := range e.TestCases {
		if tc.Input == "" || tc.Expected == "" {
			return fmt.Errorf("test_cases[%d] needs both input and expected", i)
		}
	}
	return nil
}
