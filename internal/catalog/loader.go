package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"codecoach/internal/analysis"
	"codecoach/internal/suggest"
)

// AppVersion is checked against each catalog's min_app_version gate.
const AppVersion = "0.3.0"

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

// LoadCatalogs reads every directory under root that contains a catalog.yaml.
// Each catalog is fully hydrated: tutorials, exercises, and any rules or
// suggestions files it references are parsed and validated.
func (l *FSLoader) LoadCatalogs(ctx context.Context, root string) ([]Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	catalogs := make([]Catalog, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		catPath := filepath.Join(root, entry.Name())
		catYAML := filepath.Join(catPath, "catalog.yaml")
		if _, err := os.Stat(catYAML); err != nil {
			continue
		}
		cat, err := readCatalog(catYAML)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", catPath, err)
		}
		cat.Path = catPath
		if err := checkAppVersion(cat); err != nil {
			return nil, fmt.Errorf("%s: %w", catPath, err)
		}
		if err := hydrateCatalog(ctx, &cat); err != nil {
			return nil, fmt.Errorf("%s: %w", catPath, err)
		}
		catalogs = append(catalogs, cat)
	}

	sort.Slice(catalogs, func(i, j int) bool { return catalogs[i].CatalogID < catalogs[j].CatalogID })
	return catalogs, nil
}

func readCatalog(path string) (Catalog, error) {
	var cat Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return cat, err
	}
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return cat, err
	}
	if err := cat.Validate(); err != nil {
		return cat, err
	}
	return cat, nil
}

func checkAppVersion(cat Catalog) error {
	if _, err := goversion.NewVersion(cat.Version); err != nil {
		return fmt.Errorf("invalid catalog version %q: %w", cat.Version, err)
	}
	if cat.MinAppVersion == "" {
		return nil
	}
	min, err := goversion.NewVersion(cat.MinAppVersion)
	if err != nil {
		return fmt.Errorf("invalid min_app_version %q: %w", cat.MinAppVersion, err)
	}
	app := goversion.Must(goversion.NewVersion(AppVersion))
	if app.LessThan(min) {
		return fmt.Errorf("catalog %s requires app >= %s (running %s)", cat.CatalogID, min, app)
	}
	return nil
}

func hydrateCatalog(ctx context.Context, cat *Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tutorials := make([]Tutorial, 0, len(cat.Tutorials))
	for _, ref := range cat.Tutorials {
		if ref.Enabled != nil && !*ref.Enabled {
			continue
		}
		path := filepath.Join(cat.Path, ref.Path)
		tut, err := loadTutorialFile(path)
		if err != nil {
			return err
		}
		if tut.TutorialID != ref.TutorialID {
			return fmt.Errorf("tutorial id mismatch for %s: manifest=%s file=%s", path, ref.TutorialID, tut.TutorialID)
		}
		applyTutorialDefaults(&tut)
		tutorials = append(tutorials, tut)
	}
	cat.LoadedTutorials = tutorials

	exercises := make([]Exercise, 0, len(cat.Exercises))
	for _, ref := range cat.Exercises {
		if ref.Enabled != nil && !*ref.Enabled {
			continue
		}
		path := filepath.Join(cat.Path, ref.Path)
		ex, err := loadExerciseFile(path)
		if err != nil {
			return err
		}
		if ex.ExerciseID != ref.ExerciseID {
			return fmt.Errorf("exercise id mismatch for %s: manifest=%s file=%s", path, ref.ExerciseID, ex.ExerciseID)
		}
		applyExerciseDefaults(&ex)
		exercises = append(exercises, ex)
	}
	cat.LoadedExercises = exercises

	if cat.RulesPath != "" {
		rules, err := loadRulesFile(filepath.Join(cat.Path, cat.RulesPath))
		if err != nil {
			return err
		}
		cat.LoadedRules = rules
	}
	if cat.SuggestsPath != "" {
		sugs, err := loadSuggestionsFile(filepath.Join(cat.Path, cat.SuggestsPath))
		if err != nil {
			return err
		}
		cat.LoadedSuggestions = sugs
	}
	return nil
}

func loadTutorialFile(path string) (Tutorial, error) {
	var tut Tutorial
	b, err := os.ReadFile(path)
	if err != nil {
		return tut, err
	}
	if err := yaml.Unmarshal(b, &tut); err != nil {
		return tut, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := tut.Validate(); err != nil {
		return tut, fmt.Errorf("validate %s: %w", path, err)
	}
	tut.Path = path
	return tut, nil
}

func loadExerciseFile(path string) (Exercise, error) {
	var ex Exercise
	b, err := os.ReadFile(path)
	if err != nil {
		return ex, err
	}
	if err := yaml.Unmarshal(b, &ex); err != nil {
		return ex, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ex.Validate(); err != nil {
		return ex, fmt.Errorf("validate %s: %w", path, err)
	}
	ex.Path = path
	return ex, nil
}

func applyTutorialDefaults(tut *Tutorial) {
	if tut.Duration == "" {
		tut.Duration = fmt.Sprintf("%d min", 5*len(tut.Steps))
	}
	if tut.Topic == "" {
		tut.Topic = "javascript"
	}
}

func applyExerciseDefaults(ex *Exercise) {
	if ex.EstimatedMinutes <= 0 {
		ex.EstimatedMinutes = 15
	}
	if ex.Points <= 0 {
		ex.Points = 100
	}
	if ex.Topic == "" {
		ex.Topic = "javascript"
	}
}

func loadRulesFile(path string) ([]analysis.Rule, error) {
	var file RulesFile
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Kind != RulesKind {
		return nil, fmt.Errorf("%s: kind must be %q", path, RulesKind)
	}
	if file.SchemaVersion == 0 || file.SchemaVersion > SupportedSchemaVersion {
		return nil, fmt.Errorf("%s: unsupported schema_version %d", path, file.SchemaVersion)
	}
	rules := make([]analysis.Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		rules = append(rules, analysis.Rule{
			ID:            spec.ID,
			Type:          spec.Type,
			Category:      analysis.Category(spec.Category),
			Severity:      analysis.Severity(spec.Severity),
			Message:       spec.Message,
			Fix:           spec.Fix,
			Contains:      spec.Contains,
			Absent:        spec.Absent,
			Languages:     spec.Languages,
			MinLength:     spec.MinLength,
			MaxLineLength: spec.MaxLineLength,
		})
	}
	if err := analysis.ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return rules, nil
}

func loadSuggestionsFile(path string) ([]suggest.Suggestion, error) {
	var file SuggestionsFile
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Kind != SuggestionsKind {
		return nil, fmt.Errorf("%s: kind must be %q", path, SuggestionsKind)
	}
	if file.SchemaVersion == 0 || file.SchemaVersion > SupportedSchemaVersion {
		return nil, fmt.Errorf("%s: unsupported schema_version %d", path, file.SchemaVersion)
	}
	seen := map[string]struct{}{}
	sugs := make([]suggest.Suggestion, 0, len(file.Suggestions))
	for i, spec := range file.Suggestions {
		if spec.ID == "" {
			return nil, fmt.Errorf("%s: suggestions[%d] is missing an id", path, i)
		}
		if _, ok := seen[spec.ID]; ok {
			return nil, fmt.Errorf("%s: duplicate suggestion id %q", path, spec.ID)
		}
		seen[spec.ID] = struct{}{}
		switch suggest.Category(spec.Category) {
		case suggest.CategoryError, suggest.CategoryWarning, suggest.CategoryTip:
		default:
			return nil, fmt.Errorf("%s: suggestion %q has invalid category %q", path, spec.ID, spec.Category)
		}
		if spec.Title == "" || spec.Description == "" || spec.Solution == "" {
			return nil, fmt.Errorf("%s: suggestion %q needs title, description and solution", path, spec.ID)
		}
		sugs = append(sugs, suggest.Suggestion{
			ID:          spec.ID,
			Category:    suggest.Category(spec.Category),
			Title:       spec.Title,
			Description: spec.Description,
			Solution:    spec.Solution,
			CodeExample: spec.CodeExample,
			Keywords:    spec.Keywords,
			CodeMarkers: spec.CodeMarkers,
		})
	}
	return sugs, nil
}

// FindTutorial looks a tutorial up across all loaded catalogs.
func (l *FSLoader) FindTutorial(catalogs []Catalog, tutorialID string) (Catalog, Tutorial, error) {
	for _, c := range catalogs {
		for _, t := range c.LoadedTutorials {
			if t.TutorialID == tutorialID {
				return c, t, nil
			}
		}
	}
	return Catalog{}, Tutorial{}, fmt.Errorf("tutorial %s not found", tutorialID)
}

// FindExercise looks an exercise up across all loaded catalogs.
func (l *FSLoader) FindExercise(catalogs []Catalog, exerciseID string) (Catalog, Exercise, error) {
	for _, c := range catalogs {
		for _, e := range c.LoadedExercises {
			if e.ExerciseID == exerciseID {
				return c, e, nil
			}
		}
	}
	return Catalog{}, Exercise{}, fmt.Errorf("exercise %s not found", exerciseID)
}

// CollectRules flattens every catalog's rule set in catalog order. Catalogs
// without rules contribute nothing; callers fall back to the built-in table
// when the result is empty.
func CollectRules(catalogs []Catalog) []analysis.Rule {
	var out []analysis.Rule
	for _, c := range catalogs {
		out = append(out, c.LoadedRules...)
	}
	return out
}

// CollectSuggestions flattens every catalog's suggestion set in catalog order.
func CollectSuggestions(catalogs []Catalog) []suggest.Suggestion {
	var out []suggest.Suggestion
	for _, c := range catalogs {
		out = append(out, c.LoadedSuggestions...)
	}
	return out
}
