package catalog

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBuiltinCoreCatalogLoads(t *testing.T) {
	loader := NewLoader()
	root := filepath.Join("..", "..", "content")
	catalogs, err := loader.LoadCatalogs(context.Background(), root)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}

	var core *Catalog
	for i := range catalogs {
		if catalogs[i].CatalogID == "builtin-core" {
			core = &catalogs[i]
			break
		}
	}
	if core == nil {
		t.Fatalf("builtin-core catalog not found")
	}
	if len(core.LoadedTutorials) != 3 {
		t.Fatalf("expected 3 tutorials, got %d", len(core.LoadedTutorials))
	}
	if len(core.LoadedExercises) != 3 {
		t.Fatalf("expected 3 exercises, got %d", len(core.LoadedExercises))
	}

	gotT := []string{core.LoadedTutorials[0].TutorialID, core.LoadedTutorials[1].TutorialID, core.LoadedTutorials[2].TutorialID}
	wantT := []string{"js-variables", "js-functions", "js-loops"}
	for i := range wantT {
		if gotT[i] != wantT[i] {
			t.Fatalf("tutorial order mismatch at %d: got %q want %q", i, gotT[i], wantT[i])
		}
	}

	if len(core.LoadedRules) != 5 {
		t.Fatalf("expected 5 rules, got %d", len(core.LoadedRules))
	}
	if len(core.LoadedSuggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(core.LoadedSuggestions))
	}
}

func TestLoadedExercisesCarryDefaults(t *testing.T) {
	loader := NewLoader()
	root := filepath.Join("..", "..", "content")
	catalogs, err := loader.LoadCatalogs(context.Background(), root)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	for _, c := range catalogs {
		for _, ex := range c.LoadedExercises {
			if ex.Points <= 0 {
				t.Fatalf("exercise %s has no points after defaulting", ex.ExerciseID)
			}
			if ex.EstimatedMinutes <= 0 {
				t.Fatalf("exercise %s has no time estimate after defaulting", ex.ExerciseID)
			}
		}
	}
}

func TestFindTutorialAcrossCatalogs(t *testing.T) {
	loader := NewLoader()
	root := filepath.Join("..", "..", "content")
	catalogs, err := loader.LoadCatalogs(context.Background(), root)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if _, _, err := loader.FindTutorial(catalogs, "js-functions"); err != nil {
		t.Fatalf("find js-functions: %v", err)
	}
	if _, _, err := loader.FindTutorial(catalogs, "nope"); err == nil {
		t.Fatalf("expected not-found error")
	}
}
