package exercise

import (
	"math/rand"
	"testing"

	"codecoach/internal/catalog"
)

func threeExercises() []catalog.Exercise {
	return []catalog.Exercise{
		{ExerciseID: "ex-one", Title: "One", Points: 100},
		{ExerciseID: "ex-two", Title: "Two", Points: 150},
		{ExerciseID: "ex-three", Title: "Three", Points: 100},
	}
}

func newTestPicker() *Picker {
	return NewPicker(threeExercises(), rand.New(rand.NewSource(1)))
}

func TestSelectHidesSolution(t *testing.T) {
	p := newTestPicker()
	if err := p.Select("ex-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.ToggleSolution()
	if !p.SolutionVisible() {
		t.Fatalf("toggle should reveal the solution")
	}
	if err := p.Select("ex-two"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if p.SolutionVisible() {
		t.Fatalf("selecting an exercise must hide the solution")
	}
}

func TestPickRandomCoversAllExercisesAndHidesSolution(t *testing.T) {
	p := newTestPicker()
	if err := p.Select("ex-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.ToggleSolution()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ex, err := p.PickRandom()
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		seen[ex.ExerciseID] = true
		if p.SolutionVisible() {
			t.Fatalf("random pick must hide the solution")
		}
	}
	if len(seen) != 3 {
		t.Fatalf("expected all 3 exercises to be reachable, saw %d", len(seen))
	}
}

func TestPickRandomIncludesCompleted(t *testing.T) {
	p := newTestPicker()
	if err := p.Select("ex-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.MarkComplete()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ex, err := p.PickRandom()
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		seen[ex.ExerciseID] = true
	}
	if !seen["ex-one"] {
		t.Fatalf("completed exercises must stay in the random pool")
	}
}

func TestPickRandomOnEmptySetFails(t *testing.T) {
	p := NewPicker(nil, rand.New(rand.NewSource(1)))
	if _, err := p.PickRandom(); err == nil {
		t.Fatalf("expected error on empty exercise set")
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	p := newTestPicker()
	if err := p.Select("ex-two"); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.MarkComplete()
	p.MarkComplete()
	if got := p.CompletedCount(); got != 1 {
		t.Fatalf("expected 1 completion, got %d", got)
	}
	if got := p.EarnedPoints(); got != 150 {
		t.Fatalf("expected 150 points, got %d", got)
	}
}

func TestMarkCompleteWithoutSelectionIsNoOp(t *testing.T) {
	p := newTestPicker()
	p.MarkComplete()
	p.ToggleSolution()
	if p.CompletedCount() != 0 {
		t.Fatalf("expected no completions")
	}
	if p.SolutionVisible() {
		t.Fatalf("toggle without selection must be a no-op")
	}
}

func TestCompletionSurvivesDeselect(t *testing.T) {
	p := newTestPicker()
	if err := p.Select("ex-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.MarkComplete()
	p.Deselect()
	if _, ok := p.Current(); ok {
		t.Fatalf("deselect must close the exercise")
	}
	if !p.IsComplete("ex-one") {
		t.Fatalf("completion must survive deselect")
	}
	if got := p.Progress(); got < 0.33 || got > 0.34 {
		t.Fatalf("expected progress ~1/3, got %f", got)
	}
}

func TestRestoreIgnoresUnknownIDs(t *testing.T) {
	p := newTestPicker()
	p.Restore([]string{"ex-one", "ghost"})
	if got := p.CompletedCount(); got != 1 {
		t.Fatalf("expected 1 restored completion, got %d", got)
	}
}
