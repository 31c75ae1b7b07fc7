package tutorial

import (
	"testing"

	"codecoach/internal/catalog"
)

func twoTutorials() []catalog.Tutorial {
	return []catalog.Tutorial{
		{
			TutorialID: "t-one",
			Title:      "One",
			Steps: []catalog.Step{
				{StepID: "a", Title: "A", Code: "let a = 1;"},
				{StepID: "b", Title: "B", Code: "let b = 2;"},
				{StepID: "c", Title: "C"},
			},
		},
		{
			TutorialID: "t-two",
			Title:      "Two",
			Steps: []catalog.Step{
				{StepID: "x", Title: "X"},
			},
		},
	}
}

func TestSelectUnknownTutorialFails(t *testing.T) {
	w := NewWalker(twoTutorials())
	if err := w.Select("missing"); err == nil {
		t.Fatalf("expected error for unknown tutorial")
	}
}

func TestAdvanceClampsAtBothEnds(t *testing.T) {
	w := NewWalker(twoTutorials())
	if err := w.Select("t-one"); err != nil {
		t.Fatalf("select: %v", err)
	}

	w.Advance(-5)
	if w.StepIndex() != 0 {
		t.Fatalf("expected clamp at 0, got %d", w.StepIndex())
	}
	w.Advance(10)
	if w.StepIndex() != 2 {
		t.Fatalf("expected clamp at last step, got %d", w.StepIndex())
	}
	w.Advance(-1)
	if w.StepIndex() != 1 {
		t.Fatalf("expected step 1, got %d", w.StepIndex())
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	w := NewWalker(twoTutorials())
	if err := w.Select("t-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	w.MarkComplete()
	w.MarkComplete()
	w.MarkComplete()
	if got := w.CompletedSteps("t-one"); got != 1 {
		t.Fatalf("expected 1 completed step, got %d", got)
	}
}

func TestCompletionSurvivesReselect(t *testing.T) {
	w := NewWalker(twoTutorials())
	if err := w.Select("t-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	w.MarkComplete()
	w.Advance(1)
	w.MarkComplete()
	w.Deselect()

	if _, _, ok := w.Current(); ok {
		t.Fatalf("deselect must clear the open tutorial")
	}
	if got := w.CompletedSteps("t-one"); got != 2 {
		t.Fatalf("completion must survive deselect, got %d", got)
	}

	if err := w.Select("t-one"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if w.StepIndex() != 0 {
		t.Fatalf("reselect must reset the cursor, got %d", w.StepIndex())
	}
	if !w.IsStepComplete("t-one", "a") || !w.IsStepComplete("t-one", "b") {
		t.Fatalf("steps a and b should still be complete")
	}
}

func TestMarkCompleteWithoutSelectionIsNoOp(t *testing.T) {
	w := NewWalker(twoTutorials())
	w.MarkComplete()
	w.Advance(3)
	if got := w.CompletedSteps("t-one"); got != 0 {
		t.Fatalf("expected no completions, got %d", got)
	}
}

func TestProgressAndIsComplete(t *testing.T) {
	w := NewWalker(twoTutorials())
	if err := w.Select("t-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	w.MarkComplete()
	if got := w.Progress("t-one"); got < 0.33 || got > 0.34 {
		t.Fatalf("expected progress ~1/3, got %f", got)
	}
	w.Advance(1)
	w.MarkComplete()
	w.Advance(1)
	w.MarkComplete()
	if !w.IsComplete("t-one") {
		t.Fatalf("tutorial should be complete")
	}
	if w.CompletedTutorials() != 1 {
		t.Fatalf("expected 1 completed tutorial, got %d", w.CompletedTutorials())
	}
}

func TestStepCodeFollowsCursor(t *testing.T) {
	w := NewWalker(twoTutorials())
	if w.StepCode() != "" {
		t.Fatalf("no selection should yield no code")
	}
	if err := w.Select("t-one"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := w.StepCode(); got != "let a = 1;" {
		t.Fatalf("unexpected step code %q", got)
	}
	w.Advance(1)
	if got := w.StepCode(); got != "let b = 2;" {
		t.Fatalf("unexpected step code %q", got)
	}
}

func TestRestoreIgnoresUnknownSteps(t *testing.T) {
	w := NewWalker(twoTutorials())
	w.Restore("t-one", []string{"a", "ghost"})
	if got := w.CompletedSteps("t-one"); got != 1 {
		t.Fatalf("expected 1 restored step, got %d", got)
	}
}
