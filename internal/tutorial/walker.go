package tutorial

import (
	"fmt"

	"codecoach/internal/catalog"
)

// Walker tracks which tutorial is open and which step the learner is on.
// Step completion is remembered per tutorial, so closing a tutorial and
// coming back later keeps its checkmarks. Only the open tutorial and its
// step cursor are forgotten on Deselect.
type Walker struct {
	tutorials []catalog.Tutorial
	byID      map[string]int

	currentID string
	stepIdx   int

	// tutorial id -> set of completed step ids
	completed map[string]map[string]struct{}
}

func NewWalker(tutorials []catalog.Tutorial) *Walker {
	w := &Walker{
		tutorials: append([]catalog.Tutorial(nil), tutorials...),
		byID:      make(map[string]int, len(tutorials)),
		completed: make(map[string]map[string]struct{}),
	}
	for i, t := range w.tutorials {
		w.byID[t.TutorialID] = i
	}
	return w
}

func (w *Walker) Tutorials() []catalog.Tutorial {
	return append([]catalog.Tutorial(nil), w.tutorials...)
}

// Select opens a tutorial and resets the step cursor to the first step.
// Previously completed steps of that tutorial stay completed.
func (w *Walker) Select(tutorialID string) error {
	if _, ok := w.byID[tutorialID]; !ok {
		return fmt.Errorf("tutorial %s not found", tutorialID)
	}
	w.currentID = tutorialID
	w.stepIdx = 0
	return nil
}

// Deselect closes the open tutorial. Completion state is untouched.
func (w *Walker) Deselect() {
	w.currentID = ""
	w.stepIdx = 0
}

// Current returns the open tutorial and the step under the cursor.
func (w *Walker) Current() (catalog.Tutorial, catalog.Step, bool) {
	if w.currentID == "" {
		return catalog.Tutorial{}, catalog.Step{}, false
	}
	t := w.tutorials[w.byID[w.currentID]]
	return t, t.Steps[w.stepIdx], true
}

func (w *Walker) StepIndex() int { return w.stepIdx }

// Advance moves the step cursor by delta, clamped to the step range. A
// no-op when no tutorial is open.
func (w *Walker) Advance(delta int) {
	if w.currentID == "" {
		return
	}
	t := w.tutorials[w.byID[w.currentID]]
	w.stepIdx += delta
	if w.stepIdx < 0 {
		w.stepIdx = 0
	}
	if max := len(t.Steps) - 1; w.stepIdx > max {
		w.stepIdx = max
	}
}

// MarkComplete records the step under the cursor as done. Idempotent, and
// a no-op when no tutorial is open.
func (w *Walker) MarkComplete() {
	if w.currentID == "" {
		return
	}
	t := w.tutorials[w.byID[w.currentID]]
	set, ok := w.completed[w.currentID]
	if !ok {
		set = make(map[string]struct{})
		w.completed[w.currentID] = set
	}
	set[t.Steps[w.stepIdx].StepID] = struct{}{}
}

func (w *Walker) IsStepComplete(tutorialID, stepID string) bool {
	_, ok := w.completed[tutorialID][stepID]
	return ok
}

func (w *Walker) CompletedSteps(tutorialID string) int {
	return len(w.completed[tutorialID])
}

// IsComplete reports whether every step of the tutorial has been marked.
func (w *Walker) IsComplete(tutorialID string) bool {
	idx, ok := w.byID[tutorialID]
	if !ok {
		return false
	}
	return len(w.completed[tutorialID]) == len(w.tutorials[idx].Steps)
}

// Progress is the completed fraction of the tutorial in [0, 1].
func (w *Walker) Progress(tutorialID string) float64 {
	idx, ok := w.byID[tutorialID]
	if !ok {
		return 0
	}
	total := len(w.tutorials[idx].Steps)
	if total == 0 {
		return 0
	}
	return float64(len(w.completed[tutorialID])) / float64(total)
}

// CompletedTutorials counts tutorials with every step marked done.
func (w *Walker) CompletedTutorials() int {
	n := 0
	for _, t := range w.tutorials {
		if w.IsComplete(t.TutorialID) {
			n++
		}
	}
	return n
}

// StepCode returns the example code of the step under the cursor, empty
// when no tutorial is open or the step carries no code.
func (w *Walker) StepCode() string {
	_, step, ok := w.Current()
	if !ok {
		return ""
	}
	return step.Code
}

// Restore re-applies completion state, used when resuming a session.
func (w *Walker) Restore(tutorialID string, stepIDs []string) {
	idx, ok := w.byID[tutorialID]
	if !ok {
		return
	}
	valid := make(map[string]struct{}, len(w.tutorials[idx].Steps))
	for _, s := range w.tutorials[idx].Steps {
		valid[s.StepID] = struct{}{}
	}
	set, ok := w.completed[tutorialID]
	if !ok {
		set = make(map[string]struct{})
		w.completed[tutorialID] = set
	}
	for _, id := range stepIDs {
		if _, ok := valid[id]; ok {
			set[id] = struct{}{}
		}
	}
}
