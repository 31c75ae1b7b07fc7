package exercise

import (
	"fmt"
	"math/rand"

	"codecoach/internal/catalog"
)

// Picker tracks the open exercise and per-exercise completion. Selecting an
// exercise always starts with the solution hidden; revealing it is an
// explicit toggle.
type Picker struct {
	exercises []catalog.Exercise
	byID      map[string]int
	rng       *rand.Rand

	currentID    string
	showSolution bool
	completed    map[string]struct{}
}

func NewPicker(exercises []catalog.Exercise, rng *rand.Rand) *Picker {
	p := &Picker{
		exercises: append([]catalog.Exercise(nil), exercises...),
		byID:      make(map[string]int, len(exercises)),
		rng:       rng,
		completed: make(map[string]struct{}),
	}
	for i, e := range p.exercises {
		p.byID[e.ExerciseID] = i
	}
	return p
}

func (p *Picker) Exercises() []catalog.Exercise {
	return append([]catalog.Exercise(nil), p.exercises...)
}

// Select opens an exercise with the solution hidden.
func (p *Picker) Select(exerciseID string) error {
	if _, ok := p.byID[exerciseID]; !ok {
		return fmt.Errorf("exercise %s not found", exerciseID)
	}
	p.currentID = exerciseID
	p.showSolution = false
	return nil
}

// PickRandom selects an exercise uniformly at random from the whole set,
// including already-completed ones.
func (p *Picker) PickRandom() (catalog.Exercise, error) {
	if len(p.exercises) == 0 {
		return catalog.Exercise{}, fmt.Errorf("no exercises loaded")
	}
	ex := p.exercises[p.rng.Intn(len(p.exercises))]
	p.currentID = ex.ExerciseID
	p.showSolution = false
	return ex, nil
}

// Deselect closes the open exercise. Completion state is untouched.
func (p *Picker) Deselect() {
	p.currentID = ""
	p.showSolution = false
}

func (p *Picker) Current() (catalog.Exercise, bool) {
	if p.currentID == "" {
		return catalog.Exercise{}, false
	}
	return p.exercises[p.byID[p.currentID]], true
}

// MarkComplete records the open exercise as solved. Idempotent, and a
// no-op when nothing is open.
func (p *Picker) MarkComplete() {
	if p.currentID == "" {
		return
	}
	p.completed[p.currentID] = struct{}{}
}

func (p *Picker) IsComplete(exerciseID string) bool {
	_, ok := p.completed[exerciseID]
	return ok
}

func (p *Picker) CompletedCount() int { return len(p.completed) }

// ToggleSolution flips solution visibility for the open exercise. A no-op
// when nothing is open.
func (p *Picker) ToggleSolution() {
	if p.currentID == "" {
		return
	}
	p.showSolution = !p.showSolution
}

func (p *Picker) SolutionVisible() bool { return p.showSolution }

// EarnedPoints sums the points of every completed exercise.
func (p *Picker) EarnedPoints() int {
	total := 0
	for id := range p.completed {
		total += p.exercises[p.byID[id]].Points
	}
	return total
}

// Progress is the completed fraction of all exercises in [0, 1].
func (p *Picker) Progress() float64 {
	if len(p.exercises) == 0 {
		return 0
	}
	return float64(len(p.completed)) / float64(len(p.exercises))
}

// Restore re-applies completion state, used when resuming a session.
func (p *Picker) Restore(exerciseIDs []string) {
	for _, id := range exerciseIDs {
		if _, ok := p.byID[id]; ok {
			p.completed[id] = struct{}{}
		}
	}
}
