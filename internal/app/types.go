package app

import "context"

type activityKind int

const (
	activityNone activityKind = iota
	activityTutorial
	activityExercise
)

// coachTask is the bookkeeping for one in-flight analysis or debug request.
// Generations order requests: a result whose generation is no longer the
// latest is stale and must not reach the view.
type coachTask struct {
	gen    uint64
	cancel context.CancelFunc
}

func (t *coachTask) next() (uint64, context.Context) {
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	return t.gen, ctx
}

func (t *coachTask) stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
