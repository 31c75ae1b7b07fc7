package session

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordAnalysisRun(ctx context.Context, run AnalysisRun) (int64, error)
	MarkAnalysisStale(ctx context.Context, runID int64) error
	RecordSuggestionRequest(ctx context.Context, req SuggestionRequest) (int64, error)
	RecordCompletion(ctx context.Context, c Completion) error
	ListCompletions(ctx context.Context, kind, parentID string) ([]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	Close() error
}

const (
	CompletionTutorialStep = "tutorial_step"
	CompletionExercise     = "exercise"
)

type AnalysisRun struct {
	SessionID    string
	Language     string
	CodeChars    int
	RulesRun     int
	FindingCount int
	DurationMS   int64
	RequestedTS  time.Time
}

type SuggestionRequest struct {
	SessionID   string
	Description string
	CodeChars   int
	ResultCount int
	Fallback    bool
	RequestedTS time.Time
}

// Completion is one completion event. ParentID is the tutorial id for
// tutorial steps and empty for exercises; ItemID is the step or exercise id.
type Completion struct {
	Kind     string
	ParentID string
	ItemID   string
	Points   int
	TS       time.Time
}

type Summary struct {
	AnalysisRuns       int
	StaleDrops         int
	TotalFindings      int
	SuggestionRequests int
	Fallbacks          int
	TutorialStepsDone  int
	ExercisesDone      int
	PointsEarned       int
}
