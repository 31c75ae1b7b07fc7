package session

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestAnalysisRunsAndStaleDrops(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	first, err := store.RecordAnalysisRun(ctx, AnalysisRun{
		SessionID:    "s1",
		Language:     "javascript",
		CodeChars:    24,
		RulesRun:     5,
		FindingCount: 2,
		DurationMS:   1500,
		RequestedTS:  now,
	})
	if err != nil {
		t.Fatalf("record first run: %v", err)
	}
	if _, err := store.RecordAnalysisRun(ctx, AnalysisRun{
		SessionID:   "s1",
		Language:    "javascript",
		RequestedTS: now.Add(time.Second),
	}); err != nil {
		t.Fatalf("record second run: %v", err)
	}
	if err := store.MarkAnalysisStale(ctx, first); err != nil {
		t.Fatalf("mark stale: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.AnalysisRuns != 2 {
		t.Fatalf("expected 2 runs, got %d", sum.AnalysisRuns)
	}
	if sum.StaleDrops != 1 {
		t.Fatalf("expected 1 stale drop, got %d", sum.StaleDrops)
	}
	if sum.TotalFindings != 2 {
		t.Fatalf("expected 2 findings, got %d", sum.TotalFindings)
	}
}

func TestCompletionIsIdempotentAndSumsPoints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := Completion{Kind: CompletionExercise, ItemID: "reverse-string", Points: 100}
	if err := store.RecordCompletion(ctx, c); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	// Duplicate completion must leave a single row.
	if err := store.RecordCompletion(ctx, c); err != nil {
		t.Fatalf("record duplicate completion: %v", err)
	}
	if err := store.RecordCompletion(ctx, Completion{Kind: CompletionExercise, ItemID: "fizzbuzz", Points: 150}); err != nil {
		t.Fatalf("record second completion: %v", err)
	}
	if err := store.RecordCompletion(ctx, Completion{Kind: CompletionTutorialStep, ParentID: "js-variables", ItemID: "declaring"}); err != nil {
		t.Fatalf("record step completion: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ExercisesDone != 2 {
		t.Fatalf("expected 2 exercises, got %d", sum.ExercisesDone)
	}
	if sum.PointsEarned != 250 {
		t.Fatalf("expected 250 points, got %d", sum.PointsEarned)
	}
	if sum.TutorialStepsDone != 1 {
		t.Fatalf("expected 1 tutorial step, got %d", sum.TutorialStepsDone)
	}
}

func TestListCompletionsScopedToParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	steps := []Completion{
		{Kind: CompletionTutorialStep, ParentID: "js-variables", ItemID: "declaring"},
		{Kind: CompletionTutorialStep, ParentID: "js-variables", ItemID: "primitives"},
		{Kind: CompletionTutorialStep, ParentID: "js-loops", ItemID: "classic-for"},
	}
	for _, c := range steps {
		if err := store.RecordCompletion(ctx, c); err != nil {
			t.Fatalf("record completion: %v", err)
		}
	}

	got, err := store.ListCompletions(ctx, CompletionTutorialStep, "js-variables")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(got) != 2 || got[0] != "declaring" || got[1] != "primitives" {
		t.Fatalf("unexpected completions %v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSettings(ctx, map[string]string{"theme": "dojo-dark", "language": "javascript"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"theme": "dojo-light"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}

	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if got["theme"] != "dojo-light" {
		t.Fatalf("expected overwritten theme, got %q", got["theme"])
	}
	if got["language"] != "javascript" {
		t.Fatalf("expected language setting, got %q", got["language"])
	}
}

func TestSuggestionRequestsCountFallbacks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.RecordSuggestionRequest(ctx, SuggestionRequest{SessionID: "s1", Description: "loop hangs", ResultCount: 1}); err != nil {
		t.Fatalf("record request: %v", err)
	}
	if _, err := store.RecordSuggestionRequest(ctx, SuggestionRequest{SessionID: "s1", Description: "zzz", ResultCount: 4, Fallback: true}); err != nil {
		t.Fatalf("record fallback request: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.SuggestionRequests != 2 {
		t.Fatalf("expected 2 requests, got %d", sum.SuggestionRequests)
	}
	if sum.Fallbacks != 1 {
		t.Fatalf("expected 1 fallback, got %d", sum.Fallbacks)
	}
}
