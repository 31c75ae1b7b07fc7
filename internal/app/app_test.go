package app

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"codecoach/internal/analysis"
	"codecoach/internal/catalog"
	"codecoach/internal/devtools"
	"codecoach/internal/exercise"
	"codecoach/internal/session"
	"codecoach/internal/suggest"
	"codecoach/internal/telemetry"
	"codecoach/internal/tutorial"
	"codecoach/internal/ui"
)

type fakeView struct {
	mu           sync.Mutex
	findings     []ui.FindingsState
	suggestions  []ui.SuggestionsState
	analyzing    []bool
	flashes      []string
	editorCodes  []string
	screen       ui.Screen
	infoTitles   []string
	infoTexts    []string
}

func (f *fakeView) Run() error                  { return nil }
func (f *fakeView) Stop()                       {}
func (f *fakeView) SetController(ui.Controller) {}
func (f *fakeView) SetScreen(s ui.Screen) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = s
}
func (f *fakeView) SetHomeState(ui.HomeState)            {}
func (f *fakeView) SetLibrary(ui.LibraryState)           {}
func (f *fakeView) SetLibrarySelection(string, string)   {}
func (f *fakeView) SetWorkspaceState(ui.WorkspaceState)  {}
func (f *fakeView) SetEditorCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editorCodes = append(f.editorCodes, code)
}
func (f *fakeView) SetAnalyzing(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzing = append(f.analyzing, on)
}
func (f *fakeView) SetDebugging(bool) {}
func (f *fakeView) SetFindings(s ui.FindingsState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findings = append(f.findings, s)
}
func (f *fakeView) SetSuggestions(s ui.SuggestionsState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestions = append(f.suggestions, s)
}
func (f *fakeView) SetStep(ui.StepState, bool)      {}
func (f *fakeView) SetSolution(string, bool)        {}
func (f *fakeView) SetTestCases([]ui.TestCaseRow, bool) {}
func (f *fakeView) SetInfo(title, text string, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoTitles = append(f.infoTitles, title)
	f.infoTexts = append(f.infoTexts, text)
}
func (f *fakeView) SetMenuOpen(bool)     {}
func (f *fakeView) SetTooSmall(int, int) {}
func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, msg)
}
func (f *fakeView) RequestDraw() {}

func (f *fakeView) visibleFindings() []ui.FindingsState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ui.FindingsState, 0)
	for _, s := range f.findings {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeView) visibleSuggestions() []ui.SuggestionsState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ui.SuggestionsState, 0)
	for _, s := range f.suggestions {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

func testContent() ([]catalog.Tutorial, []catalog.Exercise) {
	tutorials := []catalog.Tutorial{{
		TutorialID: "t-vars",
		Title:      "Variables",
		Steps: []catalog.Step{
			{StepID: "s1", Title: "Declare", ContentMD: "Use let.", Code: "let a = 1;"},
			{StepID: "s2", Title: "Log", ContentMD: "Print it.", Code: "console.log(a);"},
		},
	}}
	exercises := []catalog.Exercise{
		{ExerciseID: "ex-rev", Title: "Reverse", StarterCode: "function r(s) {}", SolutionCode: "done", Points: 100,
			TestCases: []catalog.TestCase{{Input: "'ab'", Expected: "'ba'"}}},
		{ExerciseID: "ex-sum", Title: "Sum", StarterCode: "function s(a) {}", SolutionCode: "done", Points: 150},
	}
	return tutorials, exercises
}

func newTestApp(t *testing.T, view *fakeView) *App {
	t.Helper()
	logger, err := telemetry.NewJSONLogger("", telemetry.LevelError)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store, err := session.NewMemory()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Coach.AnalysisDelayMS = 30
	cfg.Coach.DebugDelayMS = 20
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	tutorials, exercises := testContent()
	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		loader:    catalog.NewLoader(),
		analyzer:  analysis.New(nil),
		suggester: suggest.New(nil),
		walker:    tutorial.NewWalker(tutorials),
		picker:    exercise.NewPicker(exercises, rand.New(rand.NewSource(1))),
		demo:      devtools.NewManager(),
		view:      view,
		language:  cfg.Language,
		sessionID: "test-session",
	}
	t.Cleanup(func() {
		a.mu.Lock()
		a.analysisTask.stop()
		a.debugTask.stop()
		a.mu.Unlock()
		_ = store.Close()
		_ = logger.Close()
	})
	return a
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within deadline")
	}
}

func TestAnalyzeBlankCodeIsRefusedWithoutARun(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnCodeChanged("   \n\t  ")
	a.OnAnalyze()

	view.mu.Lock()
	analyzing := len(view.analyzing)
	flashes := append([]string(nil), view.flashes...)
	view.mu.Unlock()
	if analyzing != 0 {
		t.Fatalf("blank input must not start the engine")
	}
	if len(flashes) != 1 || flashes[0] != "Nothing to analyze yet" {
		t.Fatalf("expected a refusal flash, got %v", flashes)
	}
	summary, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.AnalysisRuns != 0 {
		t.Fatalf("no run should be recorded for blank input, got %d", summary.AnalysisRuns)
	}
}

func TestSecondAnalyzeDropsTheFirstAsStale(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	// The edit schedules a background run, then two explicit requests
	// supersede it and each other. Only the last may reach the view.
	a.OnCodeChanged("var x = 1;\nconsole.log(x);")
	a.OnAnalyze()
	a.OnAnalyze()

	waitUntil(t, func() bool { return len(view.visibleFindings()) >= 1 })
	time.Sleep(100 * time.Millisecond)

	got := view.visibleFindings()
	if len(got) != 1 {
		t.Fatalf("stale result must not reach the view, got %d visible reports", len(got))
	}
	if len(got[0].Rows) != 2 {
		t.Fatalf("expected prefer-let-const and debug-statements findings, got %+v", got[0].Rows)
	}

	waitUntil(t, func() bool {
		summary, err := a.store.GetSummary(context.Background())
		return err == nil && summary.AnalysisRuns == 3 && summary.StaleDrops == 2
	})
}

func TestTypingSchedulesBackgroundAnalysis(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnCodeChanged("var x = 1;")

	waitUntil(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.findings) > 0 && len(view.findings[len(view.findings)-1].Rows) == 1
	})
	view.mu.Lock()
	last := view.findings[len(view.findings)-1]
	view.mu.Unlock()
	if last.Visible {
		t.Fatalf("a background run must not open the report overlay")
	}

	// Clearing the editor cancels pending work and wipes the findings.
	a.OnCodeChanged("   ")
	view.mu.Lock()
	cleared := view.findings[len(view.findings)-1]
	view.mu.Unlock()
	if cleared.RulesRun != 0 || len(cleared.Rows) != 0 {
		t.Fatalf("blank input must clear findings, got %+v", cleared)
	}
}

func TestDebugHelpFallsBackAndRecordsIt(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnDebugHelp("zzz qqq")

	waitUntil(t, func() bool { return len(view.visibleSuggestions()) == 1 })
	got := view.visibleSuggestions()[0]
	if !got.Fallback {
		t.Fatalf("expected full-catalog fallback for an unmatched description")
	}
	if len(got.Rows) != len(suggest.DefaultCatalog()) {
		t.Fatalf("fallback must show the whole catalog, got %d rows", len(got.Rows))
	}

	waitUntil(t, func() bool {
		summary, err := a.store.GetSummary(context.Background())
		return err == nil && summary.SuggestionRequests == 1 && summary.Fallbacks == 1
	})
}

func TestStepCompleteIsIdempotentAndMovesProgress(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	progress := func() float64 {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.overallProgress()
	}

	a.OnSelectTutorial("t-vars")
	if got := progress(); got != 0 {
		t.Fatalf("expected zero progress, got %f", got)
	}

	a.OnStepComplete()
	a.OnStepComplete()

	// 2 steps + 2 exercises, one item done.
	if got := progress(); got != 0.25 {
		t.Fatalf("expected progress 0.25, got %f", got)
	}
	summary, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TutorialStepsDone != 1 {
		t.Fatalf("repeat completion must not double count, got %d", summary.TutorialStepsDone)
	}
}

func TestStateSnapshotsAreSafeDuringCompletions(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnSelectTutorial("t-vars")

	// Completions and snapshot reads come from different key events, so
	// they run on different goroutines. The race detector keeps this honest.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			a.OnStepComplete()
			a.OnStepAdvance(1)
			a.OnStepAdvance(-1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = a.homeState()
			_ = a.libraryState()
			_ = a.workspaceState()
			_ = a.stepState()
		}
	}()
	wg.Wait()

	if got := a.homeState().StepsDone; got == 0 {
		t.Fatalf("expected completed steps to be visible after the churn")
	}
}

func TestCycleLanguageRetriggersAnalysisAndPersists(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnCodeChanged("console.log(1)")
	waitUntil(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.findings) > 0 && len(view.findings[len(view.findings)-1].Rows) == 1
	})

	// javascript -> typescript: the console.log rule stops matching, so the
	// re-run must come back clean.
	a.OnCycleLanguage()
	waitUntil(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		last := view.findings[len(view.findings)-1]
		return last.RulesRun > 0 && len(last.Rows) == 0
	})

	stored, err := a.store.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if stored["language"] != "typescript" {
		t.Fatalf("expected persisted language typescript, got %q", stored["language"])
	}
}

func TestSettingsOverlayReflectsStoredLanguage(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnCycleLanguage()
	a.OnOpenSettings()

	view.mu.Lock()
	titles := append([]string(nil), view.infoTitles...)
	texts := append([]string(nil), view.infoTexts...)
	view.mu.Unlock()
	if len(titles) == 0 || titles[len(titles)-1] != "Settings" {
		t.Fatalf("expected a settings overlay, got %v", titles)
	}
	if !strings.Contains(texts[len(texts)-1], "typescript") {
		t.Fatalf("settings overlay should show the switched language, got %q", texts[len(texts)-1])
	}
}

func TestSelectTutorialLoadsStepCodeIntoEditor(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnSelectTutorial("t-vars")

	view.mu.Lock()
	codes := append([]string(nil), view.editorCodes...)
	screen := view.screen
	view.mu.Unlock()
	if len(codes) == 0 || codes[len(codes)-1] != "let a = 1;" {
		t.Fatalf("expected step code in the editor, got %v", codes)
	}
	if screen != ui.ScreenWorkspace {
		t.Fatalf("expected workspace screen, got %v", screen)
	}

	a.mu.Lock()
	current := a.currentCode
	a.mu.Unlock()
	if current != "let a = 1;" {
		t.Fatalf("pass-through code state not updated, got %q", current)
	}
}

func TestExerciseCompleteAwardsPointsOnce(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnSelectExercise("ex-sum")
	a.OnExerciseComplete()
	a.OnExerciseComplete()

	summary, err := a.store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ExercisesDone != 1 || summary.PointsEarned != 150 {
		t.Fatalf("expected one completion worth 150 points, got %+v", summary)
	}
	if a.picker.EarnedPoints() != 150 {
		t.Fatalf("picker points mismatch: %d", a.picker.EarnedPoints())
	}
}

func TestRandomExerciseHidesSolution(t *testing.T) {
	view := &fakeView{}
	a := newTestApp(t, view)

	a.OnSelectExercise("ex-rev")
	a.OnToggleSolution()
	if !a.picker.SolutionVisible() {
		t.Fatalf("toggle should reveal the solution")
	}

	a.OnRandomExercise()
	if a.picker.SolutionVisible() {
		t.Fatalf("a fresh pick must start with the solution hidden")
	}
}
