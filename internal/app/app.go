package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
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

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type App struct {
	cfg Config

	logger    *telemetry.JSONLogger
	store     session.Store
	loader    *catalog.FSLoader
	catalogs  []catalog.Catalog
	analyzer  CodeAnalyzer
	suggester DebugSuggester
	walker    *tutorial.Walker
	picker    *exercise.Picker
	demo      *devtools.Manager

	view   ui.View
	screen ui.Screen

	sessionID string

	mu           sync.Mutex
	currentCode  string
	language     string
	activity     activityKind
	lastActivity string
	analysisTask coachTask
	debugTask    coachTask

	devMu     sync.Mutex
	devServer *http.Server
	demoMu    sync.Mutex
	devState  struct {
		State     string
		Demo      string
		RenderSeq int
		Rendered  bool
		Pending   bool
		Error     string
	}
}

func New(cfg Config) (*App, error) {
	logger, err := telemetry.NewJSONLogger(cfg.LogPath, telemetry.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	store, err := session.NewMemory()
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	if err := store.SaveSettings(context.Background(), map[string]string{
		"language":      cfg.Language,
		"style_variant": cfg.UI.StyleVariant,
		"motion_level":  cfg.UI.MotionLevel,
		"mouse_scope":   cfg.UI.MouseScope,
	}); err != nil {
		logger.Error("settings.seed_failed", map[string]any{"error": err.Error()})
	}

	loader := catalog.NewLoader()
	catalogs, err := loader.LoadCatalogs(context.Background(), cfg.ContentDir)
	if err != nil {
		// The built-in rule table and suggestion catalog keep the coach
		// usable without a content tree, so a missing one is not fatal.
		logger.Error("catalog.load_failed", map[string]any{"dir": cfg.ContentDir, "error": err.Error()})
		catalogs = nil
	}

	var tutorials []catalog.Tutorial
	var exercises []catalog.Exercise
	for _, c := range catalogs {
		tutorials = append(tutorials, c.LoadedTutorials...)
		exercises = append(exercises, c.LoadedExercises...)
	}

	seed := cfg.Coach.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		Language:     cfg.Language,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
		MouseScope:   cfg.UI.MouseScope,
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		loader:    loader,
		catalogs:  catalogs,
		analyzer:  analysis.New(catalog.CollectRules(catalogs)),
		suggester: suggest.New(catalog.CollectSuggestions(catalogs)),
		walker:    tutorial.NewWalker(tutorials),
		picker:    exercise.NewPicker(exercises, rng),
		demo:      devtools.NewManager(),
		view:      view,
		screen:    ui.ScreenHome,
		language:  cfg.Language,
		sessionID: uuid.NewString(),
	}
	logger.WithSession(a.sessionID)
	view.SetController(a)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"catalogs":  len(a.catalogs),
		"tutorials": len(a.walker.Tutorials()),
		"exercises": len(a.picker.Exercises()),
		"language":  a.cfg.Language,
	})

	a.view.SetHomeState(a.homeState())
	a.view.SetLibrary(a.libraryState())
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetScreen(ui.ScreenHome)
	a.screen = ui.ScreenHome

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			if _, err := a.runDemoScenario(ctx, a.cfg.DemoScenario); err != nil {
				a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			}
		} else {
			a.setDevState("home", "")
			_ = a.demo.SetState(ctx, "", "home", true)
		}
	}

	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
	}
	a.mu.Lock()
	a.analysisTask.stop()
	a.debugTask.stop()
	a.mu.Unlock()
	_ = a.store.Close()
	_ = a.logger.Close()
}

// View exposes the UI root so main can stop it on signals.
func (a *App) View() ui.View { return a.view }

func (a *App) OnOpenLibrary() {
	a.view.SetLibrary(a.libraryState())
	a.view.SetScreen(ui.ScreenLibrary)
	a.screen = ui.ScreenLibrary
}

func (a *App) OnBackToHome() {
	a.view.SetHomeState(a.homeState())
	a.view.SetScreen(ui.ScreenHome)
	a.screen = ui.ScreenHome
}

func (a *App) OnSelectTutorial(tutorialID string) {
	a.mu.Lock()
	if err := a.walker.Select(tutorialID); err != nil {
		a.mu.Unlock()
		a.view.FlashStatus(err.Error())
		return
	}
	a.picker.Deselect()
	a.activity = activityTutorial
	t, _, _ := a.walker.Current()
	a.lastActivity = t.Title
	code := a.walker.StepCode()
	a.currentCode = code
	a.mu.Unlock()

	a.logger.Info("tutorial.selected", map[string]any{"tutorial": tutorialID})
	a.view.SetEditorCode(code)
	a.view.SetSolution("", false)
	a.view.SetTestCases(nil, false)
	a.view.SetFindings(ui.FindingsState{})
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetStep(a.stepState(), true)
	a.view.SetScreen(ui.ScreenWorkspace)
	a.screen = ui.ScreenWorkspace
	a.scheduleAnalysis(code, false)
}

func (a *App) OnSelectExercise(exerciseID string) {
	a.mu.Lock()
	if err := a.picker.Select(exerciseID); err != nil {
		a.mu.Unlock()
		a.view.FlashStatus(err.Error())
		return
	}
	a.walker.Deselect()
	a.activity = activityExercise
	ex, _ := a.picker.Current()
	a.lastActivity = ex.Title
	a.currentCode = ex.StarterCode
	a.mu.Unlock()

	a.logger.Info("exercise.selected", map[string]any{"exercise": exerciseID})
	a.view.SetEditorCode(ex.StarterCode)
	a.view.SetStep(ui.StepState{}, false)
	a.view.SetSolution("", false)
	a.view.SetTestCases(nil, false)
	a.view.SetFindings(ui.FindingsState{})
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetScreen(ui.ScreenWorkspace)
	a.screen = ui.ScreenWorkspace
	a.scheduleAnalysis(ex.StarterCode, false)
}

func (a *App) OnRandomExercise() {
	a.mu.Lock()
	ex, err := a.picker.PickRandom()
	a.mu.Unlock()
	if err != nil {
		a.view.FlashStatus("No exercises loaded")
		return
	}
	a.OnSelectExercise(ex.ExerciseID)
	a.view.FlashStatus("Picked: " + ex.Title)
}

func (a *App) OnStepAdvance(delta int) {
	a.mu.Lock()
	if a.activity != activityTutorial {
		a.mu.Unlock()
		return
	}
	a.walker.Advance(delta)
	code := a.walker.StepCode()
	if code != "" {
		a.currentCode = code
	}
	a.mu.Unlock()

	if code != "" {
		a.view.SetEditorCode(code)
		a.scheduleAnalysis(code, false)
	}
	a.view.SetStep(a.stepState(), true)
	a.view.SetWorkspaceState(a.workspaceState())
}

func (a *App) OnStepComplete() {
	a.mu.Lock()
	t, step, ok := a.walker.Current()
	if !ok {
		a.mu.Unlock()
		return
	}
	a.walker.MarkComplete()
	tutorialDone := a.walker.IsComplete(t.TutorialID)
	a.mu.Unlock()

	_ = a.store.RecordCompletion(context.Background(), session.Completion{
		Kind:     session.CompletionTutorialStep,
		ParentID: t.TutorialID,
		ItemID:   step.StepID,
		TS:       time.Now(),
	})
	a.logger.Info("tutorial.step_completed", map[string]any{"tutorial": t.TutorialID, "step": step.StepID})

	a.view.SetStep(a.stepState(), true)
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetHomeState(a.homeState())
	a.view.SetLibrary(a.libraryState())
	if tutorialDone {
		a.view.FlashStatus("Tutorial complete: " + t.Title)
	}
}

func (a *App) OnExerciseComplete() {
	a.mu.Lock()
	ex, ok := a.picker.Current()
	if !ok {
		a.mu.Unlock()
		return
	}
	already := a.picker.IsComplete(ex.ExerciseID)
	a.picker.MarkComplete()
	a.mu.Unlock()

	_ = a.store.RecordCompletion(context.Background(), session.Completion{
		Kind:   session.CompletionExercise,
		ItemID: ex.ExerciseID,
		Points: ex.Points,
		TS:     time.Now(),
	})
	a.logger.Info("exercise.completed", map[string]any{"exercise": ex.ExerciseID, "points": ex.Points, "repeat": already})

	if !already {
		a.view.FlashStatus(fmt.Sprintf("Solved! +%d points", ex.Points))
	}
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetHomeState(a.homeState())
	a.view.SetLibrary(a.libraryState())
}

func (a *App) OnCloseActivity() {
	a.mu.Lock()
	a.walker.Deselect()
	a.picker.Deselect()
	a.activity = activityNone
	a.mu.Unlock()

	a.view.SetStep(ui.StepState{}, false)
	a.view.SetSolution("", false)
	a.view.SetTestCases(nil, false)
	a.view.SetWorkspaceState(a.workspaceState())
	a.view.SetLibrary(a.libraryState())
	a.view.SetScreen(ui.ScreenLibrary)
	a.screen = ui.ScreenLibrary
}

func (a *App) OnAnalyze() {
	a.mu.Lock()
	code := a.currentCode
	a.mu.Unlock()
	if strings.TrimSpace(code) == "" {
		a.view.SetFindings(ui.FindingsState{})
		a.view.FlashStatus("Nothing to analyze yet")
		return
	}
	a.scheduleAnalysis(code, true)
}

// scheduleAnalysis starts a versioned background run over the given code.
// Results land in the HUD; open also brings up the report overlay. Blank
// code never starts a run and clears whatever findings are showing.
func (a *App) scheduleAnalysis(code string, open bool) {
	a.mu.Lock()
	if strings.TrimSpace(code) == "" {
		hadRun := a.analysisTask.cancel != nil
		a.analysisTask.next()
		a.analysisTask.stop()
		a.mu.Unlock()
		if hadRun {
			a.view.SetAnalyzing(false)
		}
		a.view.SetFindings(ui.FindingsState{})
		return
	}
	gen, ctx := a.analysisTask.next()
	lang := a.language
	a.mu.Unlock()

	a.view.SetAnalyzing(true)
	a.logger.Info("analysis.requested", map[string]any{"gen": gen, "open": open, "chars": len(code)})
	go a.runAnalysis(ctx, gen, code, lang, open)
}

func (a *App) runAnalysis(ctx context.Context, gen uint64, code, lang string, open bool) {
	requested := time.Now()
	canceled := false
	select {
	case <-ctx.Done():
		canceled = true
	case <-time.After(time.Duration(a.cfg.Coach.AnalysisDelayMS) * time.Millisecond):
	}

	var report analysis.Report
	var evalErr error
	if !canceled {
		report, evalErr = a.analyzer.Analyze(ctx, analysis.Request{Code: code, Language: lang})
		if evalErr != nil && ctx.Err() != nil {
			canceled = true
			evalErr = nil
		}
	}

	runID, _ := a.store.RecordAnalysisRun(context.Background(), session.AnalysisRun{
		SessionID:    a.sessionID,
		Language:     lang,
		CodeChars:    len(code),
		RulesRun:     report.RulesRun,
		FindingCount: len(report.Findings),
		DurationMS:   time.Since(requested).Milliseconds(),
		RequestedTS:  requested,
	})

	a.mu.Lock()
	stale := canceled || gen != a.analysisTask.gen
	a.mu.Unlock()
	if stale {
		_ = a.store.MarkAnalysisStale(context.Background(), runID)
		a.logger.Info("analysis.stale_dropped", map[string]any{"gen": gen})
		return
	}

	a.view.SetAnalyzing(false)
	if evalErr != nil {
		a.logger.Error("analysis.failed", map[string]any{"error": evalErr.Error()})
		a.view.FlashStatus("Analysis failed, see log")
		return
	}

	rows := make([]ui.FindingRow, 0, len(report.Findings))
	for _, f := range report.Findings {
		rows = append(rows, ui.FindingRow{
			RuleID:   f.RuleID,
			Category: string(f.Category),
			Severity: string(f.Severity),
			Message:  f.Message,
			Fix:      f.Fix,
			Line:     f.Line,
		})
	}
	a.logger.Info("analysis.completed", map[string]any{"gen": gen, "findings": len(rows), "open": open})
	a.view.SetFindings(ui.FindingsState{
		Visible:  open,
		Language: report.Language,
		RulesRun: report.RulesRun,
		Rows:     rows,
	})
	a.view.RequestDraw()
}

func (a *App) OnDebugHelp(description string) {
	a.mu.Lock()
	code := a.currentCode
	gen, ctx := a.debugTask.next()
	a.mu.Unlock()

	a.view.SetDebugging(true)
	a.logger.Info("debug.requested", map[string]any{"gen": gen, "desc_chars": len(description)})
	go a.runDebugHelp(ctx, gen, description, code)
}

func (a *App) runDebugHelp(ctx context.Context, gen uint64, description, code string) {
	requested := time.Now()
	canceled := false
	select {
	case <-ctx.Done():
		canceled = true
	case <-time.After(time.Duration(a.cfg.Coach.DebugDelayMS) * time.Millisecond):
	}

	var matches []suggest.Suggestion
	var fallback bool
	var evalErr error
	if !canceled {
		matches, fallback, evalErr = a.suggester.Match(ctx, suggest.Request{Description: description, Code: code})
		if evalErr != nil && ctx.Err() != nil {
			canceled = true
			evalErr = nil
		}
	}

	_, _ = a.store.RecordSuggestionRequest(context.Background(), session.SuggestionRequest{
		SessionID:   a.sessionID,
		Description: description,
		CodeChars:   len(code),
		ResultCount: len(matches),
		Fallback:    fallback,
		RequestedTS: requested,
	})

	a.mu.Lock()
	stale := canceled || gen != a.debugTask.gen
	a.mu.Unlock()
	if stale {
		a.logger.Info("debug.stale_dropped", map[string]any{"gen": gen})
		return
	}

	a.view.SetDebugging(false)
	if evalErr != nil {
		a.logger.Error("debug.failed", map[string]any{"error": evalErr.Error()})
		a.view.FlashStatus("Debug help failed, see log")
		return
	}

	rows := make([]ui.SuggestionRow, 0, len(matches))
	for _, s := range matches {
		rows = append(rows, ui.SuggestionRow{
			ID:          s.ID,
			Category:    string(s.Category),
			Title:       s.Title,
			Description: s.Description,
			Solution:    s.Solution,
			CodeExample: s.CodeExample,
		})
	}
	a.logger.Info("debug.completed", map[string]any{"gen": gen, "results": len(rows), "fallback": fallback})
	a.view.SetSuggestions(ui.SuggestionsState{Visible: true, Fallback: fallback, Rows: rows})
	a.view.RequestDraw()
}

func (a *App) OnToggleSolution() {
	a.mu.Lock()
	ex, ok := a.picker.Current()
	if !ok {
		a.mu.Unlock()
		a.view.FlashStatus("Open an exercise to view its solution")
		return
	}
	a.picker.ToggleSolution()
	visible := a.picker.SolutionVisible()
	a.mu.Unlock()

	if visible {
		a.view.SetSolution(ex.SolutionCode, true)
	} else {
		a.view.SetSolution("", false)
	}
	a.view.SetWorkspaceState(a.workspaceState())
}

func (a *App) OnShowTestCases() {
	a.mu.Lock()
	ex, ok := a.picker.Current()
	a.mu.Unlock()
	if !ok {
		a.view.FlashStatus("Open an exercise to view its test cases")
		return
	}
	rows := make([]ui.TestCaseRow, 0, len(ex.TestCases))
	for _, tc := range ex.TestCases {
		rows = append(rows, ui.TestCaseRow{Input: tc.Input, Expected: tc.Expected})
	}
	a.view.SetTestCases(rows, true)
}

func (a *App) OnCodeChanged(code string) {
	a.mu.Lock()
	a.currentCode = code
	a.mu.Unlock()
	a.scheduleAnalysis(code, false)
}

func (a *App) OnResetCode() {
	a.mu.Lock()
	target := ""
	switch a.activity {
	case activityTutorial:
		target = a.walker.StepCode()
	case activityExercise:
		if ex, ok := a.picker.Current(); ok {
			target = ex.StarterCode
		}
	}
	a.currentCode = target
	a.mu.Unlock()

	a.view.SetEditorCode(target)
	a.view.FlashStatus("Editor reset")
	a.scheduleAnalysis(target, false)
}

func (a *App) OnOpenSettings() {
	stored, err := a.store.LoadSettings(context.Background())
	if err != nil {
		a.logger.Error("settings.load_failed", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Settings unavailable")
		return
	}
	get := func(key, fallback string) string {
		if v := stored[key]; v != "" {
			return v
		}
		return fallback
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Language:        %s\n", get("language", a.cfg.Language))
	fmt.Fprintf(&b, "Content dir:     %s\n", a.cfg.ContentDir)
	fmt.Fprintf(&b, "Style variant:   %s\n", get("style_variant", a.cfg.UI.StyleVariant))
	fmt.Fprintf(&b, "Motion level:    %s\n", get("motion_level", a.cfg.UI.MotionLevel))
	fmt.Fprintf(&b, "Mouse scope:     %s\n", get("mouse_scope", a.cfg.UI.MouseScope))
	fmt.Fprintf(&b, "Analysis delay:  %d ms\n", a.cfg.Coach.AnalysisDelayMS)
	fmt.Fprintf(&b, "Debug delay:     %d ms\n", a.cfg.Coach.DebugDelayMS)
	b.WriteString("\nSettings come from flags and CODECOACH_* environment variables.")
	b.WriteString("\nF7 switches the analysis language for this session.")
	a.view.SetInfo("Settings", b.String(), true)
}

// languageRotation is the order F7 walks through.
var languageRotation = []string{"javascript", "typescript", "python", "go"}

func (a *App) OnCycleLanguage() {
	a.mu.Lock()
	next := languageRotation[0]
	for i, lang := range languageRotation {
		if lang == a.language {
			next = languageRotation[(i+1)%len(languageRotation)]
			break
		}
	}
	a.language = next
	code := a.currentCode
	a.mu.Unlock()

	if err := a.store.SaveSettings(context.Background(), map[string]string{"language": next}); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"error": err.Error()})
	}
	a.logger.Info("language.changed", map[string]any{"language": next})
	a.view.FlashStatus("Language: " + next)
	a.view.SetWorkspaceState(a.workspaceState())
	a.scheduleAnalysis(code, false)
}

func (a *App) OnOpenStats() {
	summary, err := a.store.GetSummary(context.Background())
	if err != nil {
		a.logger.Error("stats.load_failed", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Stats unavailable")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis runs:       %d (%d stale, dropped)\n", summary.AnalysisRuns, summary.StaleDrops)
	fmt.Fprintf(&b, "Findings surfaced:   %d\n", summary.TotalFindings)
	fmt.Fprintf(&b, "Debug requests:      %d (%d full-catalog fallbacks)\n", summary.SuggestionRequests, summary.Fallbacks)
	fmt.Fprintf(&b, "Tutorial steps done: %d\n", summary.TutorialStepsDone)
	fmt.Fprintf(&b, "Exercises solved:    %d\n", summary.ExercisesDone)
	fmt.Fprintf(&b, "Points earned:       %s\n", humanize.Comma(int64(summary.PointsEarned)))
	b.WriteString("\nEverything above is per session and gone on exit.")
	a.view.SetInfo("Session Stats", b.String(), true)
}

func (a *App) OnAIHelp() {
	a.mu.Lock()
	code := a.currentCode
	lang := a.language
	a.mu.Unlock()
	text := buildExplainText(code, lang) +
		"\n\nThis build ships no AI provider; the explanation above is local and heuristic."
	a.view.SetInfo("AI Help", text, true)
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", nil)
	a.view.Stop()
}

func (a *App) OnResize(cols, rows int) {
	a.logger.Debug("ui.resized", map[string]any{"cols": cols, "rows": rows})
}

func (a *App) homeState() ui.HomeState {
	summary, _ := a.store.GetSummary(context.Background())
	rules := a.analyzer.Rules()
	sugs := a.suggester.Catalog()

	// Completion maps mutate under a.mu; every walker/picker read in the
	// snapshot helpers stays behind it.
	a.mu.Lock()
	defer a.mu.Unlock()

	points := a.picker.EarnedPoints()
	return ui.HomeState{
		TutorialCount:   len(a.walker.Tutorials()),
		ExerciseCount:   len(a.picker.Exercises()),
		RuleCount:       len(rules),
		SuggestionCount: len(sugs),
		StepsDone:       a.completedStepTotal(),
		TutorialsDone:   a.walker.CompletedTutorials(),
		ExercisesDone:   a.picker.CompletedCount(),
		PointsEarned:    points,
		PointsLabel:     humanize.Comma(int64(points)),
		AnalysisRuns:    summary.AnalysisRuns,
		Progress:        a.overallProgress(),
		LastActivity:    a.lastActivity,
		Tip:             "Press F2 in the workspace to analyze your code.",
	}
}

func (a *App) libraryState() ui.LibraryState {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := ui.LibraryState{}
	for _, t := range a.walker.Tutorials() {
		state.Tutorials = append(state.Tutorials, ui.TutorialSummary{
			TutorialID:     t.TutorialID,
			Title:          t.Title,
			DescriptionMD:  t.DescriptionMD,
			Difficulty:     t.Difficulty,
			Duration:       t.Duration,
			Topic:          t.Topic,
			StepCount:      len(t.Steps),
			CompletedSteps: a.walker.CompletedSteps(t.TutorialID),
			Done:           a.walker.IsComplete(t.TutorialID),
		})
	}
	for _, e := range a.picker.Exercises() {
		state.Exercises = append(state.Exercises, ui.ExerciseSummary{
			ExerciseID:       e.ExerciseID,
			Title:            e.Title,
			DescriptionMD:    e.DescriptionMD,
			Difficulty:       e.Difficulty,
			Topic:            e.Topic,
			EstimatedMinutes: e.EstimatedMinutes,
			Points:           e.Points,
			Done:             a.picker.IsComplete(e.ExerciseID),
		})
	}
	return state
}

func (a *App) workspaceState() ui.WorkspaceState {
	a.mu.Lock()
	defer a.mu.Unlock()

	points := a.picker.EarnedPoints()
	state := ui.WorkspaceState{
		ModeLabel:   "Scratchpad",
		Language:    a.language,
		HudWidth:    44,
		Progress:    a.overallProgress(),
		PointsLabel: humanize.Comma(int64(points)),
	}
	switch a.activity {
	case activityTutorial:
		t, _, ok := a.walker.Current()
		if !ok {
			return state
		}
		state.ModeLabel = "Tutorial"
		state.ActivityID = t.TutorialID
		state.ActivityTitle = t.Title
		state.StepLabel = fmt.Sprintf("Step %d/%d", a.walker.StepIndex()+1, len(t.Steps))
		state.DescriptionMD = t.DescriptionMD
		state.Progress = a.walker.Progress(t.TutorialID)
	case activityExercise:
		ex, ok := a.picker.Current()
		if !ok {
			return state
		}
		state.ModeLabel = "Exercise"
		state.ActivityID = ex.ExerciseID
		state.ActivityTitle = ex.Title
		state.DescriptionMD = ex.DescriptionMD
		state.SolutionShown = a.picker.SolutionVisible()
	}
	return state
}

func (a *App) stepState() ui.StepState {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, step, ok := a.walker.Current()
	if !ok {
		return ui.StepState{}
	}
	return ui.StepState{
		Title:         step.Title,
		ContentMD:     step.ContentMD,
		Code:          step.Code,
		ExplanationMD: step.ExplanationMD,
		Tips:          append([]string(nil), step.Tips...),
		Index:         a.walker.StepIndex(),
		Total:         len(t.Steps),
		Completed:     a.walker.IsStepComplete(t.TutorialID, step.StepID),
	}
}

// Caller holds a.mu.
func (a *App) completedStepTotal() int {
	n := 0
	for _, t := range a.walker.Tutorials() {
		n += a.walker.CompletedSteps(t.TutorialID)
	}
	return n
}

// overallProgress is the completed fraction over every tutorial step and
// every exercise, counted as equal-weight items. Caller holds a.mu.
func (a *App) overallProgress() float64 {
	total := len(a.picker.Exercises())
	for _, t := range a.walker.Tutorials() {
		total += len(t.Steps)
	}
	if total == 0 {
		return 0
	}
	done := a.completedStepTotal() + a.picker.CompletedCount()
	return float64(done) / float64(total)
}

func (a *App) applyDemoScenario(ctx context.Context, scenario string) error {
	resolved := a.demo.Resolve(scenario)

	switch resolved.Name {
	case "home":
		a.view.SetHomeState(a.homeState())
		a.view.SetScreen(ui.ScreenHome)
		a.screen = ui.ScreenHome
		return nil
	case "library":
		a.view.SetLibrary(a.libraryState())
		a.view.SetScreen(ui.ScreenLibrary)
		a.screen = ui.ScreenLibrary
		return nil
	}

	code := a.demo.SampleCode(resolved.Name)
	if resolved.StepOpen {
		tutorials := a.walker.Tutorials()
		if len(tutorials) == 0 {
			return fmt.Errorf("demo %s needs at least one tutorial", resolved.Name)
		}
		a.OnSelectTutorial(tutorials[0].TutorialID)
	} else {
		exercises := a.picker.Exercises()
		if len(exercises) == 0 {
			return fmt.Errorf("demo %s needs at least one exercise", resolved.Name)
		}
		a.OnSelectExercise(exercises[0].ExerciseID)
		a.OnCodeChanged(code)
		a.view.SetEditorCode(code)
	}

	if resolved.FindingsOpen {
		a.mu.Lock()
		lang := a.language
		a.mu.Unlock()
		report, err := a.analyzer.Analyze(ctx, analysis.Request{Code: code, Language: lang})
		if err != nil {
			return err
		}
		rows := make([]ui.FindingRow, 0, len(report.Findings))
		for _, f := range report.Findings {
			rows = append(rows, ui.FindingRow{RuleID: f.RuleID, Category: string(f.Category), Severity: string(f.Severity), Message: f.Message, Fix: f.Fix, Line: f.Line})
		}
		a.view.SetFindings(ui.FindingsState{Visible: true, Language: report.Language, RulesRun: report.RulesRun, Rows: rows})
	}
	if resolved.SuggestionsOpen {
		matches, fallback, err := a.suggester.Match(ctx, suggest.Request{Description: a.demo.SampleDescription(resolved.Name), Code: code})
		if err != nil {
			return err
		}
		rows := make([]ui.SuggestionRow, 0, len(matches))
		for _, s := range matches {
			rows = append(rows, ui.SuggestionRow{ID: s.ID, Category: string(s.Category), Title: s.Title, Description: s.Description, Solution: s.Solution, CodeExample: s.CodeExample})
		}
		a.view.SetSuggestions(ui.SuggestionsState{Visible: true, Fallback: fallback, Rows: rows})
	}
	if resolved.SolutionOpen {
		a.OnToggleSolution()
	}
	if resolved.TestsOpen {
		a.OnShowTestCases()
	}
	if resolved.MenuOpen {
		a.view.SetMenuOpen(true)
	}
	return nil
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevPending(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevError(state, demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = false
	a.devState.Error = errText
	a.devState.RenderSeq++
}

func (a *App) getDevState() map[string]any {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"ok":         true,
		"state":      a.devState.State,
		"demo":       a.devState.Demo,
		"render_seq": a.devState.RenderSeq,
		"rendered":   a.devState.Rendered,
		"pending":    a.devState.Pending,
		"error":      a.devState.Error,
	}
}

func (a *App) runDemoScenario(ctx context.Context, requested string) (string, error) {
	resolved := a.demo.Resolve(requested).Name
	a.logger.Info("dev.demo.dispatch.begin", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevPending(resolved, requested)

	a.demoMu.Lock()
	defer a.demoMu.Unlock()

	if err := a.applyDemoScenario(ctx, requested); err != nil {
		a.logger.Error("dev.demo.dispatch.apply_failed", map[string]any{"requested": requested, "resolved": resolved, "error": err.Error()})
		a.setDevError(resolved, requested, err.Error())
		_ = a.demo.SetState(ctx, "", resolved, false)
		return resolved, err
	}
	a.view.RequestDraw()
	a.logger.Info("dev.demo.dispatch.done", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevState(resolved, resolved)
	if err := a.demo.SetState(ctx, "", resolved, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": resolved, "error": err.Error()})
	}
	return resolved, nil
}

func (a *App) startDevHTTP() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.getDevState())
	})
	mux.HandleFunc("/__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Demo string `json:"demo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		req.Demo = strings.TrimSpace(req.Demo)
		if req.Demo == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "demo is required"})
			return
		}
		a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resolved, err := a.runDemoScenario(ctx, req.Demo)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": err.Error(), "state": resolved})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
	})

	a.devServer = &http.Server{Addr: a.cfg.DevHTTP, Handler: mux}
	a.setDevState("home", a.cfg.DemoScenario)
	go func() {
		if err := a.devServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

var _ ui.Controller = (*App)(nil)
