package ui

type Controller interface {
	OnOpenLibrary()
	OnBackToHome()
	OnSelectTutorial(tutorialID string)
	OnSelectExercise(exerciseID string)
	OnRandomExercise()
	OnStepAdvance(delta int)
	OnStepComplete()
	OnExerciseComplete()
	OnCloseActivity()
	OnAnalyze()
	OnDebugHelp(description string)
	OnToggleSolution()
	OnShowTestCases()
	OnCodeChanged(code string)
	OnResetCode()
	OnCycleLanguage()
	OnOpenSettings()
	OnOpenStats()
	OnAIHelp()
	OnQuit()
	OnResize(cols, rows int)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetHomeState(state HomeState)
	SetLibrary(state LibraryState)
	SetLibrarySelection(tutorialID, exerciseID string)
	SetWorkspaceState(WorkspaceState)
	SetEditorCode(code string)
	SetAnalyzing(analyzing bool)
	SetDebugging(debugging bool)
	SetFindings(state FindingsState)
	SetSuggestions(state SuggestionsState)
	SetStep(state StepState, open bool)
	SetSolution(text string, open bool)
	SetTestCases(rows []TestCaseRow, open bool)
	SetInfo(title, text string, open bool)
	SetMenuOpen(open bool)
	SetTooSmall(cols, rows int)
	FlashStatus(msg string)
	RequestDraw()
}

type Screen int

const (
	ScreenHome Screen = iota
	ScreenLibrary
	ScreenWorkspace
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

type HomeState struct {
	TutorialCount   int
	ExerciseCount   int
	RuleCount       int
	SuggestionCount int
	StepsDone       int
	TutorialsDone   int
	ExercisesDone   int
	PointsEarned    int
	PointsLabel     string
	AnalysisRuns    int
	Progress        float64
	LastActivity    string
	Tip             string
}

type LibraryState struct {
	Tutorials []TutorialSummary
	Exercises []ExerciseSummary
}

type TutorialSummary struct {
	TutorialID     string
	Title          string
	DescriptionMD  string
	Difficulty     string
	Duration       string
	Topic          string
	StepCount      int
	CompletedSteps int
	Done           bool
}

type ExerciseSummary struct {
	ExerciseID       string
	Title            string
	DescriptionMD    string
	Difficulty       string
	Topic            string
	EstimatedMinutes int
	Points           int
	Done             bool
}

// WorkspaceState describes the HUD next to the editor. ModeLabel is
// "Tutorial", "Exercise" or "Scratchpad" depending on what is open.
type WorkspaceState struct {
	ModeLabel     string
	ActivityID    string
	ActivityTitle string
	StepLabel     string
	Language      string
	HudWidth      int
	DescriptionMD string
	Tips          []string
	Progress      float64
	PointsLabel   string
	SolutionShown bool
}

type FindingsState struct {
	Visible  bool
	Language string
	RulesRun int
	Rows     []FindingRow
}

type FindingRow struct {
	RuleID   string
	Category string
	Severity string
	Message  string
	Fix      string
	Line     int
}

type SuggestionsState struct {
	Visible  bool
	Fallback bool
	Rows     []SuggestionRow
}

type SuggestionRow struct {
	ID          string
	Category    string
	Title       string
	Description string
	Solution    string
	CodeExample string
}

type StepState struct {
	Title         string
	ContentMD     string
	Code          string
	ExplanationMD string
	Tips          []string
	Index         int
	Total         int
	Completed     bool
}

type TestCaseRow struct {
	Input    string
	Expected string
}
