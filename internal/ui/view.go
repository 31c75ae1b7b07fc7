package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codecoach/internal/editor"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type clockMsg time.Time
type animateMsg time.Time

type workspaceKeyMap struct {
	Step     key.Binding
	Analyze  key.Binding
	Debug    key.Binding
	Solution key.Binding
	Complete key.Binding
	Tests    key.Binding
	Language key.Binding
	Reset    key.Binding
	Menu     key.Binding
}

func (k workspaceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Analyze, k.Debug, k.Solution, k.Complete, k.Tests, k.Language, k.Reset, k.Menu}
}

func (k workspaceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Step, k.Analyze, k.Debug, k.Solution}, {k.Complete, k.Tests, k.Language, k.Reset, k.Menu}}
}

type Root struct {
	theme        Theme
	ascii        bool
	debugLayout  bool
	ctrl         Controller
	styleVariant string
	motionLevel  string
	mouseScope   string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	forceTooSmall bool
	tooSmallCols  int
	tooSmallRows  int

	home      HomeState
	library   LibraryState
	workspace WorkspaceState

	findings    FindingsState
	suggestions SuggestionsState
	step        StepState
	testCases   []TestCaseRow

	solutionText string
	infoTitle    string
	infoText     string
	statusFlash  string
	analyzing    bool
	debugging    bool
	startedAt    time.Time

	stepOpen     bool
	solutionOpen bool
	testsOpen    bool
	infoOpen     bool
	promptOpen   bool
	resetOpen    bool
	menuOpen     bool
	hudOpen      bool

	homeIndex     int
	tutorialIndex int
	exerciseIndex int
	libraryFocus  int
	menuIndex     int
	resetIndex    int
	suggestIndex  int

	selectedTutorial string
	selectedExercise string

	ed     editor.Pane
	prompt textinput.Model

	help        help.Model
	keymap      workspaceKeyMap
	progBar     progress.Model
	busySpin    spinner.Model
	markdown    *glamour.TermRenderer
	logger      *clog.Logger
	drawerPos   float64
	drawerVel   float64
	spring      harmonica.Spring
	drawPending atomic.Bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	Language     string
	StyleVariant string
	MotionLevel  string
	MouseScope   string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "codecoach-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	mouseScope := normalizeMouseScope(opts.MouseScope)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	progBar := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		progBar.SetSpringOptions(1000.0, 1.0)
	}
	busySpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	language := opts.Language
	if language == "" {
		language = "javascript"
	}
	prompt := textinput.New()
	prompt.Placeholder = "Describe the problem, e.g. \"my loop never stops\""
	prompt.CharLimit = 240

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debugLayout:  opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		mouseScope:   mouseScope,
		screen:       ScreenHome,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		help:         h,
		progBar:      progBar,
		busySpin:     busySpin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
		ed:           editor.New(language),
		prompt:       prompt,
		startedAt:    time.Now(),
		workspace: WorkspaceState{
			ModeLabel: "Scratchpad",
			Language:  language,
			HudWidth:  44,
		},
	}
	r.keymap = workspaceKeyMap{
		Step:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Step")),
		Analyze:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Analyze")),
		Debug:    key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Debug")),
		Solution: key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Solution")),
		Complete: key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Complete")),
		Tests:    key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Tests")),
		Language: key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "Language")),
		Reset:    key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Reset code")),
		Menu:     key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Menu")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), animateTickCmd(), spinnerTickCmd(r.busySpin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		if r.layout != LayoutTooSmall {
			r.forceTooSmall = false
		}
		r.resizeEditor()
		r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := 0.0
		if r.hudOpen {
			target = 1.0
		}
		r.drawerPos, r.drawerVel = r.spring.Update(r.drawerPos, r.drawerVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		if target == 0 {
			r.drawerPos = 0
			r.drawerVel = 0
		} else {
			r.drawerPos = 1
			r.drawerVel = 0
		}
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.busySpin, cmd = r.busySpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.ClipboardMsg:
		return r.handlePaste(tea.PasteMsg{Content: msg.Content})
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenHome:
		base = r.renderHome()
	case ScreenLibrary:
		base = r.renderLibrary()
	default:
		base = r.renderWorkspace()
	}

	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	v.DisableBracketedPasteMode = false
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		if screen == ScreenWorkspace {
			m.resizeEditor()
			_ = m.ed.Focus()
		} else {
			m.ed.Blur()
		}
	})
}

func (r *Root) SetHomeState(state HomeState) {
	r.apply(func(m *Root) {
		m.home = state
	})
}

func (r *Root) SetLibrary(state LibraryState) {
	r.apply(func(m *Root) {
		m.library = state
		m.syncLibrarySelection()
	})
}

func (r *Root) SetLibrarySelection(tutorialID, exerciseID string) {
	r.apply(func(m *Root) {
		m.selectedTutorial = tutorialID
		m.selectedExercise = exerciseID
		m.syncLibrarySelection()
	})
}

func (r *Root) SetWorkspaceState(s WorkspaceState) {
	r.apply(func(m *Root) {
		if s.HudWidth <= 0 {
			s.HudWidth = 44
		}
		m.workspace = s
		if s.Language != "" {
			m.ed.SetLanguage(s.Language)
		}
		m.resizeEditor()
	})
}

func (r *Root) SetEditorCode(code string) {
	r.apply(func(m *Root) {
		m.ed.SetCode(code)
	})
}

func (r *Root) SetAnalyzing(analyzing bool) {
	r.apply(func(m *Root) {
		m.analyzing = analyzing
	})
}

func (r *Root) SetDebugging(debugging bool) {
	r.apply(func(m *Root) {
		m.debugging = debugging
	})
}

func (r *Root) SetFindings(state FindingsState) {
	r.apply(func(m *Root) {
		m.findings = state
	})
}

func (r *Root) SetSuggestions(state SuggestionsState) {
	r.apply(func(m *Root) {
		m.suggestions = state
		if state.Visible {
			m.suggestIndex = 0
		}
	})
}

func (r *Root) SetStep(state StepState, open bool) {
	r.apply(func(m *Root) {
		m.step = state
		m.stepOpen = open
	})
}

func (r *Root) SetSolution(text string, open bool) {
	r.apply(func(m *Root) {
		m.solutionText = text
		m.solutionOpen = open
	})
}

func (r *Root) SetTestCases(rows []TestCaseRow, open bool) {
	r.apply(func(m *Root) {
		m.testCases = append([]TestCaseRow(nil), rows...)
		m.testsOpen = open
	})
}

func (r *Root) SetInfo(title, text string, open bool) {
	r.apply(func(m *Root) {
		m.infoTitle = title
		m.infoText = text
		m.infoOpen = open
	})
}

func (r *Root) SetMenuOpen(open bool) {
	r.apply(func(m *Root) {
		m.menuOpen = open
		if open {
			m.menuIndex = 0
		}
	})
}

func (r *Root) SetTooSmall(cols, rows int) {
	r.apply(func(m *Root) {
		m.forceTooSmall = true
		m.tooSmallCols = cols
		m.tooSmallRows = rows
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) resizeEditor() {
	w := r.cols - 2
	if r.layout == LayoutWide {
		hudW := r.workspace.HudWidth
		if hudW <= 0 {
			hudW = 44
		}
		w = r.cols - hudW - 2
	}
	h := r.rows - 4
	r.ed.SetSize(max(10, w), max(3, h))
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+q"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch r.screen {
	case ScreenHome:
		return r.handleHomeKey(msg)
	case ScreenLibrary:
		return r.handleLibraryKey(msg)
	default:
		return r.handleWorkspaceKey(msg)
	}
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))

	if r.promptOpen {
		var cmd tea.Cmd
		r.prompt, cmd = r.prompt.Update(msg)
		return r, cmd
	}
	if r.screen != ScreenWorkspace || r.overlayActive() {
		return r, nil
	}
	return r.updateEditor(msg)
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))

	if r.mouseScope == "off" || mouse.Button != tea.MouseLeft {
		return r, nil
	}
	if r.overlayActive() {
		return r.handleOverlayMouseClick(mouse.X, mouse.Y)
	}
	if r.mouseScope == "scoped" && r.screen == ScreenWorkspace {
		return r, nil
	}
	switch r.screen {
	case ScreenHome:
		return r.handleHomeMouseClick(mouse.X, mouse.Y)
	case ScreenLibrary:
		return r.handleLibraryMouseClick(mouse.X, mouse.Y)
	}
	return r, nil
}

func (r *Root) handleHomeMouseClick(x, y int) (tea.Model, tea.Cmd) {
	items := r.homeItems()
	if len(items) == 0 {
		return r, nil
	}
	leftW := min(36, max(24, r.cols/3))
	if x < 1 || x >= leftW-1 {
		return r, nil
	}
	idx := y - 2
	if idx < 0 || idx >= len(items) {
		return r, nil
	}
	r.homeIndex = idx
	r.activateHomeSelection()
	return r, nil
}

func (r *Root) handleLibraryMouseClick(x, y int) (tea.Model, tea.Cmd) {
	if y < 2 {
		return r, nil
	}
	leftW := min(44, max(28, r.cols/3))
	middleW := min(44, max(28, r.cols/3))
	idx := y - 2

	if x >= 1 && x < leftW-1 {
		if len(r.library.Tutorials) == 0 {
			return r, nil
		}
		r.libraryFocus = 0
		r.tutorialIndex = wrapIndex(idx, len(r.library.Tutorials))
		r.syncSelectionFromIndices()
		r.openSelectedTutorial()
		return r, nil
	}
	if x >= leftW+1 && x < leftW+middleW-1 {
		if len(r.library.Exercises) == 0 {
			return r, nil
		}
		r.libraryFocus = 1
		r.exerciseIndex = wrapIndex(idx, len(r.library.Exercises))
		r.syncSelectionFromIndices()
		r.openSelectedExercise()
		return r, nil
	}
	return r, nil
}

func (r *Root) handleOverlayMouseClick(x, y int) (tea.Model, tea.Cmd) {
	top := r.topOverlay()
	spec, ok := r.overlaySpec(top)
	if !ok {
		return r, nil
	}
	if x < spec.startCol+1 || x >= spec.startCol+spec.width-1 || y < spec.startRow+1 || y >= spec.startRow+spec.height-1 {
		return r, nil
	}
	contentRow := y - (spec.startRow + 1)
	switch top {
	case "menu":
		items := r.menuItems()
		if contentRow >= 0 && contentRow < len(items) {
			r.menuIndex = contentRow
			r.activateMenuItem(items[contentRow])
		}
	case "reset":
		row := contentRow - 2
		if row >= 0 && row <= 1 {
			r.resetIndex = row
			r.resetOpen = false
			if row == 1 {
				r.dispatchController(func(c Controller) { c.OnResetCode() })
			}
		}
	}
	return r, nil
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	top := r.topOverlay()

	// The debug prompt owns all printable input.
	if top == "prompt" {
		if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape {
			r.promptOpen = false
			r.prompt.Blur()
			return r, nil
		}
		switch msg.Code {
		case tea.KeyEnter:
			desc := strings.TrimSpace(r.prompt.Value())
			if desc == "" {
				r.statusFlash = "Describe the problem first"
				return r, nil
			}
			r.promptOpen = false
			r.prompt.Blur()
			r.dispatchController(func(c Controller) { c.OnDebugHelp(desc) })
			return r, nil
		}
		var cmd tea.Cmd
		r.prompt, cmd = r.prompt.Update(msg)
		return r, cmd
	}

	if msg.Code == tea.KeyF10 {
		if top == "menu" {
			r.menuOpen = false
			return r, nil
		}
		r.dismissAllOverlays()
		r.menuOpen = true
		return r, nil
	}

	if (msg.Code == 'c' || msg.Code == 'C') && msg.Mod&tea.ModCtrl != 0 {
		text := r.overlayCopyText()
		if strings.TrimSpace(text) == "" {
			return r, nil
		}
		r.statusFlash = "Copied overlay text"
		return r, tea.SetClipboard(text)
	}
	if msg.Mod == 0 && (msg.Code == 'y' || msg.Code == 'Y') {
		text := r.overlayCopyText()
		if strings.TrimSpace(text) == "" {
			return r, nil
		}
		r.statusFlash = "Copied overlay text"
		return r, tea.SetClipboard(text)
	}

	if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape ||
		(msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')) {
		r.dismissTopOverlay()
		return r, nil
	}

	switch top {
	case "menu":
		items := r.menuItems()
		switch msg.Code {
		case tea.KeyUp:
			r.menuIndex = wrapIndex(r.menuIndex-1, len(items))
		case tea.KeyDown, tea.KeyTab:
			r.menuIndex = wrapIndex(r.menuIndex+1, len(items))
		case tea.KeyEnter:
			r.activateMenuItem(items[r.menuIndex])
		}
	case "reset":
		switch msg.Code {
		case tea.KeyLeft, tea.KeyUp:
			r.resetIndex = 0
		case tea.KeyRight, tea.KeyDown, tea.KeyTab:
			r.resetIndex = 1
		case tea.KeyEnter:
			confirmed := r.resetIndex == 1
			r.resetOpen = false
			if confirmed {
				r.dispatchController(func(c Controller) { c.OnResetCode() })
			}
		}
	case "step":
		switch msg.Code {
		case tea.KeyLeft:
			r.dispatchController(func(c Controller) { c.OnStepAdvance(-1) })
		case tea.KeyRight:
			r.dispatchController(func(c Controller) { c.OnStepAdvance(1) })
		case tea.KeyEnter:
			r.dispatchController(func(c Controller) { c.OnStepComplete() })
		}
	case "suggestions":
		switch msg.Code {
		case tea.KeyUp:
			r.suggestIndex = wrapIndex(r.suggestIndex-1, len(r.suggestions.Rows))
		case tea.KeyDown, tea.KeyTab:
			r.suggestIndex = wrapIndex(r.suggestIndex+1, len(r.suggestions.Rows))
		}
	}
	return r, nil
}

func (r *Root) dismissTopOverlay() {
	switch r.topOverlay() {
	case "step":
		r.stepOpen = false
		r.dispatchController(func(c Controller) { c.OnCloseActivity() })
	case "solution":
		r.solutionOpen = false
		r.dispatchController(func(c Controller) { c.OnToggleSolution() })
	default:
		r.closeTopOverlay()
	}
}

func (r *Root) dismissAllOverlays() {
	for i := 0; i < 10 && r.overlayActive(); i++ {
		r.closeTopOverlay()
	}
}

func (r *Root) handleHomeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.homeItems()
	switch msg.Code {
	case tea.KeyUp:
		r.homeIndex = wrapIndex(r.homeIndex-1, len(items))
	case tea.KeyDown, tea.KeyTab:
		r.homeIndex = wrapIndex(r.homeIndex+1, len(items))
	case tea.KeyEnter:
		r.activateHomeSelection()
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
	return r, nil
}

func (r *Root) handleLibraryKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyEsc {
		r.dispatchController(func(c Controller) { c.OnBackToHome() })
		return r, nil
	}
	if msg.Mod == 0 && (msg.Code == 'r' || msg.Code == 'R') {
		r.dispatchController(func(c Controller) { c.OnRandomExercise() })
		return r, nil
	}
	if msg.Code == tea.KeyTab && msg.Mod&tea.ModShift != 0 {
		r.libraryFocus = 0
		return r, nil
	}

	switch msg.Code {
	case tea.KeyLeft:
		r.libraryFocus = 0
	case tea.KeyRight, tea.KeyTab:
		r.libraryFocus = 1
	case tea.KeyUp:
		if r.libraryFocus == 0 {
			r.tutorialIndex = wrapIndex(r.tutorialIndex-1, len(r.library.Tutorials))
		} else {
			r.exerciseIndex = wrapIndex(r.exerciseIndex-1, len(r.library.Exercises))
		}
		r.syncSelectionFromIndices()
	case tea.KeyDown:
		if r.libraryFocus == 0 {
			r.tutorialIndex = wrapIndex(r.tutorialIndex+1, len(r.library.Tutorials))
		} else {
			r.exerciseIndex = wrapIndex(r.exerciseIndex+1, len(r.library.Exercises))
		}
		r.syncSelectionFromIndices()
	case tea.KeyEnter:
		if r.libraryFocus == 0 {
			r.openSelectedTutorial()
		} else {
			r.openSelectedExercise()
		}
	}
	return r, nil
}

func (r *Root) handleWorkspaceKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if (msg.Code == tea.KeyInsert && msg.Mod&tea.ModShift != 0) ||
		((msg.Code == 'v' || msg.Code == 'V') && msg.Mod&tea.ModCtrl != 0 && msg.Mod&tea.ModShift != 0) {
		return r, func() tea.Msg { return tea.ReadClipboard() }
	}

	switch msg.Code {
	case tea.KeyF1:
		if r.workspace.ModeLabel == "Tutorial" {
			r.stepOpen = true
		} else {
			r.statusFlash = "Open a tutorial to read steps"
		}
		return r, nil
	case tea.KeyF2:
		r.dispatchController(func(c Controller) { c.OnAnalyze() })
		return r, nil
	case tea.KeyF3:
		r.promptOpen = true
		r.prompt.SetValue("")
		return r, r.prompt.Focus()
	case tea.KeyF4:
		r.dispatchController(func(c Controller) { c.OnToggleSolution() })
		return r, nil
	case tea.KeyF5:
		if r.workspace.ModeLabel == "Tutorial" {
			r.dispatchController(func(c Controller) { c.OnStepComplete() })
		} else {
			r.dispatchController(func(c Controller) { c.OnExerciseComplete() })
		}
		return r, nil
	case tea.KeyF6:
		r.dispatchController(func(c Controller) { c.OnShowTestCases() })
		return r, nil
	case tea.KeyF7:
		r.dispatchController(func(c Controller) { c.OnCycleLanguage() })
		return r, nil
	case tea.KeyF8:
		r.resetOpen = true
		return r, nil
	case tea.KeyF9:
		if r.layout == LayoutCompact {
			r.hudOpen = !r.hudOpen
			return r, r.animateIfNeeded()
		}
		return r, nil
	case tea.KeyF10:
		r.menuOpen = true
		return r, nil
	case tea.KeyEsc:
		if r.hudOpen {
			r.hudOpen = false
			return r, r.animateIfNeeded()
		}
		r.dispatchController(func(c Controller) { c.OnCloseActivity() })
		return r, nil
	}

	return r.updateEditor(msg)
}

func (r *Root) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := r.ed.Code()
	var cmd tea.Cmd
	r.ed, cmd = r.ed.Update(msg)
	if after := r.ed.Code(); after != before {
		r.dispatchController(func(c Controller) { c.OnCodeChanged(after) })
	}
	return r, cmd
}

func (r *Root) renderHome() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("CodeCoach")

	items := r.homeItems()
	menuLines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if i == r.homeIndex {
			prefix = "> "
		}
		menuLines[i] = prefix + item.Label
	}
	left := r.drawPanel("Home", menuLines, min(36, max(24, w/3)), max(8, h-2))
	rightText := r.homeInfoText(items)
	right := r.drawPanel("Overview", strings.Split(strings.TrimSuffix(rightText, "\n"), "\n"), max(20, w-lipgloss.Width(left)), max(8, h-2))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return header + "\n" + body
}

func (r *Root) renderLibrary() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("CodeCoach - Library")

	tuts := make([]string, len(r.library.Tutorials))
	for i, t := range r.library.Tutorials {
		prefix := "  "
		if r.libraryFocus == 0 && i == r.tutorialIndex {
			prefix = "> "
		}
		mark := " "
		if t.Done {
			mark = r.checkMark()
		}
		tuts[i] = fmt.Sprintf("%s%s %s [%s, %d/%d]", prefix, mark, t.Title, t.Difficulty, t.CompletedSteps, t.StepCount)
	}
	if len(tuts) == 0 {
		tuts = []string{"No tutorials loaded."}
	}
	leftW := min(44, max(28, w/3))
	left := r.drawPanel("Tutorials", tuts, leftW, max(8, h-2))

	exs := make([]string, len(r.library.Exercises))
	for i, e := range r.library.Exercises {
		prefix := "  "
		if r.libraryFocus == 1 && i == r.exerciseIndex {
			prefix = "> "
		}
		mark := " "
		if e.Done {
			mark = r.checkMark()
		}
		exs[i] = fmt.Sprintf("%s%s %s [%s, %dpt]", prefix, mark, e.Title, e.Difficulty, e.Points)
	}
	if len(exs) == 0 {
		exs = []string{"No exercises loaded."}
	}
	middleW := min(44, max(28, w/3))
	middle := r.drawPanel("Exercises", exs, middleW, max(8, h-2))

	detail := r.libraryDetailText()
	right := r.drawPanel("Details", strings.Split(strings.TrimSuffix(detail, "\n"), "\n"), max(22, w-lipgloss.Width(left)-lipgloss.Width(middle)), max(8, h-2))

	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)
}

func (r *Root) renderWorkspace() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	if r.forceTooSmall {
		mode = LayoutTooSmall
	}
	r.layout = mode

	if mode == LayoutTooSmall {
		cols := w
		rows := h
		if r.forceTooSmall {
			cols = r.tooSmallCols
			rows = r.tooSmallRows
		}
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", cols, rows),
			"Minimum: 80x24",
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(12, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.headerText()
	status := r.statusText()
	bodyH := max(3, h-2)
	bodyY := 1

	var body string
	if mode == LayoutWide {
		hudW := r.workspace.HudWidth
		if hudW <= 0 {
			hudW = 44
		}
		hudW = min(max(30, hudW), max(30, w-20))
		editorW := max(20, w-hudW)
		hudPanel := r.drawPanel("Coach", strings.Split(strings.TrimSuffix(r.hudText(), "\n"), "\n"), hudW, bodyH)
		editorPanel := r.renderEditorPanel(editorW, bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, hudPanel, editorPanel)
	} else {
		body = r.renderEditorPanel(w, bodyH)
	}

	base := header + "\n" + body + "\n" + status
	if mode == LayoutCompact {
		drawer := r.renderHudDrawer(bodyH)
		if drawer != "" {
			base = composeOverlayAt(base, drawer, w, h, bodyY, 0)
		}
	}
	return base
}

func (r *Root) renderEditorPanel(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	raw := r.ed.View()
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	for len(lines) < innerH {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padRune(ansi.Strip(lines[i]), innerW)
	}
	title := "Editor (" + firstNonEmptyStr(r.ed.Language(), "javascript") + ")"
	return r.drawPanel(title, lines, width, height)
}

func (r *Root) renderHudDrawer(bodyHeight int) string {
	pos := r.drawerPos
	if r.hudOpen && pos < 0.2 {
		pos = 0.2
	}
	if !r.hudOpen && pos < 0.05 {
		return ""
	}
	hudW := r.workspace.HudWidth
	if hudW <= 0 {
		hudW = 40
	}
	hudW = min(max(32, hudW), max(32, r.cols-18))
	drawW := int(float64(hudW) * maxFloat(pos, 0))
	if drawW < 18 {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(r.hudText(), "\n"), "\n")
	lines = append(lines, "", "Esc closes drawer")
	return r.drawPanel("Coach Drawer", lines, drawW, bodyHeight)
}

func (r *Root) renderOverlay() string {
	spec, ok := r.overlaySpec(r.topOverlay())
	if !ok {
		return ""
	}
	return r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(max(56, r.cols-12), r.cols)
	h := min(max(10, r.rows/2), max(8, r.rows-4))

	var title string
	var lines []string
	switch top {
	case "menu":
		title = "Menu"
		items := r.menuItems()
		for i, item := range items {
			prefix := "  "
			if i == r.menuIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+item.Label)
		}
	case "prompt":
		title = "Debug Help"
		lines = []string{
			"What is going wrong?",
			"",
			r.prompt.View(),
			"",
			"Enter: Get suggestions    Esc: Cancel",
		}
	case "findings":
		title = "Analysis"
		lines = strings.Split(strings.TrimSuffix(r.findingsText(), "\n"), "\n")
		lines = append(lines, "", "Ctrl+C: Copy findings", "Esc/q: Close")
	case "suggestions":
		title = "Debug Suggestions"
		lines = strings.Split(strings.TrimSuffix(r.suggestionsText(), "\n"), "\n")
		lines = append(lines, "", "Up/Down: Browse", "Ctrl+C: Copy", "Esc/q: Close")
	case "step":
		title = fmt.Sprintf("Step %d/%d", r.step.Index+1, r.step.Total)
		lines = strings.Split(strings.TrimSuffix(r.stepText(), "\n"), "\n")
		lines = append(lines, "", "Left/Right: Navigate", "Enter: Mark complete", "Esc: Close tutorial")
	case "solution":
		title = "Solution"
		lines = strings.Split(strings.TrimSuffix(r.solutionText, "\n"), "\n")
		lines = append(lines, "", "Ctrl+C: Copy solution", "Esc/q: Hide")
	case "tests":
		title = "Test Cases"
		lines = strings.Split(strings.TrimSuffix(r.testCasesText(), "\n"), "\n")
		lines = append(lines, "", "Esc/q: Close")
	case "reset":
		title = "Confirm Reset"
		lines = []string{"Reset the editor to the starter code?", ""}
		labels := []string{"Cancel", "Reset"}
		for i, label := range labels {
			prefix := "  "
			if i == r.resetIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
	case "info":
		title = firstNonEmptyStr(r.infoTitle, "Info")
		lines = strings.Split(strings.TrimSuffix(r.infoText, "\n"), "\n")
		lines = append(lines, "", "Ctrl+C: Copy text", "Esc/q: Close")
	default:
		return overlaySpec{}, false
	}
	if len(lines) == 0 {
		lines = []string{"(empty)"}
	}
	needH := len(lines) + 2
	maxH := max(8, r.rows-4)
	if needH > h {
		h = min(needH, maxH)
	}
	return overlaySpec{
		title:    title,
		lines:    lines,
		width:    w,
		height:   h,
		startRow: (r.rows - h) / 2,
		startCol: (r.cols - w) / 2,
	}, true
}

func (r *Root) headerText() string {
	elapsed := time.Since(r.startedAt).Truncate(time.Second).String()
	width := max(1, r.cols-1)
	mode := firstNonEmptyStr(r.workspace.ModeLabel, "Scratchpad")
	activity := strings.TrimSpace(r.workspace.ActivityTitle)
	parts := []string{"CodeCoach", mode}
	if activity != "" {
		parts = append(parts, activity)
	}
	if r.workspace.StepLabel != "" {
		parts = append(parts, r.workspace.StepLabel)
	}
	parts = append(parts, elapsed, firstNonEmptyStr(r.workspace.Language, "javascript"))
	txt := strings.Join(parts, " | ")
	if len([]rune(txt)) > width && activity != "" {
		short := trimForWidth(activity, max(8, width/3))
		txt = strings.Join([]string{"CodeCoach", mode, short, elapsed}, " | ")
	}
	txt = trimForWidth(txt, width)
	if r.debugLayout {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
		txt = trimForWidth(txt, width)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "F1 Step  F2 Analyze  F3 Debug  F4 Solution  F5 Complete  F6 Tests  F7 Language  F8 Reset  F10 Menu"
	}
	if r.analyzing {
		keys += " | " + r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" Analyzing...")
	}
	if r.debugging {
		keys += " | " + r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" Thinking...")
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) hudText() string {
	var b strings.Builder
	b.WriteString(firstNonEmptyStr(r.workspace.ModeLabel, "Scratchpad") + "\n")
	if r.workspace.ActivityTitle != "" {
		b.WriteString(r.workspace.ActivityTitle + "\n")
	}
	if r.workspace.StepLabel != "" {
		b.WriteString(r.workspace.StepLabel + "\n")
	}
	if desc := strings.TrimSpace(r.workspace.DescriptionMD); desc != "" {
		b.WriteString("\n" + r.renderMarkdown(desc) + "\n")
	}
	if len(r.workspace.Tips) > 0 {
		b.WriteString("\nTips\n")
		for _, tip := range r.workspace.Tips {
			b.WriteString("- " + tip + "\n")
		}
	}
	b.WriteString("\nFindings\n")
	switch {
	case r.findings.RulesRun == 0:
		b.WriteString("Start typing, findings show up here. F2 opens the report.\n")
	case len(r.findings.Rows) == 0:
		b.WriteString("No issues found.\n")
	default:
		for _, f := range r.findings.Rows {
			b.WriteString(fmt.Sprintf("%s [%s] %s\n", r.categoryIcon(f.Category), f.Severity, trimForWidth(f.Message, 60)))
		}
	}
	b.WriteString("\nProgress\n")
	b.WriteString(r.progressBar(24) + "\n")
	if r.workspace.PointsLabel != "" {
		b.WriteString("Points: " + r.workspace.PointsLabel + "\n")
	}
	if r.workspace.SolutionShown {
		b.WriteString("\nSolution is revealed (F4 hides it).\n")
	}
	return b.String()
}

func (r *Root) findingsText() string {
	if len(r.findings.Rows) == 0 {
		return fmt.Sprintf("No issues found. %d rules ran clean.", r.findings.RulesRun)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d finding(s) from %d rules (%s)\n\n", len(r.findings.Rows), r.findings.RulesRun, r.findings.Language))
	for i, f := range r.findings.Rows {
		b.WriteString(fmt.Sprintf("%d. %s [%s/%s] %s\n", i+1, r.categoryIcon(f.Category), f.Category, f.Severity, f.Message))
		if f.Line > 0 {
			b.WriteString(fmt.Sprintf("   line %d\n", f.Line))
		}
		if f.Fix != "" {
			b.WriteString("   fix: " + f.Fix + "\n")
		}
	}
	return b.String()
}

func (r *Root) suggestionsText() string {
	if len(r.suggestions.Rows) == 0 {
		return "No suggestions available."
	}
	var b strings.Builder
	if r.suggestions.Fallback {
		b.WriteString("Nothing matched the description, showing the full catalog.\n\n")
	}
	for i, s := range r.suggestions.Rows {
		prefix := "  "
		if i == r.suggestIndex {
			prefix = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s [%s] %s\n", prefix, r.categoryIcon(s.Category), s.Category, s.Title))
	}
	if r.suggestIndex >= 0 && r.suggestIndex < len(r.suggestions.Rows) {
		s := r.suggestions.Rows[r.suggestIndex]
		b.WriteString("\n" + s.Description + "\n")
		b.WriteString("\nSolution: " + s.Solution + "\n")
		if s.CodeExample != "" {
			b.WriteString("\n" + s.CodeExample + "\n")
		}
	}
	return b.String()
}

func (r *Root) stepText() string {
	var b strings.Builder
	b.WriteString(r.step.Title)
	if r.step.Completed {
		b.WriteString("  " + r.checkMark() + " done")
	}
	b.WriteString("\n\n")
	b.WriteString(r.renderMarkdown(r.step.ContentMD) + "\n")
	if strings.TrimSpace(r.step.Code) != "" {
		b.WriteString("\n" + editor.Highlight(r.step.Code, r.workspace.Language) + "\n")
	}
	if strings.TrimSpace(r.step.ExplanationMD) != "" {
		b.WriteString("\n" + r.renderMarkdown(r.step.ExplanationMD) + "\n")
	}
	if len(r.step.Tips) > 0 {
		b.WriteString("\nTips\n")
		for _, tip := range r.step.Tips {
			b.WriteString("- " + tip + "\n")
		}
	}
	return b.String()
}

func (r *Root) testCasesText() string {
	if len(r.testCases) == 0 {
		return "No test cases for this exercise."
	}
	var b strings.Builder
	for i, tc := range r.testCases {
		b.WriteString(fmt.Sprintf("%d. input:    %s\n   expected: %s\n", i+1, tc.Input, tc.Expected))
	}
	return b.String()
}

type menuItem struct {
	Label  string
	Action string
}

func (r *Root) homeItems() []menuItem {
	return []menuItem{
		{Label: "Open Library", Action: "library"},
		{Label: "Random Exercise", Action: "random"},
		{Label: "Scratchpad", Action: "scratchpad"},
		{Label: "Stats", Action: "stats"},
		{Label: "Settings", Action: "settings"},
		{Label: "Quit", Action: "quit"},
	}
}

func (r *Root) homeInfoText(items []menuItem) string {
	idx := wrapIndex(r.homeIndex, len(items))
	action := "Use Enter to select an option."
	if len(items) > 0 {
		switch items[idx].Action {
		case "library":
			action = "Browse tutorials and exercises."
		case "random":
			action = "Jump into a randomly picked exercise."
		case "scratchpad":
			action = "Open the editor with no activity attached."
		case "stats":
			action = "Review this session's activity."
		case "settings":
			action = "Inspect runtime configuration."
		case "quit":
			action = "Exit CodeCoach. Session progress is discarded."
		}
	}
	var b strings.Builder
	b.WriteString("CodeCoach\n\n")
	b.WriteString(fmt.Sprintf("Tutorials: %d  Exercises: %d\n", r.home.TutorialCount, r.home.ExerciseCount))
	b.WriteString(fmt.Sprintf("Rules: %d  Suggestions: %d\n", r.home.RuleCount, r.home.SuggestionCount))
	b.WriteString(fmt.Sprintf("Steps done: %d  Tutorials done: %d\n", r.home.StepsDone, r.home.TutorialsDone))
	b.WriteString(fmt.Sprintf("Exercises done: %d  Points: %s\n", r.home.ExercisesDone, firstNonEmptyStr(r.home.PointsLabel, "0")))
	b.WriteString(fmt.Sprintf("Analysis runs: %d\n", r.home.AnalysisRuns))
	b.WriteString("\nOverall progress\n")
	b.WriteString(r.progressBarAs(r.home.Progress, 28) + "\n")
	if r.home.LastActivity != "" {
		b.WriteString("\nLast activity: " + r.home.LastActivity + "\n")
	}
	if strings.TrimSpace(r.home.Tip) != "" {
		b.WriteString("\nTip:\n" + r.home.Tip + "\n")
	}
	b.WriteString("\nAction:\n" + action + "\n")
	return b.String()
}

func (r *Root) libraryDetailText() string {
	if r.libraryFocus == 0 {
		if len(r.library.Tutorials) == 0 {
			return "No tutorials available."
		}
		t := r.library.Tutorials[wrapIndex(r.tutorialIndex, len(r.library.Tutorials))]
		var b strings.Builder
		b.WriteString(t.Title + "\n")
		b.WriteString(fmt.Sprintf("ID: %s\nDifficulty: %s\nDuration: %s\nTopic: %s\n", t.TutorialID, t.Difficulty, t.Duration, t.Topic))
		b.WriteString(fmt.Sprintf("Steps: %d/%d complete\n", t.CompletedSteps, t.StepCount))
		if strings.TrimSpace(t.DescriptionMD) != "" {
			b.WriteString("\n" + r.renderMarkdown(t.DescriptionMD) + "\n")
		}
		b.WriteString("\nEnter: Open tutorial    Esc: Back to home")
		return b.String()
	}
	if len(r.library.Exercises) == 0 {
		return "No exercises available."
	}
	e := r.library.Exercises[wrapIndex(r.exerciseIndex, len(r.library.Exercises))]
	var b strings.Builder
	b.WriteString(e.Title + "\n")
	b.WriteString(fmt.Sprintf("ID: %s\nDifficulty: %s\nTopic: %s\nEstimated: %d min\nPoints: %d\n", e.ExerciseID, e.Difficulty, e.Topic, e.EstimatedMinutes, e.Points))
	if e.Done {
		b.WriteString("Status: " + r.checkMark() + " complete\n")
	}
	if strings.TrimSpace(e.DescriptionMD) != "" {
		b.WriteString("\n" + r.renderMarkdown(e.DescriptionMD) + "\n")
	}
	b.WriteString("\nEnter: Open exercise    r: Random pick    Esc: Back to home")
	return b.String()
}

func (r *Root) menuItems() []menuItem {
	return []menuItem{
		{Label: "Continue", Action: "continue"},
		{Label: "Library", Action: "library"},
		{Label: "Home", Action: "home"},
		{Label: "AI Help", Action: "ai_help"},
		{Label: "Settings", Action: "settings"},
		{Label: "Stats", Action: "stats"},
		{Label: "Quit", Action: "quit"},
	}
}

func (r *Root) activateHomeSelection() {
	items := r.homeItems()
	if len(items) == 0 {
		return
	}
	item := items[wrapIndex(r.homeIndex, len(items))]
	switch item.Action {
	case "library":
		r.dispatchController(func(c Controller) { c.OnOpenLibrary() })
	case "random":
		r.dispatchController(func(c Controller) { c.OnRandomExercise() })
	case "scratchpad":
		r.screen = ScreenWorkspace
		r.resizeEditor()
		_ = r.ed.Focus()
	case "stats":
		r.dispatchController(func(c Controller) { c.OnOpenStats() })
	case "settings":
		r.dispatchController(func(c Controller) { c.OnOpenSettings() })
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) activateMenuItem(item menuItem) {
	r.menuOpen = false
	switch item.Action {
	case "library":
		r.dispatchController(func(c Controller) { c.OnOpenLibrary() })
	case "home":
		r.dispatchController(func(c Controller) { c.OnBackToHome() })
	case "ai_help":
		r.dispatchController(func(c Controller) { c.OnAIHelp() })
	case "settings":
		r.dispatchController(func(c Controller) { c.OnOpenSettings() })
	case "stats":
		r.dispatchController(func(c Controller) { c.OnOpenStats() })
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) openSelectedTutorial() {
	if len(r.library.Tutorials) == 0 {
		return
	}
	t := r.library.Tutorials[wrapIndex(r.tutorialIndex, len(r.library.Tutorials))]
	r.selectedTutorial = t.TutorialID
	r.dispatchController(func(c Controller) { c.OnSelectTutorial(t.TutorialID) })
}

func (r *Root) openSelectedExercise() {
	if len(r.library.Exercises) == 0 {
		return
	}
	e := r.library.Exercises[wrapIndex(r.exerciseIndex, len(r.library.Exercises))]
	r.selectedExercise = e.ExerciseID
	r.dispatchController(func(c Controller) { c.OnSelectExercise(e.ExerciseID) })
}

func (r *Root) syncLibrarySelection() {
	if r.selectedTutorial != "" {
		for i, t := range r.library.Tutorials {
			if t.TutorialID == r.selectedTutorial {
				r.tutorialIndex = i
				break
			}
		}
	}
	if r.selectedExercise != "" {
		for i, e := range r.library.Exercises {
			if e.ExerciseID == r.selectedExercise {
				r.exerciseIndex = i
				break
			}
		}
	}
	r.tutorialIndex = wrapIndex(r.tutorialIndex, max(1, len(r.library.Tutorials)))
	r.exerciseIndex = wrapIndex(r.exerciseIndex, max(1, len(r.library.Exercises)))
}

func (r *Root) syncSelectionFromIndices() {
	if len(r.library.Tutorials) > 0 {
		r.tutorialIndex = wrapIndex(r.tutorialIndex, len(r.library.Tutorials))
		r.selectedTutorial = r.library.Tutorials[r.tutorialIndex].TutorialID
	}
	if len(r.library.Exercises) > 0 {
		r.exerciseIndex = wrapIndex(r.exerciseIndex, len(r.library.Exercises))
		r.selectedExercise = r.library.Exercises[r.exerciseIndex].ExerciseID
	}
}

func (r *Root) topOverlay() string {
	switch {
	case r.infoOpen:
		return "info"
	case r.resetOpen:
		return "reset"
	case r.promptOpen:
		return "prompt"
	case r.suggestions.Visible:
		return "suggestions"
	case r.findings.Visible:
		return "findings"
	case r.testsOpen:
		return "tests"
	case r.solutionOpen:
		return "solution"
	case r.stepOpen:
		return "step"
	case r.menuOpen:
		return "menu"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "info":
		r.infoOpen = false
		r.infoText = ""
		r.infoTitle = ""
	case "reset":
		r.resetOpen = false
	case "prompt":
		r.promptOpen = false
		r.prompt.Blur()
	case "suggestions":
		r.suggestions = SuggestionsState{}
	case "findings":
		r.findings.Visible = false
	case "tests":
		r.testsOpen = false
	case "solution":
		r.solutionOpen = false
	case "step":
		r.stepOpen = false
	case "menu":
		r.menuOpen = false
	}
}

func (r *Root) overlayCopyText() string {
	switch r.topOverlay() {
	case "findings":
		return strings.TrimSpace(r.findingsText())
	case "suggestions":
		return strings.TrimSpace(r.suggestionsText())
	case "step":
		return strings.TrimSpace(r.stepText())
	case "solution":
		return strings.TrimSpace(r.solutionText)
	case "tests":
		return strings.TrimSpace(r.testCasesText())
	case "info":
		title := strings.TrimSpace(r.infoTitle)
		text := strings.TrimSpace(r.infoText)
		if title == "" {
			return text
		}
		if text == "" {
			return title
		}
		return title + "\n\n" + text
	}
	return ""
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.hudOpen {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) progressBar(width int) string {
	return r.progressBarAs(r.workspace.Progress, width)
}

func (r *Root) progressBarAs(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	m := r.progBar
	m.SetWidth(max(8, width))
	return m.ViewAs(fraction)
}

func (r *Root) renderMarkdown(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(md); err == nil {
			return strings.TrimSpace(rendered)
		}
	}
	return md
}

func (r *Root) checkMark() string {
	if r.ascii {
		return "v"
	}
	return "✓"
}

func (r *Root) categoryIcon(category string) string {
	if r.ascii {
		switch category {
		case "error":
			return "x"
		case "warning":
			return "!"
		case "tip", "suggestion":
			return "*"
		default:
			return "i"
		}
	}
	switch category {
	case "error":
		return "✗"
	case "warning":
		return "⚠"
	case "tip", "suggestion":
		return "★"
	default:
		return "•"
	}
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.drawerPos < 0.999 || abs(r.drawerVel) > 0.001
	}
	return r.drawerPos > 0.001 || abs(r.drawerVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		lw := len([]rune(line))
		if lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	oh := len(overlayLines)
	if oh > rows {
		oh = rows
	}
	startRow := (rows - oh) / 2
	startCol := (cols - ow) / 2
	if startCol < 0 {
		startCol = 0
	}

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		lw := len([]rune(line))
		if lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	if startRow < 0 {
		startRow = 0
	}
	if startCol < 0 {
		startCol = 0
	}

	for i, line := range overlayLines {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (r *Root) currentMouseMode() tea.MouseMode {
	switch r.mouseScope {
	case "off":
		return tea.MouseModeNone
	case "full":
		return tea.MouseModeCellMotion
	default:
		if r.screen == ScreenWorkspace && !r.overlayActive() {
			return tea.MouseModeNone
		}
		return tea.MouseModeCellMotion
	}
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "paper_light", "retro_terminal", "studio_dark":
		return strings.TrimSpace(v)
	default:
		return "studio_dark"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func normalizeMouseScope(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "scoped", "full":
		return strings.TrimSpace(v)
	default:
		return "scoped"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}

	message := fmt.Sprintf("%v", recovered)
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered", map[string]any{
		"where":       where,
		"panic":       message,
		"messageType": msgType,
		"screen":      r.screen,
		"layout":      r.layout,
		"cols":        r.cols,
		"rows":        r.rows,
		"overlay":     r.topOverlay(),
		"last_input":  r.lastInputEvent,
		"stack":       string(debug.Stack()),
	})
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
