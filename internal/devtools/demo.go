package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Scenario describes a reproducible UI state for screenshot and smoke
// tooling. Overlay flags are applied on top of the workspace screen.
type Scenario struct {
	Name            string
	FindingsOpen    bool
	SuggestionsOpen bool
	StepOpen        bool
	SolutionOpen    bool
	TestsOpen       bool
	MenuOpen        bool
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch name {
	case "home":
		return Scenario{Name: name}
	case "library":
		return Scenario{Name: name}
	case "workspace", "scratchpad":
		return Scenario{Name: "workspace"}
	case "findings_open":
		return Scenario{Name: name, FindingsOpen: true}
	case "suggestions_open":
		return Scenario{Name: name, SuggestionsOpen: true}
	case "step_open":
		return Scenario{Name: name, StepOpen: true}
	case "solution_open":
		return Scenario{Name: name, SolutionOpen: true}
	case "tests_open":
		return Scenario{Name: name, TestsOpen: true}
	case "menu":
		return Scenario{Name: "menu", MenuOpen: true}
	default:
		return Scenario{Name: "workspace"}
	}
}

// SampleCode returns a canned snippet that makes the scenario visually
// interesting: the findings demo needs code the rule table fires on, the
// suggestions demo needs a recognizable infinite loop.
func (m *Manager) SampleCode(scenario string) string {
	switch scenario {
	case "findings_open":
		return "var count = 1;\nconsole.log(count);\n"
	case "suggestions_open":
		return "while (true) {\n  poll();\n}\n"
	case "solution_open", "tests_open":
		return "function reverseString(str) {\n  // your code here\n}\n"
	default:
		return "const greeting = 'hello';\nconsole.info(greeting);\n"
	}
}

func (m *Manager) SampleDescription(scenario string) string {
	if scenario == "suggestions_open" {
		return "my loop never stops and the page freezes"
	}
	return "something looks undefined"
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "codecoach")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    strings.TrimSpace(state),
		"rendered": rendered,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}

var _ Demo = (*Manager)(nil)
