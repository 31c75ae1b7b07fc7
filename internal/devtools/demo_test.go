package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveKnownScenarios(t *testing.T) {
	m := NewManager()
	if got := m.Resolve("findings_open"); !got.FindingsOpen || got.Name != "findings_open" {
		t.Fatalf("unexpected scenario: %+v", got)
	}
	if got := m.Resolve("menu"); !got.MenuOpen {
		t.Fatalf("expected menu overlay: %+v", got)
	}
	if got := m.Resolve("scratchpad"); got.Name != "workspace" {
		t.Fatalf("scratchpad should alias workspace, got %+v", got)
	}
}

func TestResolveUnknownFallsBackToWorkspace(t *testing.T) {
	m := NewManager()
	if got := m.Resolve("definitely-not-a-demo"); got.Name != "workspace" {
		t.Fatalf("expected workspace fallback, got %+v", got)
	}
}

func TestSampleCodeTriggersRulesForFindingsDemo(t *testing.T) {
	m := NewManager()
	code := m.SampleCode("findings_open")
	if code == "" {
		t.Fatalf("expected sample code")
	}
	for _, needle := range []string{"var ", "console.log"} {
		if !strings.Contains(code, needle) {
			t.Fatalf("findings demo code must contain %q, got %q", needle, code)
		}
	}
}

func TestSetStateWritesJSONFile(t *testing.T) {
	m := NewManager()
	dir := t.TempDir()

	if err := m.SetState(context.Background(), dir, "library", true); err != nil {
		t.Fatalf("set state: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "dev_state.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var payload struct {
		State    string `json:"state"`
		Rendered bool   `json:"rendered"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if payload.State != "library" || !payload.Rendered {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
