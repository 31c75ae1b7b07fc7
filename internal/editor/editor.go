package editor

import (
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
)

// Pane wraps the code textarea shown in the workspace. It owns the buffer;
// everything else reads the code through Code().
type Pane struct {
	ta       textarea.Model
	language string
	focused  bool
}

func New(language string) Pane {
	ta := textarea.New()
	ta.Placeholder = "// start typing, or open a tutorial step"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	return Pane{ta: ta, language: language}
}

func (p Pane) Language() string { return p.language }

func (p *Pane) SetLanguage(language string) { p.language = language }

func (p *Pane) SetSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	p.ta.SetWidth(width)
	p.ta.SetHeight(height)
}

func (p Pane) Code() string { return p.ta.Value() }

func (p *Pane) SetCode(code string) {
	p.ta.SetValue(code)
}

func (p *Pane) Focus() tea.Cmd {
	p.focused = true
	return p.ta.Focus()
}

func (p *Pane) Blur() {
	p.focused = false
	p.ta.Blur()
}

func (p Pane) Focused() bool { return p.focused }

func (p Pane) Update(msg tea.Msg) (Pane, tea.Cmd) {
	if !p.focused {
		return p, nil
	}
	var cmd tea.Cmd
	p.ta, cmd = p.ta.Update(msg)
	return p, cmd
}

func (p Pane) View() string {
	return p.ta.View()
}
