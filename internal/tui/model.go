package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"brdgen/internal/pipeline"
)

// SessionPort is the TUI-facing subset of the interactive session.
type SessionPort interface {
	Generate(ctx context.Context, assessmentPath string) pipeline.Result
	Refine(ctx context.Context, feedback string) pipeline.Result
}

// turnMsg carries the outcome of one generate or refine turn back into
// the update loop.
type turnMsg struct {
	result  pipeline.Result
	refined bool
}

// Model is the Bubble Tea model for the interactive BRD chat.
type Model struct {
	session     SessionPort
	input       textinput.Model
	viewport    viewport.Model
	status      string
	initialPath string
	busy        bool
	ready       bool
	hasBRD      bool
}

// New creates a new TUI model instance.
func New(session SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = ":gen <assessment file>, then type feedback to refine"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{session: session, input: ti, viewport: vp, status: "Ready. Generate a BRD to begin."}
}

// NewWithAssessment creates a model that generates a BRD for the given
// file as its first turn.
func NewWithAssessment(session SessionPort, path string) Model {
	m := New(session)
	m.initialPath = path
	m.busy = true
	m.status = "Generating BRD from " + path + " ..."
	return m
}

// Init initializes the model (text input cursor blink) and kicks off
// the initial generation when one was requested.
func (m Model) Init() tea.Cmd {
	if m.initialPath == "" {
		return textinput.Blink
	}
	path := m.initialPath
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return turnMsg{result: m.session.Generate(context.Background(), path)}
	})
}

// Update handles key, window and turn-result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around content and input boxes
		cw, ch := contentBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + ih + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-cw)
		m.viewport.Height = max(3, vh-ch)
		return m, nil
	case turnMsg:
		m.busy = false
		if msg.result.Err != nil {
			// raw error text shown in place of the BRD
			m.viewport.SetContent(msg.result.ErrorText())
			m.status = "Turn failed."
			return m, nil
		}
		m.hasBRD = true
		m.viewport.SetContent(msg.result.BRD)
		m.viewport.GotoTop()
		if msg.refined {
			m.status = "Refined BRD saved to " + msg.result.OutputPath
		} else {
			m.status = "Generated BRD saved to " + msg.result.OutputPath
		}
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			line := strings.TrimSpace(m.input.Value())
			if line != "" {
				m.input.SetValue("")
				return m.startTurn(line)
			}
		}
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// startTurn dispatches the entered line: ":gen <path>" generates a new
// BRD, plain text is treated as refinement feedback.
func (m Model) startTurn(line string) (tea.Model, tea.Cmd) {
	if path, ok := strings.CutPrefix(line, ":gen "); ok {
		path = strings.TrimSpace(path)
		if path == "" {
			m.status = "Usage: :gen <assessment file>"
			return m, nil
		}
		m.busy = true
		m.status = "Generating BRD from " + path + " ..."
		return m, func() tea.Msg {
			return turnMsg{result: m.session.Generate(context.Background(), path)}
		}
	}
	if !m.hasBRD {
		m.status = "No BRD yet. Generate one first with :gen <assessment file>."
		return m, nil
	}
	m.busy = true
	m.status = "Refining BRD ..."
	return m, func() tea.Msg {
		return turnMsg{result: m.session.Refine(context.Background(), line), refined: true}
	}
}

// View renders the TUI layout and the current BRD.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("BRD Generator")
	content := contentBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	if m.busy {
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render(m.status)
	}
	return header + "\n" + content + "\n" + input + "\n" + status
}

var (
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
