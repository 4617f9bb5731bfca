// Package tui is the terminal chat front end for a tutoring session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

// TutorPort is the TUI-facing subset of the tutor.
type TutorPort interface {
	Ask(ctx context.Context, s *usecase.Session, question string) (*usecase.Answer, error)
}

type turn struct {
	question string
	answer   string
	sources  []string
	err      error
}

type answerMsg struct {
	answer *usecase.Answer
	err    error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	tutor    TutorPort
	session  *usecase.Session
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model bound to session.
func New(ctx context.Context, tutor TutorPort, session *usecase.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Digite sua pergunta e pressione Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		tutor:    tutor,
		session:  session,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Personalidade: %s. Ctrl+C para sair.", session.Personality),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + th // header, status, boxes
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-1)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		last := &m.turns[len(m.turns)-1]
		if msg.err != nil {
			last.err = msg.err
			m.status = "Erro: " + msg.err.Error()
		} else {
			last.answer = msg.answer.Text
			for _, p := range msg.answer.Context.Passages {
				last.sources = append(last.sources, p.Source)
			}
			m.status = fmt.Sprintf("%d pergunta(s) nesta sessão.", len(m.session.Interactions))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.turns = append(m.turns, turn{question: q})
			m.waiting = true
			m.status = "Pensando..."
			m.refresh()
			return m, m.ask(q)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	tutor, session, ctx := m.tutor, m.session, m.ctx
	return func() tea.Msg {
		a, err := tutor.Ask(ctx, session, question)
		return answerMsg{answer: a, err: err}
	}
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	header := headerStyle.Render("QuimIAca")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "Nenhuma pergunta ainda."
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("Você: " + t.question))
		sb.WriteString("\n")
		switch {
		case t.err != nil:
			sb.WriteString(errorStyle.Render("Erro: " + t.err.Error()))
		case t.answer == "":
			sb.WriteString(sourceStyle.Render("..."))
		default:
			sb.WriteString(t.answer)
			if len(t.sources) > 0 {
				sb.WriteString("\n")
				sb.WriteString(sourceStyle.Render("Fontes: " + strings.Join(unique(t.sources), ", ")))
			}
		}
	}
	return sb.String()
}

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
