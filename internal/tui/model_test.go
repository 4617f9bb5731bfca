package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

type fakeTutor struct {
	questions []string
	err       error
}

func (f *fakeTutor) Ask(ctx context.Context, s *usecase.Session, question string) (*usecase.Answer, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return nil, f.err
	}
	s.Interactions = append(s.Interactions, domain.Interaction{Question: question})
	return &usecase.Answer{
		Text: "Um mol tem 6,022e23 entidades.",
		Context: domain.PackedContext{Passages: []domain.Passage{
			{Source: "aula_01.txt"}, {Source: "aula_01.txt"}, {Source: "aula_02.pdf"},
		}},
	}, nil
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func submit(t *testing.T, m Model) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a command after enter")
	}
	next, _ = m.Update(cmd())
	return next.(Model)
}

func newSized(tutor TutorPort) Model {
	m := New(context.Background(), tutor, usecase.NewSession("colega_quimica"))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestModel_AskShowsAnswerAndSources(t *testing.T) {
	tutor := &fakeTutor{}
	m := typeText(newSized(tutor), "o que é um mol?")
	m = submit(t, m)

	if len(tutor.questions) != 1 || tutor.questions[0] != "o que é um mol?" {
		t.Fatalf("unexpected questions: %v", tutor.questions)
	}
	if m.waiting {
		t.Error("expected waiting to be cleared")
	}
	out := m.renderTranscript()
	if !strings.Contains(out, "6,022e23") {
		t.Errorf("answer missing from transcript: %q", out)
	}
	if strings.Count(out, "aula_01.txt") != 1 || !strings.Contains(out, "aula_02.pdf") {
		t.Errorf("expected deduplicated sources, got %q", out)
	}
	if m.input.Value() != "" {
		t.Error("expected input to be cleared")
	}
}

func TestModel_ErrorIsShown(t *testing.T) {
	m := typeText(newSized(&fakeTutor{err: domain.ErrIndexNotReady}), "pH")
	m = submit(t, m)

	if !strings.Contains(m.status, "Erro") {
		t.Errorf("expected error status, got %q", m.status)
	}
	if !errors.Is(m.turns[0].err, domain.ErrIndexNotReady) {
		t.Errorf("expected turn error, got %v", m.turns[0].err)
	}
}

func TestModel_EmptyEnterDoesNothing(t *testing.T) {
	tutor := &fakeTutor{}
	m := newSized(tutor)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for empty input")
	}
	if len(next.(Model).turns) != 0 || len(tutor.questions) != 0 {
		t.Error("expected no turn for empty input")
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(context.Background(), &fakeTutor{}, usecase.NewSession("professor"))
	if m.View() != "Carregando..." {
		t.Errorf("unexpected view: %q", m.View())
	}
}
