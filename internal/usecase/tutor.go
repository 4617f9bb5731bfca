package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/persona"
	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// Session is one conversation with the tutor. The caller owns it.
type Session struct {
	ID           string
	Personality  string
	Interactions []domain.Interaction
}

func NewSession(personality string) *Session {
	return &Session{ID: uuid.NewString(), Personality: personality}
}

// TutorDeps wires the tutor.
type TutorDeps struct {
	Retriever     port.Retriever
	LLM           port.LLM
	Templates     port.TemplateLoader
	History       port.HistoryLog // optional
	Packer        *PackUseCase
	TopK          int
	ContextTokens int
	Logger        *slog.Logger
}

// TutorUseCase answers student questions grounded on retrieved passages.
type TutorUseCase struct {
	retriever     port.Retriever
	llm           port.LLM
	templates     port.TemplateLoader
	history       port.HistoryLog
	packer        *PackUseCase
	topK          int
	contextTokens int
	log           *slog.Logger
}

func NewTutorUseCase(d TutorDeps) *TutorUseCase {
	if d.TopK <= 0 {
		d.TopK = 3
	}
	return &TutorUseCase{
		retriever:     d.Retriever,
		llm:           d.LLM,
		templates:     d.Templates,
		history:       d.History,
		packer:        d.Packer,
		topK:          d.TopK,
		contextTokens: d.ContextTokens,
		log:           d.Logger,
	}
}

// Answer is the outcome of one tutoring turn.
type Answer struct {
	Text    string
	Prompt  string
	Hits    []domain.SearchHit
	Context domain.PackedContext
}

// BuildPrompt renders the session personality's template for question
// over the given passages.
func (u *TutorUseCase) BuildPrompt(personality, question string, passages []string) (string, error) {
	template, err := u.templates.Load(personality)
	if err != nil {
		return "", err
	}
	return persona.Render(template, persona.FormatContext(passages), question), nil
}

// Ask retrieves passages for question, asks the model and records the
// interaction in the session and the history log.
func (u *TutorUseCase) Ask(ctx context.Context, s *Session, question string) (*Answer, error) {
	// Fail on a missing personality before spending a retrieval.
	if _, err := u.templates.Load(s.Personality); err != nil {
		return nil, err
	}

	hits, err := u.retriever.Query(ctx, question, u.topK)
	if err != nil {
		return nil, err
	}

	var packed domain.PackedContext
	if u.packer != nil {
		packed = u.packer.Pack(question, hits, u.contextTokens)
	} else {
		packed = domain.PackedContext{Question: question}
		for _, h := range hits {
			packed.Passages = append(packed.Passages, domain.Passage{Source: h.Source, Text: h.Text, Ordinals: []int{h.Ordinal}})
		}
	}
	passages := Texts(packed)

	prompt, err := u.BuildPrompt(s.Personality, question, passages)
	if err != nil {
		return nil, err
	}

	text, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	it := domain.Interaction{
		ID:          uuid.NewString(),
		SessionID:   s.ID,
		Question:    question,
		Answer:      text,
		Passages:    passages,
		Personality: s.Personality,
		CreatedAt:   time.Now().UTC(),
	}
	s.Interactions = append(s.Interactions, it)
	if u.history != nil {
		if err := u.history.Append(it); err != nil {
			u.log.Warn("failed to record interaction", "error", err)
		}
	}

	return &Answer{Text: text, Prompt: prompt, Hits: hits, Context: packed}, nil
}
