package domain

import "time"

// Document is a source file discovered in the material directory.
type Document struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Chunk is a span of source text paired with its slot in the vector index.
type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"texto"`
	Source   string `json:"origem"`
	Ordinal  int    `json:"ordem"`
	VectorID int    `json:"faiss_id"`
}

// TrainingState is the lifecycle phase of the vector index.
type TrainingState int

const (
	// StateBootstrap means the index was trained on placeholder data.
	StateBootstrap TrainingState = iota
	// StateTrained means the index was rebuilt from the real corpus.
	StateTrained
)

func (s TrainingState) String() string {
	if s == StateTrained {
		return "trained"
	}
	return "bootstrap"
}

// SearchHit is one nearest-neighbor result. Distance is squared L2,
// lower is closer.
type SearchHit struct {
	Text     string  `json:"texto"`
	Source   string  `json:"origem"`
	Ordinal  int     `json:"ordem"`
	Distance float32 `json:"distancia"`
	VectorID int     `json:"indice"`
	Rank     int     `json:"rank"`
}

// Interaction is one question/answer turn of a tutoring session.
type Interaction struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessao"`
	Question    string    `json:"pergunta"`
	Answer      string    `json:"resposta"`
	Passages    []string  `json:"trechos_usados"`
	Personality string    `json:"personalidade"`
	CreatedAt   time.Time `json:"criado_em"`
}

// Passage is context handed to the completion model: one hit, or a run
// of adjacent hits from the same source merged together.
type Passage struct {
	Source   string `json:"origem"`
	Text     string `json:"texto"`
	Ordinals []int  `json:"ordens"`
	Tokens   int    `json:"tokens"`
}

// PackedContext is the set of passages that fit a prompt token budget.
type PackedContext struct {
	Question     string    `json:"pergunta"`
	BudgetTokens int       `json:"budget_tokens"`
	UsedTokens   int       `json:"used_tokens"`
	Passages     []Passage `json:"trechos"`
}
