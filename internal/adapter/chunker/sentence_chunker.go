package chunker

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/data"

	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// DefaultLanguage is used when the configured punkt model is missing.
const DefaultLanguage = "english"

// SentenceChunker greedily packs whole sentences into chunks of at most
// maxTokens tokens. A sentence longer than the budget becomes a chunk of
// its own; sentences are never split.
type SentenceChunker struct {
	maxTokens int
	counter   port.TokenCounter
	splitter  *sentences.DefaultSentenceTokenizer
	language  string
}

// NewSentenceChunker loads the punkt model for language, falling back to
// DefaultLanguage when that model is unavailable.
func NewSentenceChunker(maxTokens int, language string, counter port.TokenCounter) (*SentenceChunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}
	if language == "" {
		language = DefaultLanguage
	}

	splitter, err := loadSplitter(language)
	if err != nil {
		language = DefaultLanguage
		splitter, err = loadSplitter(language)
		if err != nil {
			return nil, fmt.Errorf("failed to load sentence model: %w", err)
		}
	}

	return &SentenceChunker{
		maxTokens: maxTokens,
		counter:   counter,
		splitter:  splitter,
		language:  language,
	}, nil
}

func loadSplitter(language string) (*sentences.DefaultSentenceTokenizer, error) {
	b, err := data.Asset("data/" + language + ".json")
	if err != nil {
		return nil, err
	}
	training, err := sentences.LoadTraining(b)
	if err != nil {
		return nil, err
	}
	return sentences.NewSentenceTokenizer(training), nil
}

// Language returns the punkt model actually in use.
func (c *SentenceChunker) Language() string {
	return c.language
}

// Sentences splits text into whitespace-normalised sentences.
func (c *SentenceChunker) Sentences(text string) []string {
	var out []string
	for _, s := range c.splitter.Tokenize(text) {
		sent := strings.Join(strings.Fields(s.Text), " ")
		if sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

// Chunk splits text into ordered chunk texts.
func (c *SentenceChunker) Chunk(text string) ([]string, error) {
	var chunks []string
	var buf []string
	bufTokens := 0

	for _, sent := range c.Sentences(text) {
		n := c.counter.CountTokens(sent)
		if len(buf) > 0 && bufTokens+n > c.maxTokens {
			chunks = append(chunks, strings.Join(buf, " "))
			buf = buf[:0]
			bufTokens = 0
		}
		buf = append(buf, sent)
		bufTokens += n
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, " "))
	}

	return chunks, nil
}
