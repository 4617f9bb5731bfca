package analyzer

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// TiktokenCounter counts tokens with a BPE encoding, so chunk budgets are
// commensurate with what embedding models actually consume.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding (e.g. "cl100k_base").
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// CountTokens returns the exact number of BPE tokens in text.
func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// NewCounter returns a tiktoken counter for encoding, or the word
// heuristic when encoding is empty or cannot be loaded.
func NewCounter(encoding string, log *slog.Logger) port.TokenCounter {
	if encoding == "" {
		return NewTokenizer()
	}
	c, err := NewTiktokenCounter(encoding)
	if err != nil {
		log.Warn("tiktoken encoding unavailable, using word heuristic", "encoding", encoding, "err", err)
		return NewTokenizer()
	}
	return c
}
