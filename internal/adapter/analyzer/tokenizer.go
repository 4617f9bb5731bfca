package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase terms with stopword removal.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new Tokenizer with Portuguese and English stopwords.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate token count for LLM budget estimation.
// Subword tokenizers average roughly 1.3 tokens per word.
func (t *Tokenizer) CountTokens(text string) int {
	n := len(splitWords(text))
	return n * 13 / 10
}

// splitWords splits text on anything that is not a letter, digit or
// underscore. Accented letters stay inside their word.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		// pt
		"de", "da", "do", "das", "dos", "em", "na", "no", "nas", "nos",
		"um", "uma", "uns", "umas", "os", "as", "ao", "aos", "que", "se",
		"por", "para", "com", "sem", "como", "mais", "mas", "ou", "ser",
		"foi", "são", "é", "há", "seu", "sua", "seus", "suas", "ele", "ela",
		"isso", "este", "esta", "esse", "essa", "qual", "quando", "onde",
		"também", "já", "não", "muito", "pelo", "pela", "entre", "sobre",
		// en
		"an", "and", "are", "at", "be", "by", "for", "from", "has", "in",
		"is", "it", "its", "of", "on", "that", "the", "to", "was", "were",
		"will", "with", "this", "or", "not", "what", "which", "how",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
