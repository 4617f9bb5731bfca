package chunker

import "strings"

// DefaultWindowWords is the window size of the legacy chunking mode.
const DefaultWindowWords = 50

// WordChunker cuts text into fixed windows of words with no sentence
// awareness. Fine for small clean corpora, poor for PDF text with
// irregular line breaks.
type WordChunker struct {
	words int
}

func NewWordChunker(words int) *WordChunker {
	if words <= 0 {
		words = DefaultWindowWords
	}
	return &WordChunker{words: words}
}

func (c *WordChunker) Chunk(text string) ([]string, error) {
	fields := strings.Fields(text)

	var chunks []string
	for i := 0; i < len(fields); i += c.words {
		end := i + c.words
		if end > len(fields) {
			end = len(fields)
		}
		chunks = append(chunks, strings.Join(fields[i:end], " "))
	}
	return chunks, nil
}
