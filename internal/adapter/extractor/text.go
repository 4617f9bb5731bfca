package extractor

import (
	"os"
	"strings"
)

// TextExtractor reads plain text files as UTF-8.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract reads path. Invalid UTF-8 sequences become U+FFFD and a
// leading byte order mark is dropped.
func (e *TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.ToValidUTF8(string(data), "\ufffd")
	return strings.TrimPrefix(text, "\ufeff"), nil
}
