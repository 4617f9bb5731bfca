package chunker

import (
	"strings"
	"testing"
)

// wordCounter counts whitespace-separated words, one token each.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

const lesson = "O sódio reage com a água. O cloro forma sais estáveis. " +
	"A ligação iônica une cátions e ânions. A ligação covalente compartilha elétrons. " +
	"Os metais conduzem corrente elétrica. Os gases nobres quase não reagem."

func newTestChunker(t *testing.T, maxTokens int) *SentenceChunker {
	t.Helper()
	c, err := NewSentenceChunker(maxTokens, "portuguese", wordCounter{})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSentenceChunker_Sentences(t *testing.T) {
	c := newTestChunker(t, 100)

	sents := c.Sentences(lesson)
	if len(sents) != 6 {
		t.Fatalf("expected 6 sentences, got %d: %q", len(sents), sents)
	}
	if sents[0] != "O sódio reage com a água." {
		t.Errorf("unexpected first sentence: %q", sents[0])
	}
}

func TestSentenceChunker_PacksUpToBudget(t *testing.T) {
	c := newTestChunker(t, 13)

	sents := c.Sentences(lesson)
	if len(sents) != 6 {
		t.Fatalf("expected 6 sentences, got %d", len(sents))
	}

	chunks, err := c.Chunk(lesson)
	if err != nil {
		t.Fatal(err)
	}

	for i, chunk := range chunks {
		if n := (wordCounter{}).CountTokens(chunk); n > 13 {
			t.Errorf("chunk %d has %d tokens, budget is 13: %q", i, n, chunk)
		}
	}
	if len(chunks) < 2 || len(chunks) >= len(sents) {
		t.Errorf("expected sentences to be grouped into 2..5 chunks, got %d", len(chunks))
	}
}

func TestSentenceChunker_SentenceIntegrity(t *testing.T) {
	for _, budget := range []int{1, 5, 10, 13, 20, 1000} {
		c := newTestChunker(t, budget)
		sents := c.Sentences(lesson)

		chunks, err := c.Chunk(lesson)
		if err != nil {
			t.Fatal(err)
		}

		// Every chunk must be a run of consecutive whole sentences, and the
		// runs must cover the input in order without gaps.
		next := 0
		for i, chunk := range chunks {
			matched := false
			for end := next + 1; end <= len(sents); end++ {
				if strings.Join(sents[next:end], " ") == chunk {
					next = end
					matched = true
					break
				}
			}
			if !matched {
				t.Fatalf("budget %d: chunk %d is not a run of whole sentences: %q", budget, i, chunk)
			}
		}
		if next != len(sents) {
			t.Errorf("budget %d: chunks covered %d of %d sentences", budget, next, len(sents))
		}
	}
}

func TestSentenceChunker_OversizeSentenceKept(t *testing.T) {
	c := newTestChunker(t, 5)

	long := "A tabela periódica organiza os elementos químicos conhecidos segundo o número atômico crescente e as propriedades periódicas."
	text := "O ferro enferruja. " + long + " O ouro brilha."

	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[1] != long {
		t.Errorf("oversize sentence should be emitted whole, got %q", chunks[1])
	}
}

func TestSentenceChunker_NormalisesLineBreaks(t *testing.T) {
	c := newTestChunker(t, 100)

	text := "O carbono forma\ncadeias longas.\n\nO hidrogênio   é\no mais leve."
	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "O carbono forma cadeias longas. O hidrogênio é o mais leve."
	if chunks[0] != want {
		t.Errorf("expected %q, got %q", want, chunks[0])
	}
}

func TestSentenceChunker_EmptyContent(t *testing.T) {
	c := newTestChunker(t, 50)

	for _, text := range []string{"", "   \n\t  "} {
		chunks, err := c.Chunk(text)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestSentenceChunker_LanguageFallback(t *testing.T) {
	c, err := NewSentenceChunker(50, "klingon", wordCounter{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Language() != DefaultLanguage {
		t.Errorf("expected fallback to %s, got %s", DefaultLanguage, c.Language())
	}

	chunks, err := c.Chunk("Water boils. Ice melts.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSentenceChunker_InvalidBudget(t *testing.T) {
	if _, err := NewSentenceChunker(0, "portuguese", wordCounter{}); err == nil {
		t.Error("expected error for zero budget")
	}
}
