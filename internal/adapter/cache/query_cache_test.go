package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Query(ctx context.Context, question string, k int) ([]domain.SearchHit, error) {
	r.calls++
	return []domain.SearchHit{{Text: question, Source: "a.txt", Rank: 1}}, nil
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 3, nil)
	c.Put("b", 3, nil)
	c.Get("a", 3)
	c.Put("c", 3, nil)

	if _, ok := c.Get("b", 3); ok {
		t.Error("expected least recently used entry to be evicted")
	}
	if _, ok := c.Get("a", 3); !ok {
		t.Error("expected recently used entry to survive")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("a", 3, []domain.SearchHit{{Text: "x"}})
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("a", 3); !ok {
		t.Error("expected fresh entry to hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a", 3); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry to be dropped, size %d", c.Size())
	}
}

func TestQueryCache_NormalizesQuestion(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("O que é pH?", 3, []domain.SearchHit{{Text: "x"}})
	if _, ok := c.Get("  o que é ph?  ", 3); !ok {
		t.Error("expected case and whitespace variants to share an entry")
	}
}

func TestQueryCache_ReturnsCopy(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("a", 3, []domain.SearchHit{{Text: "x"}})
	got, _ := c.Get("a", 3)
	got[0].Text = "changed"
	again, _ := c.Get("a", 3)
	if again[0].Text != "x" {
		t.Error("cached hits must not alias caller slices")
	}
}

func TestQueryCache_KeyIncludesK(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("a", 3, nil)
	if _, ok := c.Get("a", 5); ok {
		t.Error("expected different k to miss")
	}
}

func TestCachedRetriever_InvalidatesOnGeneration(t *testing.T) {
	inner := &countingRetriever{}
	gen := uint64(1)
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute), func() uint64 { return gen })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Query(ctx, "o que é pH?", 3); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", inner.calls)
	}

	gen = 2
	if _, err := r.Query(ctx, "o que é pH?", 3); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected cache miss after new generation, got %d calls", inner.calls)
	}
}
