package usecase

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestPackBudget(t *testing.T) {
	packUC := NewPackUseCase(wordCounter{})

	hits := []domain.SearchHit{
		{Text: "um dois três quatro cinco", Source: "a.txt", Ordinal: 0, Rank: 1},
		{Text: "seis sete oito nove dez onze doze", Source: "b.txt", Ordinal: 4, Rank: 2},
		{Text: "treze catorze", Source: "c.txt", Ordinal: 2, Rank: 3},
	}

	// the second hit overflows and is skipped, the third still fits
	packed := packUC.Pack("pergunta", hits, 8)
	if packed.UsedTokens != 7 || packed.BudgetTokens != 8 {
		t.Errorf("expected 7 of 8 tokens used, got %d of %d", packed.UsedTokens, packed.BudgetTokens)
	}
	sources := []string{}
	for _, p := range packed.Passages {
		sources = append(sources, p.Source)
	}
	if !reflect.DeepEqual(sources, []string{"a.txt", "c.txt"}) {
		t.Errorf("unexpected passages %v", sources)
	}

	packed = packUC.Pack("pergunta", hits, 0)
	if len(packed.Passages) != 3 {
		t.Errorf("expected every hit without a budget, got %d", len(packed.Passages))
	}
}

func TestPackEmpty(t *testing.T) {
	packed := NewPackUseCase(wordCounter{}).Pack("pergunta", nil, 100)
	if packed.UsedTokens != 0 || len(packed.Passages) != 0 || packed.Passages == nil {
		t.Errorf("expected empty non-nil passages, got %+v", packed)
	}
}

func TestPackMergeAdjacent(t *testing.T) {
	packUC := NewPackUseCase(wordCounter{})

	hits := []domain.SearchHit{
		{Text: "segunda parte.", Source: "a.txt", Ordinal: 3},
		{Text: "outra aula.", Source: "b.txt", Ordinal: 3},
		{Text: "primeira parte.", Source: "a.txt", Ordinal: 2},
		{Text: "bem depois.", Source: "a.txt", Ordinal: 9},
	}

	packed := packUC.Pack("pergunta", hits, 0)
	if len(packed.Passages) != 3 {
		t.Fatalf("expected 3 passages, got %+v", packed.Passages)
	}

	first := packed.Passages[0]
	if first.Source != "a.txt" || first.Text != "primeira parte. segunda parte." {
		t.Errorf("expected merged a.txt passage first, got %+v", first)
	}
	if !reflect.DeepEqual(first.Ordinals, []int{2, 3}) {
		t.Errorf("unexpected ordinals %v", first.Ordinals)
	}
	if packed.Passages[1].Source != "b.txt" || packed.Passages[2].Text != "bem depois." {
		t.Errorf("unexpected passage order %+v", packed.Passages)
	}

	texts := Texts(packed)
	if len(texts) != 3 || texts[1] != "outra aula." {
		t.Errorf("unexpected texts %v", texts)
	}
}
