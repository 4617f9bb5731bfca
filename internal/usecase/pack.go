package usecase

import (
	"sort"
	"strings"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// PackUseCase fits retrieved passages into the prompt's token budget.
type PackUseCase struct {
	counter port.TokenCounter
}

func NewPackUseCase(counter port.TokenCounter) *PackUseCase {
	return &PackUseCase{counter: counter}
}

// Pack keeps hits in rank order while they fit budget, skipping any hit
// that would overflow it, then merges hits that are consecutive chunks
// of the same source. A budget <= 0 keeps every hit.
func (u *PackUseCase) Pack(question string, hits []domain.SearchHit, budget int) domain.PackedContext {
	packed := domain.PackedContext{
		Question:     question,
		BudgetTokens: budget,
		Passages:     []domain.Passage{},
	}

	type selected struct {
		hit    domain.SearchHit
		order  int
		tokens int
	}

	var picks []selected
	used := 0
	for i, h := range hits {
		tokens := u.counter.CountTokens(h.Text)
		if budget > 0 && used+tokens > budget {
			continue
		}
		picks = append(picks, selected{hit: h, order: i, tokens: tokens})
		used += tokens
	}
	if len(picks) == 0 {
		return packed
	}

	// Group by source, then merge runs of consecutive ordinals.
	bySource := make(map[string][]selected)
	for _, p := range picks {
		bySource[p.hit.Source] = append(bySource[p.hit.Source], p)
	}

	type group struct {
		passage domain.Passage
		best    int
	}
	var groups []group
	for source, items := range bySource {
		sort.Slice(items, func(i, j int) bool {
			return items[i].hit.Ordinal < items[j].hit.Ordinal
		})

		i := 0
		for i < len(items) {
			texts := []string{items[i].hit.Text}
			g := group{
				passage: domain.Passage{Source: source, Ordinals: []int{items[i].hit.Ordinal}, Tokens: items[i].tokens},
				best:    items[i].order,
			}
			j := i + 1
			for j < len(items) && items[j].hit.Ordinal == items[j-1].hit.Ordinal+1 {
				texts = append(texts, items[j].hit.Text)
				g.passage.Ordinals = append(g.passage.Ordinals, items[j].hit.Ordinal)
				g.passage.Tokens += items[j].tokens
				g.best = min(g.best, items[j].order)
				j++
			}
			g.passage.Text = strings.Join(texts, " ")
			groups = append(groups, g)
			i = j
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].best < groups[j].best })
	for _, g := range groups {
		packed.Passages = append(packed.Passages, g.passage)
		packed.UsedTokens += g.passage.Tokens
	}
	return packed
}

// Texts returns the passage texts in order.
func Texts(packed domain.PackedContext) []string {
	out := make([]string, len(packed.Passages))
	for i, passage := range packed.Passages {
		out[i] = passage.Text
	}
	return out
}
