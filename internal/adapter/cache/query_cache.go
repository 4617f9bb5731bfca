// Package cache memoizes retrieval results for repeated questions.
package cache

import (
	"container/list"
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// QueryCache is an LRU with TTL over retrieval results, scoped to one
// index generation. Observing a new generation empties it.
type QueryCache struct {
	mu      sync.Mutex
	lru     *list.List // front is most recent
	byKey   map[string]*list.Element
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

type entry struct {
	key      string
	hits     []domain.SearchHit
	storedAt time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru:     list.New(),
		byKey:   make(map[string]*list.Element, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// key folds case and surrounding whitespace so trivially different
// spellings of a question share an entry.
func key(question string, k int) string {
	return strconv.Itoa(k) + "\x00" + strings.ToLower(strings.TrimSpace(question))
}

// Get returns a copy of the cached hits for question and k.
func (c *QueryCache) Get(question string, k int) ([]domain.SearchHit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key(question, k)]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(el)
		return nil, false
	}
	c.lru.MoveToFront(el)
	return append([]domain.SearchHit(nil), e.hits...), true
}

func (c *QueryCache) Put(question string, k int, hits []domain.SearchHit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kk := key(question, k)
	stored := append([]domain.SearchHit(nil), hits...)
	if el, ok := c.byKey[kk]; ok {
		e := el.Value.(*entry)
		e.hits, e.storedAt = stored, c.now()
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.remove(c.lru.Back())
	}
	c.byKey[kk] = c.lru.PushFront(&entry{key: kk, hits: stored, storedAt: c.now()})
}

// Observe empties the cache when gen differs from the generation its
// entries were recorded under.
func (c *QueryCache) Observe(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		return
	}
	c.lru.Init()
	clear(c.byKey)
	c.gen = gen
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *QueryCache) remove(el *list.Element) {
	delete(c.byKey, el.Value.(*entry).key)
	c.lru.Remove(el)
}

// CachedRetriever serves repeated questions from a QueryCache. gen
// reports the current index generation.
type CachedRetriever struct {
	next  port.Retriever
	cache *QueryCache
	gen   func() uint64
}

func NewCachedRetriever(next port.Retriever, cache *QueryCache, gen func() uint64) *CachedRetriever {
	return &CachedRetriever{next: next, cache: cache, gen: gen}
}

func (r *CachedRetriever) Query(ctx context.Context, question string, k int) ([]domain.SearchHit, error) {
	r.cache.Observe(r.gen())
	if hits, ok := r.cache.Get(question, k); ok {
		return hits, nil
	}

	hits, err := r.next.Query(ctx, question, k)
	if err != nil {
		return nil, err
	}
	r.cache.Put(question, k, hits)
	return hits, nil
}
