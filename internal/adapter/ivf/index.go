// Package ivf implements an inverted-file vector index: vectors are
// bucketed under their nearest k-means centroid and a search only scans
// the lists whose centroids are closest to the query.
package ivf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

var (
	ErrNotTrained     = errors.New("ivf: index is not trained")
	ErrNoTrainingData = errors.New("ivf: no training data")
	ErrDimension      = errors.New("ivf: vector dimension mismatch")
)

// Neighbor is a search result. ID is the insertion position of the vector.
type Neighbor struct {
	ID       int
	Distance float32
}

// Index is an in-memory IVF index over squared L2 distance. It is not
// safe for concurrent mutation; callers serialise writes.
type Index struct {
	dim       int
	centroids [][]float32
	lists     [][]int
	vectors   [][]float32
	assign    []int
}

func New(dim int) *Index {
	return &Index{dim: dim}
}

// Restore rebuilds an index from persisted centroids, vectors and the
// list each vector belongs to.
func Restore(dim int, centroids, vectors [][]float32, assign []int) (*Index, error) {
	if len(vectors) != len(assign) {
		return nil, fmt.Errorf("ivf: %d vectors but %d list assignments", len(vectors), len(assign))
	}
	ix := &Index{dim: dim, centroids: centroids, lists: make([][]int, len(centroids))}
	for _, c := range centroids {
		if len(c) != dim {
			return nil, fmt.Errorf("%w: centroid has %d components, expected %d", ErrDimension, len(c), dim)
		}
	}
	for id, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d components, expected %d", ErrDimension, id, len(v), dim)
		}
		l := assign[id]
		if l < 0 || l >= len(centroids) {
			return nil, fmt.Errorf("ivf: vector %d assigned to unknown list %d", id, l)
		}
		ix.lists[l] = append(ix.lists[l], id)
	}
	ix.vectors = vectors
	ix.assign = assign
	return ix, nil
}

// Train computes nlist centroids from samples. The index must be empty.
func (ix *Index) Train(ctx context.Context, samples [][]float32, nlist int, rng *rand.Rand) error {
	if len(ix.vectors) > 0 {
		return fmt.Errorf("ivf: cannot train an index holding %d vectors", len(ix.vectors))
	}
	for i, s := range samples {
		if len(s) != ix.dim {
			return fmt.Errorf("%w: sample %d has %d components, expected %d", ErrDimension, i, len(s), ix.dim)
		}
	}
	centroids, err := KMeans(ctx, samples, nlist, DefaultIterations, rng)
	if err != nil {
		return err
	}
	ix.centroids = centroids
	ix.lists = make([][]int, len(centroids))
	return nil
}

// Add appends vectors and returns the id given to the first one. Ids are
// consecutive in insertion order.
func (ix *Index) Add(vectors [][]float32) (int, error) {
	if !ix.IsTrained() {
		return 0, ErrNotTrained
	}
	for i, v := range vectors {
		if len(v) != ix.dim {
			return 0, fmt.Errorf("%w: vector %d has %d components, expected %d", ErrDimension, i, len(v), ix.dim)
		}
	}
	first := len(ix.vectors)
	for _, v := range vectors {
		id := len(ix.vectors)
		l, _ := nearest(ix.centroids, v)
		ix.vectors = append(ix.vectors, append([]float32(nil), v...))
		ix.assign = append(ix.assign, l)
		ix.lists[l] = append(ix.lists[l], id)
	}
	return first, nil
}

// Truncate drops every vector with id >= n.
func (ix *Index) Truncate(n int) {
	if n >= len(ix.vectors) {
		return
	}
	for id := n; id < len(ix.vectors); id++ {
		l := ix.assign[id]
		list := ix.lists[l]
		for len(list) > 0 && list[len(list)-1] >= n {
			list = list[:len(list)-1]
		}
		ix.lists[l] = list
	}
	ix.vectors = ix.vectors[:n]
	ix.assign = ix.assign[:n]
}

// Search returns up to k nearest vectors to q in ascending distance.
// The nprobe closest lists are scanned first; further lists are visited
// until at least k candidates were seen or every list was scanned.
func (ix *Index) Search(q []float32, k, nprobe int) ([]Neighbor, error) {
	if len(q) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d components, expected %d", ErrDimension, len(q), ix.dim)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if nprobe < 1 {
		nprobe = 1
	}

	order := make([]Neighbor, len(ix.centroids))
	for i, c := range ix.centroids {
		order[i] = Neighbor{ID: i, Distance: SquaredL2(q, c)}
	}
	sortNeighbors(order)

	var candidates []Neighbor
	for probed, list := range order {
		if probed >= nprobe && len(candidates) >= k {
			break
		}
		for _, id := range ix.lists[list.ID] {
			candidates = append(candidates, Neighbor{ID: id, Distance: SquaredL2(q, ix.vectors[id])})
		}
	}

	sortNeighbors(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].ID < ns[j].ID
	})
}

func (ix *Index) IsTrained() bool { return len(ix.centroids) > 0 }
func (ix *Index) Len() int        { return len(ix.vectors) }
func (ix *Index) Dim() int        { return ix.dim }
func (ix *Index) NList() int      { return len(ix.centroids) }

// Vectors returns the stored vectors in id order. The slice is shared.
func (ix *Index) Vectors() [][]float32 { return ix.vectors }

// Centroids returns the trained centroids. The slice is shared.
func (ix *Index) Centroids() [][]float32 { return ix.centroids }

// List returns the list vector id belongs to.
func (ix *Index) List(id int) int { return ix.assign[id] }

// ListsFor returns the cluster count used when training on n real vectors.
func ListsFor(n int) int {
	return max(1, int(math.Sqrt(float64(n))))
}

// RandomSamples generates n pseudo-random vectors with standard normal
// components, used to train an index before any real data exists.
func RandomSamples(n, dim int, rng *rand.Rand) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		out[i] = v
	}
	return out
}
