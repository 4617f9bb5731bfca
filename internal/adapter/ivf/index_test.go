package ivf

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func clustered(n, dim int, rng *rand.Rand) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		center := float32(i%4) * 10
		for j := range v {
			v[j] = center + float32(rng.NormFloat64())*0.1
		}
		out[i] = v
	}
	return out
}

func TestKMeans_SeparatesClusters(t *testing.T) {
	rng := newRNG()
	data := clustered(200, 4, rng)

	centroids, err := KMeans(context.Background(), data, 4, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(centroids) != 4 {
		t.Fatalf("expected 4 centroids, got %d", len(centroids))
	}

	// every point should sit right next to its centroid
	for i, v := range data {
		if _, d := nearest(centroids, v); d > 1 {
			t.Fatalf("point %d is %f away from its centroid", i, d)
		}
	}
}

func TestKMeans_ClampsK(t *testing.T) {
	rng := newRNG()
	centroids, err := KMeans(context.Background(), clustered(3, 2, rng), 10, 5, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(centroids) != 3 {
		t.Errorf("expected k clamped to 3, got %d", len(centroids))
	}

	if _, err := KMeans(context.Background(), nil, 2, 5, rng); !errors.Is(err, ErrNoTrainingData) {
		t.Errorf("expected ErrNoTrainingData, got %v", err)
	}
}

func TestKMeans_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := newRNG()
	if _, err := KMeans(ctx, clustered(10, 2, rng), 2, 5, rng); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIndex_AddAssignsConsecutiveIDs(t *testing.T) {
	rng := newRNG()
	ix := New(4)
	if _, err := ix.Add(clustered(1, 4, rng)); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
	if err := ix.Train(context.Background(), RandomSamples(64, 4, rng), 8, rng); err != nil {
		t.Fatal(err)
	}

	first, err := ix.Add(clustered(5, 4, rng))
	if err != nil || first != 0 {
		t.Fatalf("expected first id 0, got %d, %v", first, err)
	}
	first, err = ix.Add(clustered(3, 4, rng))
	if err != nil || first != 5 {
		t.Fatalf("expected first id 5, got %d, %v", first, err)
	}
	if ix.Len() != 8 {
		t.Errorf("expected 8 vectors, got %d", ix.Len())
	}

	if _, err := ix.Add([][]float32{{1, 2}}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
	if err := ix.Train(context.Background(), RandomSamples(8, 4, rng), 2, rng); err == nil {
		t.Error("expected error training a non-empty index")
	}
}

func TestIndex_SearchExactMatchFirst(t *testing.T) {
	rng := newRNG()
	data := clustered(100, 8, rng)
	ix := New(8)
	if err := ix.Train(context.Background(), data, ListsFor(len(data)), rng); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Add(data); err != nil {
		t.Fatal(err)
	}

	hits, err := ix.Search(data[42], 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 5 {
		t.Fatalf("expected 5 hits, got %d", len(hits))
	}
	if hits[0].ID != 42 || hits[0].Distance != 0 {
		t.Errorf("expected exact match first, got %+v", hits[0])
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Fatalf("hits not in ascending distance: %+v", hits)
		}
	}
}

func TestIndex_SearchWidensToK(t *testing.T) {
	rng := newRNG()
	ix := New(4)
	// many bootstrap lists, few real vectors: a single probed list is
	// usually empty or short
	if err := ix.Train(context.Background(), RandomSamples(256, 4, rng), 16, rng); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Add(clustered(6, 4, rng)); err != nil {
		t.Fatal(err)
	}

	hits, err := ix.Search([]float32{100, 100, 100, 100}, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 4 {
		t.Errorf("expected 4 hits after widening, got %d", len(hits))
	}

	hits, err = ix.Search([]float32{0, 0, 0, 0}, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 6 {
		t.Errorf("expected all 6 vectors when k exceeds the total, got %d", len(hits))
	}
}

func TestIndex_RestoreAndTruncate(t *testing.T) {
	rng := newRNG()
	data := clustered(20, 3, rng)
	ix := New(3)
	if err := ix.Train(context.Background(), data, 4, rng); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Add(data); err != nil {
		t.Fatal(err)
	}

	assign := make([]int, ix.Len())
	for id := range assign {
		assign[id] = ix.List(id)
	}
	restored, err := Restore(3, ix.Centroids(), ix.Vectors(), assign)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Len() != 20 || restored.NList() != ix.NList() {
		t.Fatalf("restored index differs: len=%d nlist=%d", restored.Len(), restored.NList())
	}

	restored.Truncate(12)
	if restored.Len() != 12 {
		t.Fatalf("expected 12 vectors after truncate, got %d", restored.Len())
	}
	hits, err := restored.Search(data[15], 20, restored.NList())
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.ID >= 12 {
			t.Errorf("truncated vector %d still searchable", h.ID)
		}
	}

	if _, err := Restore(3, ix.Centroids(), ix.Vectors(), assign[:3]); err == nil {
		t.Error("expected error for mismatched assignments")
	}
}

func TestListsFor(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 3: 1, 1000: 31, 5000: 70}
	for n, want := range cases {
		if got := ListsFor(n); got != want {
			t.Errorf("ListsFor(%d) = %d, want %d", n, got, want)
		}
	}
}
