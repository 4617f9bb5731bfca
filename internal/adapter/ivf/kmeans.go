package ivf

import (
	"context"
	"math/rand/v2"
)

// DefaultIterations bounds Lloyd iterations per training run.
const DefaultIterations = 25

// KMeans clusters data into k centroids with Lloyd's algorithm, seeded
// with k-means++. k is clamped to [1, len(data)].
func KMeans(ctx context.Context, data [][]float32, k, iterations int, rng *rand.Rand) ([][]float32, error) {
	n := len(data)
	if n == 0 {
		return nil, ErrNoTrainingData
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	dim := len(data[0])

	centroids := seedPlusPlus(data, k, rng)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	counts := make([]int, k)

	for iter := 0; iter < iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := 0
		for i, v := range data {
			c, _ := nearest(centroids, v)
			if assign[i] != c {
				assign[i] = c
				changed++
			}
		}
		if changed == 0 && iter > 0 {
			break
		}

		for c := range sums {
			clear(sums[c])
			counts[c] = 0
		}
		for i, v := range data {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}

		for c := range centroids {
			if counts[c] == 0 {
				// Reseed an empty cluster with the point farthest from its centroid.
				far, farDist := 0, float32(-1)
				for i, v := range data {
					if d := SquaredL2(v, centroids[assign[i]]); d > farDist {
						far, farDist = i, d
					}
				}
				copy(centroids[c], data[far])
				continue
			}
			inv := 1 / float64(counts[c])
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] * inv)
			}
		}
	}

	return centroids, nil
}

// seedPlusPlus picks initial centroids, each new one drawn with
// probability proportional to its squared distance from the closest
// centroid chosen so far.
func seedPlusPlus(data [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(data)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, append([]float32(nil), data[rng.IntN(n)]...))

	dist := make([]float64, n)
	for i, v := range data {
		dist[i] = float64(SquaredL2(v, centroids[0]))
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		pick := rng.IntN(n)
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				r -= d
				if r <= 0 {
					pick = i
					break
				}
			}
		}

		c := append([]float32(nil), data[pick]...)
		centroids = append(centroids, c)
		for i, v := range data {
			if d := float64(SquaredL2(v, c)); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// nearest returns the index of the centroid closest to v and its distance.
func nearest(centroids [][]float32, v []float32) (int, float32) {
	best, bestDist := 0, float32(0)
	for i, c := range centroids {
		d := SquaredL2(v, c)
		if i == 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// SquaredL2 is the squared euclidean distance between a and b.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
