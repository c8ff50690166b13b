package num

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const kmeansMaxIter = 50

// KMeans clusters the rows of x into k centroids using Lloyd's algorithm
// with random initial assignment. Used to seed inducing point locations
// from a sample of transformed inputs.
func KMeans(x *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := x.Dims()
	if k >= n {
		return mat.DenseCopyOf(x)
	}
	centers := Rows(x, rng.Perm(n)[:k])
	assign := make([]int, n)
	counts := make([]int, k)
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				var d2 float64
				for q := 0; q < d; q++ {
					diff := x.At(i, q) - centers.At(c, q)
					d2 += diff * diff
				}
				if d2 < bestDist {
					best, bestDist = c, d2
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		centers.Zero()
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			c := assign[i]
			counts[c]++
			for q := 0; q < d; q++ {
				centers.Set(c, q, centers.At(c, q)+x.At(i, q))
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// re-seed empty cluster from a random sample
				i := rng.Intn(n)
				for q := 0; q < d; q++ {
					centers.Set(c, q, x.At(i, q))
				}
				continue
			}
			for q := 0; q < d; q++ {
				centers.Set(c, q, centers.At(c, q)/float64(counts[c]))
			}
		}
	}
	return centers
}
