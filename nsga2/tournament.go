package nsga2

import (
	"math"
	"math/rand"
	"sort"
)

// TournamentSelection builds a mating pool of poolsize individuals out of
// pop candidates, per spec section 4.D. Candidates are ordered
// lexicographically over the provided metrics (typically (rank, -crowding)):
// metric[k][i] is the k-th metric value for candidate i. The i-th best
// candidate (after that lexicographic sort) is drawn with probability
// 0.5*(1-0.5)^i; poolsize indices are drawn without replacement.
func TournamentSelection(pop, poolsize int, rng *rand.Rand, metrics ...[]float64) []int {
	candidates := make([]int, pop)
	for i := range candidates {
		candidates[i] = i
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		for _, m := range metrics {
			if m[ca] != m[cb] {
				return m[ca] < m[cb]
			}
		}
		return false
	})

	prob := make([]float64, pop)
	p := 0.5
	for i := 0; i < pop; i++ {
		prob[i] = p * math.Pow(1-p, float64(i))
	}

	return weightedSampleWithoutReplacement(candidates, prob, poolsize, rng)
}

// weightedSampleWithoutReplacement draws size distinct items from items,
// using weights as unnormalized selection weights (re-normalized after each
// draw, as np.random.choice(..., replace=False) does).
func weightedSampleWithoutReplacement(items []int, weights []float64, size int, rng *rand.Rand) []int {
	n := len(items)
	remaining := make([]int, n)
	copy(remaining, items)
	w := make([]float64, n)
	copy(w, weights)

	if size > n {
		size = n
	}
	out := make([]int, 0, size)
	for k := 0; k < size; k++ {
		total := 0.0
		for _, v := range w {
			total += v
		}
		r := rng.Float64() * total
		acc := 0.0
		pick := len(remaining) - 1
		for i, v := range w {
			acc += v
			if r <= acc {
				pick = i
				break
			}
		}
		out = append(out, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		w = append(w[:pick], w[pick+1:]...)
	}
	return out
}
