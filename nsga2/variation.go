package nsga2

import (
	"math"
	"math/rand"
)

// SBX performs simulated binary crossover on parent1/parent2, producing
// nchildren pairs of children, per spec section 4.D. Each child is clipped to
// [lb, ub].
func SBX(parent1, parent2 []float64, mu float64, lb, ub []float64, nchildren int, rng *rand.Rand) (children1, children2 [][]float64) {
	n := len(parent1)
	children1 = make([][]float64, nchildren)
	children2 = make([][]float64, nchildren)

	for c := 0; c < nchildren; c++ {
		child1 := make([]float64, n)
		child2 := make([]float64, n)
		for i := 0; i < n; i++ {
			u := rng.Float64()
			var beta float64
			if u <= 0.5 {
				beta = math.Pow(2.0*u, 1.0/(mu+1))
			} else {
				beta = math.Pow(1.0/(2.0*(1.0-u)), 1.0/(mu+1))
			}
			v1 := 0.5 * ((1-beta)*parent1[i] + (1+beta)*parent2[i])
			v2 := 0.5 * ((1+beta)*parent1[i] + (1-beta)*parent2[i])
			child1[i] = clip(v1, lb[i], ub[i])
			child2[i] = clip(v2, lb[i], ub[i])
		}
		children1[c] = child1
		children2[c] = child2
	}
	return children1, children2
}

// PolynomialMutation mutates parent, producing nchildren independently
// mutated copies, per spec section 4.D. Every coordinate is perturbed by an
// independent draw u; mutationRate only selects which branch of the delta
// formula applies (u < mutationRate or not). The child is clipped to
// [lb, ub].
func PolynomialMutation(parent []float64, mutationRate, mum float64, lb, ub []float64, nchildren int, rng *rand.Rand) [][]float64 {
	n := len(parent)
	children := make([][]float64, nchildren)
	for c := 0; c < nchildren; c++ {
		child := make([]float64, n)
		for i := 0; i < n; i++ {
			u := rng.Float64()
			var delta float64
			if u < mutationRate {
				delta = math.Pow(2.0*u, 1.0/(mum+1)) - 1.0
			} else {
				delta = 1.0 - math.Pow(2.0*(1.0-u), 1.0/(mum+1))
			}
			v := parent[i] + (ub[i]-lb[i])*delta
			child[i] = clip(v, lb[i], ub[i])
		}
		children[c] = child
	}
	return children
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

