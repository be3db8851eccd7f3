// Package nsga2 implements the NSGA-II multi-objective evolutionary kernel:
// domination, fast non-dominated sorting, crowding distance, SBX crossover,
// polynomial mutation, tournament selection, and the generational loop that
// ties them together (spec section 4.D).
package nsga2

// Dominates reports whether p strictly Pareto-dominates q for minimization:
// every component of p is <= the corresponding component of q, and at least
// one is strictly less.
func Dominates(p, q []float64) bool {
	strictlyLess := false
	for i := range p {
		if p[i] > q[i] {
			return false
		}
		if p[i] < q[i] {
			strictlyLess = true
		}
	}
	return strictlyLess
}

// FastNonDominatedSort assigns an integer Pareto rank to every row of Y (0 =
// current Pareto front), per spec section 4.D. Runs in O(m*N^2).
func FastNonDominatedSort(Y [][]float64) []int {
	n := len(Y)
	rank := make([]int, n)
	dominationCount := make([]int, n)
	dominated := make([][]int, n)

	var front []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			switch {
			case Dominates(Y[i], Y[j]):
				dominated[i] = append(dominated[i], j)
			case Dominates(Y[j], Y[i]):
				dominationCount[i]++
			}
		}
		if dominationCount[i] == 0 {
			rank[i] = 0
			front = append(front, i)
		}
	}

	k := 0
	for len(front) > 0 {
		var next []int
		for _, p := range front {
			for _, q := range dominated[p] {
				dominationCount[q]--
				if dominationCount[q] == 0 {
					rank[q] = k + 1
					next = append(next, q)
				}
			}
		}
		k++
		front = next
	}

	return rank
}

// ParetoFront returns the indices of Y with rank 0 under FastNonDominatedSort.
func ParetoFront(Y [][]float64) []int {
	rank := FastNonDominatedSort(Y)
	var front []int
	for i, r := range rank {
		if r == 0 {
			front = append(front, i)
		}
	}
	return front
}
