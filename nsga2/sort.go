package nsga2

import (
	"sort"

	"github.com/samber/lo"
)

// SortMO orders (X, Y) first by ascending Pareto rank, then within each rank
// by descending crowding distance, per spec section 4.D ("Sort-MO"). It
// returns the reordered X, Y, the rank and crowding distance of each
// (reordered) row, and the permutation mapping reordered index -> original
// index.
func SortMO(X, Y [][]float64) (xOut, yOut [][]float64, rank []int, crowd []float64, perm []int) {
	n := len(Y)
	rawRank := FastNonDominatedSort(Y)

	maxRank := 0
	for _, r := range rawRank {
		if r > maxRank {
			maxRank = r
		}
	}

	rank = make([]int, n)
	crowd = make([]float64, n)
	perm = make([]int, 0, n)
	xOut = make([][]float64, 0, n)
	yOut = make([][]float64, 0, n)

	pos := 0
	for k := 0; k <= maxRank; k++ {
		members := lo.FilterMap(rawRank, func(r, i int) (int, bool) { return i, r == k })
		if len(members) == 0 {
			continue
		}
		frontY := make([][]float64, len(members))
		for i, idx := range members {
			frontY[i] = Y[idx]
		}
		d := CrowdingDistance(frontY)

		order := make([]int, len(members))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return d[order[a]] > d[order[b]]
		})

		for _, o := range order {
			orig := members[o]
			xOut = append(xOut, X[orig])
			yOut = append(yOut, Y[orig])
			rank[pos] = k
			crowd[pos] = d[o]
			perm = append(perm, orig)
			pos++
		}
	}

	return xOut, yOut, rank, crowd, perm
}

// RemoveWorst sorts (X, Y) with SortMO and keeps the best popSize rows,
// matching the spec's fixed generational-replacement rule (section 4.D,
// section 9 Open Question): merge all new children with the surviving
// parents, sort, keep the top pop.
func RemoveWorst(X, Y [][]float64, popSize int) (xOut, yOut [][]float64, rank []int) {
	x, y, r, _, _ := SortMO(X, Y)
	if popSize > len(x) {
		popSize = len(x)
	}
	return x[:popSize], y[:popSize], r[:popSize]
}
