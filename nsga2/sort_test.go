package nsga2

import (
	"testing"

	"go.viam.com/test"
)

func TestSortMORankAscendingCrowdDescending(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}}
	Y := [][]float64{
		{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}, {2, 6}, {6, 2},
	}
	_, yOut, rank, crowd, perm := SortMO(X, Y)

	for i := 1; i < len(rank); i++ {
		test.That(t, rank[i], test.ShouldBeGreaterThanOrEqualTo, rank[i-1])
	}
	for i := 1; i < len(rank); i++ {
		if rank[i] == rank[i-1] {
			test.That(t, crowd[i-1], test.ShouldBeGreaterThanOrEqualTo, crowd[i])
		}
	}
	// perm must be a permutation of [0,len(Y))
	seen := make([]bool, len(Y))
	for _, p := range perm {
		test.That(t, seen[p], test.ShouldBeFalse)
		seen[p] = true
	}
	for i, p := range perm {
		test.That(t, yOut[i], test.ShouldResemble, Y[p])
	}
}

func TestRemoveWorstKeepsTopPop(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}}
	Y := [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}}
	xOut, yOut, rank := RemoveWorst(X, Y, 3)
	test.That(t, len(xOut), test.ShouldEqual, 3)
	test.That(t, len(yOut), test.ShouldEqual, 3)
	test.That(t, len(rank), test.ShouldEqual, 3)
	for _, r := range rank {
		test.That(t, r, test.ShouldEqual, 0)
	}
}
