package nsga2

import (
	"testing"

	"go.viam.com/test"
)

func TestDominates(t *testing.T) {
	test.That(t, Dominates([]float64{1, 1}, []float64{2, 2}), test.ShouldBeTrue)
	test.That(t, Dominates([]float64{1, 2}, []float64{2, 1}), test.ShouldBeFalse)
	test.That(t, Dominates([]float64{1, 1}, []float64{1, 1}), test.ShouldBeFalse)
	test.That(t, Dominates([]float64{1, 2}, []float64{1, 3}), test.ShouldBeTrue)
}

// naiveParetoFront recomputes rank-0 membership by brute force, used as the
// reference for Testable property 1 (spec section 8).
func naiveParetoFront(Y [][]float64) map[int]bool {
	front := map[int]bool{}
	for i := range Y {
		dominated := false
		for j := range Y {
			if i == j {
				continue
			}
			if Dominates(Y[j], Y[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front[i] = true
		}
	}
	return front
}

func TestFastNonDominatedSortMatchesNaiveFront(t *testing.T) {
	Y := [][]float64{
		{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}, {2, 6}, {6, 2},
	}
	rank := FastNonDominatedSort(Y)
	naive := naiveParetoFront(Y)

	for i, r := range rank {
		test.That(t, r == 0, test.ShouldEqual, naive[i])
	}
}

func TestRankAssignmentScenarioS2(t *testing.T) {
	Y := [][]float64{
		{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}, {2, 6}, {6, 2},
	}
	rank := FastNonDominatedSort(Y)
	expected := []int{0, 0, 0, 0, 0, 1, 1}
	test.That(t, rank, test.ShouldResemble, expected)
}

func TestParetoFrontRandomPopulationsMatchNaive(t *testing.T) {
	populations := [][][]float64{
		{{0, 0}, {1, 1}, {0.5, 0.5}, {-1, 2}, {2, -1}},
		{{3, 1, 4}, {1, 5, 9}, {2, 6, 5}, {3, 5, 8}, {9, 7, 9}},
		{{1, 1}, {1, 1}, {1, 1}},
	}
	for _, Y := range populations {
		rank := FastNonDominatedSort(Y)
		naive := naiveParetoFront(Y)
		for i, r := range rank {
			test.That(t, r == 0, test.ShouldEqual, naive[i])
		}
	}
}
