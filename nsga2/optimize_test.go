package nsga2

import (
	"sort"
	"testing"

	"go.viam.com/test"
)

// twoObjModel is a simple two-objective test model: minimize the sum of x_i^2
// and the sum of (1-x_i)^2 across dimensions, giving a nontrivial Pareto front.
type twoObjModel struct{}

func (twoObjModel) Evaluate(x []float64) []float64 {
	f1 := 0.0
	f2 := 0.0
	for _, v := range x {
		f1 += v * v
		f2 += (1 - v) * (1 - v)
	}
	return []float64{f1, f2}
}

// TestOptimizeZeroGenerationsReturnsInitialSample is Testable property 4.
func TestOptimizeZeroGenerationsReturnsInitialSample(t *testing.T) {
	lb := []float64{-1, -1}
	ub := []float64{1, 1}
	opts := Options{
		Pop:           20,
		Gen:           0,
		CrossoverRate: 0.9,
		MutationRate:  0.1,
		DiCrossover:   1.0,
		DiMutation:    20.0,
		Seed:          99,
	}
	result := Optimize(twoObjModel{}, lb, ub, opts)

	test.That(t, len(result.BestX), test.ShouldEqual, opts.Pop)
	test.That(t, len(result.AllX), test.ShouldEqual, opts.Pop)

	// BestY/AllY must exactly be the (sorted) initial Latin-hypercube
	// evaluations: every row of BestY is present verbatim in AllY.
	sortedAll := append([][]float64{}, result.AllY...)
	sort.Slice(sortedAll, func(i, j int) bool { return sortedAll[i][0] < sortedAll[j][0] })
	sortedBest := append([][]float64{}, result.BestY...)
	sort.Slice(sortedBest, func(i, j int) bool { return sortedBest[i][0] < sortedBest[j][0] })
	for i := range sortedAll {
		test.That(t, sortedBest[i], test.ShouldResemble, sortedAll[i])
	}
}

func TestOptimizeRunsToParetoImprovement(t *testing.T) {
	lb := []float64{0, 0}
	ub := []float64{1, 1}
	opts := Options{
		Pop:           40,
		Gen:           30,
		CrossoverRate: 0.9,
		MutationRate:  0.1,
		DiCrossover:   1.0,
		DiMutation:    20.0,
		Seed:          1,
	}
	result := Optimize(twoObjModel{}, lb, ub, opts)

	test.That(t, len(result.BestX), test.ShouldEqual, opts.Pop)
	rank := FastNonDominatedSort(result.BestY)
	for _, r := range rank {
		test.That(t, r, test.ShouldEqual, 0)
	}

	// the true Pareto front for this model lies on the segment x_i equal
	// across dimensions between 0 and 1; every returned point must at least
	// stay inside the [0, 1] box.
	for _, x := range result.BestX {
		for _, v := range x {
			test.That(t, v, test.ShouldBeBetweenOrEqual, 0.0, 1.0)
		}
	}
}

func TestOptimizeWithFeasibilityModel(t *testing.T) {
	lb := []float64{-1, -1}
	ub := []float64{1, 1}
	fm := acceptAllModel{}
	opts := Options{
		Pop:           20,
		Gen:           5,
		CrossoverRate: 0.9,
		MutationRate:  0.1,
		DiCrossover:   1.0,
		DiMutation:    20.0,
		Seed:          3,
		Feasibility:   fm,
	}
	result := Optimize(twoObjModel{}, lb, ub, opts)
	test.That(t, len(result.BestX), test.ShouldEqual, opts.Pop)
}

type acceptAllModel struct{}

func (acceptAllModel) Predict(X [][]float64) (margin, distance [][]float64, extra any) {
	margin = make([][]float64, len(X))
	distance = make([][]float64, len(X))
	for i := range X {
		margin[i] = []float64{1.0}
		distance[i] = []float64{1.0}
	}
	return margin, distance, nil
}
