package feasibility

import (
	"math/rand"
	"testing"

	"go.viam.com/test"

	"github.com/iraikov/dmosopt/surrogate"
)

type stubOptimizer struct {
	rng    *rand.Rand
	trials int
}

func (s *stubOptimizer) Minimize(obj func(theta []float64) float64, lb, ub []float64) []float64 {
	best := make([]float64, len(lb))
	for j := range lb {
		best[j] = (lb[j] + ub[j]) / 2
	}
	bestVal := obj(best)
	for t := 0; t < s.trials; t++ {
		cand := make([]float64, len(lb))
		for j := range lb {
			cand[j] = lb[j] + s.rng.Float64()*(ub[j]-lb[j])
		}
		if v := obj(cand); v < bestVal {
			bestVal = v
			best = cand
		}
	}
	return best
}

// stubModel always predicts the given margin/distance rows, letting the
// selection-rule tests pin down exact behavior without a fitted GP.
type stubModel struct {
	margin, distance [][]float64
}

func (m stubModel) Predict(X [][]float64) (margin, distance [][]float64, extra any) {
	return m.margin, m.distance, nil
}

// TestSelectFeasiblePicksLargestDistanceAmongFeasible exercises spec
// section 4.E's consumer rule (a): among predicted-feasible candidates, the
// one with the largest sum of per-constraint distance wins.
func TestSelectFeasiblePicksLargestDistanceAmongFeasible(t *testing.T) {
	children := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	model := stubModel{
		margin:   [][]float64{{1, 1}, {1, 1}, {1, 1}},
		distance: [][]float64{{0.1, 0.1}, {0.9, 0.9}, {0.2, 0.2}},
	}
	rng := rand.New(rand.NewSource(1))
	picked := SelectFeasible(model, children, rng)
	test.That(t, picked, test.ShouldResemble, []float64{1, 1})
}

// TestSelectFeasibleFallsBackToUniformRandom exercises spec section 4.E's
// consumer rule (b): when no candidate is predicted feasible, one is chosen
// uniformly at random rather than leaving the selection undefined.
func TestSelectFeasibleFallsBackToUniformRandom(t *testing.T) {
	children := [][]float64{{0}, {1}, {2}}
	model := stubModel{
		margin:   [][]float64{{-1}, {-1}, {-1}},
		distance: [][]float64{{5}, {5}, {5}},
	}
	rng := rand.New(rand.NewSource(2))
	picked := SelectFeasible(model, children, rng)

	found := false
	for _, c := range children {
		if c[0] == picked[0] {
			found = true
		}
	}
	test.That(t, found, test.ShouldBeTrue)
}

// TestSelectFeasibleIgnoresInfeasibleEvenWithLargerDistance confirms a
// point with a larger distance but a non-positive margin component never
// wins over a feasible point with a smaller distance.
func TestSelectFeasibleIgnoresInfeasibleEvenWithLargerDistance(t *testing.T) {
	children := [][]float64{{0}, {1}}
	model := stubModel{
		margin:   [][]float64{{1}, {-1}},
		distance: [][]float64{{0.01}, {99}},
	}
	rng := rand.New(rand.NewSource(3))
	picked := SelectFeasible(model, children, rng)
	test.That(t, picked, test.ShouldResemble, []float64{0})
}

// TestSelectFeasiblePairAppliesIndependently confirms SelectFeasiblePair
// evaluates each child batch on its own margin/distance rows rather than
// sharing a single selection across both.
func TestSelectFeasiblePairAppliesIndependently(t *testing.T) {
	children1 := [][]float64{{0}, {1}}
	children2 := [][]float64{{10}, {11}}
	model := stubModel{
		margin:   [][]float64{{1}, {1}},
		distance: [][]float64{{1}, {2}},
	}
	rng := rand.New(rand.NewSource(4))
	c1, c2 := SelectFeasiblePair(model, children1, children2, rng)
	test.That(t, c1, test.ShouldResemble, []float64{1})
	test.That(t, c2, test.ShouldResemble, []float64{11})
}

// TestGPModelPredictsPositiveMarginForFeasibleRegion fits a GPModel on a
// simple constraint surface (feasible when x > 0.5) and checks the margin
// sign matches the region.
func TestGPModelPredictsPositiveMarginForFeasibleRegion(t *testing.T) {
	X := make([][]float64, 10)
	C := make([][]float64, 10)
	for i := range X {
		x := float64(i) / 9.0
		X[i] = []float64{x}
		C[i] = []float64{x - 0.5}
	}

	opt := &stubOptimizer{rng: rand.New(rand.NewSource(6)), trials: 30}
	model, err := NewGPModel(X, C, surrogate.FitOptions{Kind: surrogate.KernelRBF, Optimizer: opt})
	test.That(t, err, test.ShouldBeNil)

	margin, distance, _ := model.Predict([][]float64{{0.9}, {0.1}})
	test.That(t, len(margin), test.ShouldEqual, 2)
	test.That(t, margin[0][0], test.ShouldBeGreaterThan, 0)
	test.That(t, margin[1][0], test.ShouldBeLessThan, 0)
	test.That(t, distance[0][0], test.ShouldBeGreaterThan, 0)
}
