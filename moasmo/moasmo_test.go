package moasmo

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

// stubOptimizer avoids paying for full SCE-UA inside fast unit tests.
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

func sampleGrid(n, dim int) [][]float64 {
	X := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, dim)
		for j := range row {
			row[j] = float64(i) / float64(n-1)
		}
		X[i] = row
	}
	return X
}

func TestOneStepProducesResampleBatch(t *testing.T) {
	dim := 2
	X := sampleGrid(16, dim)
	Y := make([][]float64, len(X))
	for i, x := range X {
		Y[i] = []float64{x[0]*x[0] + x[1]*x[1], (1 - x[0]) * (1 - x[0])}
	}

	opts := Options{
		Pop:           20,
		Gen:           5,
		CrossoverRate: 0.9,
		MutationRate:  DefaultMutationRate(dim),
		DiCrossover:   1.0,
		DiMutation:    20.0,
		ResamplePct:   0.2,
		Optimizer:     &stubOptimizer{rng: rand.New(rand.NewSource(9)), trials: 20},
		Seed:          42,
	}
	lb := []float64{0, 0}
	ub := []float64{1, 1}

	result, err := OneStep(X, Y, lb, ub, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(result.BestX), test.ShouldEqual, opts.Pop)
	test.That(t, len(result.ResampleX), test.ShouldEqual, int(float64(opts.Pop)*opts.ResamplePct))
	for _, x := range result.ResampleX {
		for j, v := range x {
			test.That(t, v, test.ShouldBeBetweenOrEqual, lb[j], ub[j])
		}
	}
}

func TestGetBestReturnsOnlyRankZero(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	Y := [][]float64{{1, 4}, {2, 3}, {3, 2}, {4, 1}}
	bestX, bestY, bestF, bestC := GetBest(X, Y, nil, nil, false)
	test.That(t, len(bestX), test.ShouldEqual, 4)
	test.That(t, len(bestY), test.ShouldEqual, 4)
	test.That(t, bestF, test.ShouldBeNil)
	test.That(t, bestC, test.ShouldBeNil)
}

// TestGetBestFiltersInfeasible is Testable property 7's feasible? branch:
// with feasibleOnly set, a rank-0 row whose constraint is non-positive must
// be excluded from the result.
func TestGetBestFiltersInfeasible(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	Y := [][]float64{{1, 4}, {2, 3}, {3, 2}, {4, 1}}
	C := [][]float64{{1}, {-1}, {1}, {1}}
	bestX, _, _, bestC := GetBest(X, Y, nil, C, true)
	test.That(t, len(bestX), test.ShouldEqual, 3)
	for _, c := range bestC {
		test.That(t, c[0], test.ShouldBeGreaterThan, 0)
	}
}

func TestInitialSampleClampsToPrevious(t *testing.T) {
	lb := []float64{0, 0}
	ub := []float64{1, 1}
	pts := InitialSample(10, 2, lb, ub, 25, 1)
	test.That(t, pts, test.ShouldBeNil)

	pts2 := InitialSample(10, 2, lb, ub, 5, 1)
	test.That(t, len(pts2), test.ShouldEqual, 15)
	for _, x := range pts2 {
		for j, v := range x {
			test.That(t, v, test.ShouldBeBetweenOrEqual, lb[j], ub[j])
		}
	}
}

func TestAnyCloseDetectsDuplicates(t *testing.T) {
	existing := [][]float64{{1.0, 2.0}, {3.0, 4.0}}
	test.That(t, AnyClose([]float64{1.00001, 2.00001}, existing, 1e-4, 1e-4), test.ShouldBeTrue)
	test.That(t, AnyClose([]float64{10, 10}, existing, 1e-4, 1e-4), test.ShouldBeFalse)
}
