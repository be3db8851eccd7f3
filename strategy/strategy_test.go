package strategy

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"

	"github.com/iraikov/dmosopt/paramspace"
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

func testProblem() Problem {
	return Problem{
		Space: paramspace.Space{Parameters: []paramspace.Parameter{
			{Name: "x0", Lower: 0, Upper: 1},
			{Name: "x1", Lower: 0, Upper: 1},
		}},
		NumObjective: 2,
	}
}

func testOptions() Options {
	return Options{
		NInitial:       5,
		InitialMaxIter: 5,
		PopulationSize: 20,
		NumGenerations: 5,
		ResampleFrac:   0.2,
		CrossoverRate:  0.9,
		MutationRate:   0.5,
		DiCrossover:    1.0,
		DiMutation:     20.0,
		Optimizer:      &stubOptimizer{rng: rand.New(rand.NewSource(11)), trials: 15},
		Seed:           5,
	}
}

func evalObjective(x []float64) []float64 {
	return []float64{x[0]*x[0] + x[1]*x[1], (1 - x[0]) * (1 - x[0])}
}

// TestStrategyInitialRequestsPopulateQueue is Testable property 7 (part 1):
// GetNextRequest drains exactly the initial design before returning nil.
func TestStrategyInitialRequestsPopulateQueue(t *testing.T) {
	s := New(testProblem(), testOptions(), nil, nil, nil, nil)
	count := 0
	for {
		req := s.GetNextRequest()
		if req == nil {
			break
		}
		test.That(t, len(req.X), test.ShouldEqual, 2)
		test.That(t, req.YPred, test.ShouldBeNil)
		count++
	}
	test.That(t, count, test.ShouldEqual, testOptions().NInitial*testProblem().Space.Dim())
	test.That(t, s.GetNextRequest(), test.ShouldBeNil)
}

// TestCompleteRequestValidatesShape is Testable property 7 (part 2).
func TestCompleteRequestValidatesShape(t *testing.T) {
	s := New(testProblem(), testOptions(), nil, nil, nil, nil)
	err := s.CompleteRequest([]float64{0.1, 0.2}, []float64{0.5, 0.5}, nil, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	err = s.CompleteRequest([]float64{0.1}, []float64{0.5, 0.5}, nil, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	err = s.CompleteRequest([]float64{0.1, 0.2}, []float64{0.5}, nil, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStepFoldsCompletedAndRefillsQueue(t *testing.T) {
	opts := testOptions()
	s := New(testProblem(), opts, nil, nil, nil, nil)

	for {
		req := s.GetNextRequest()
		if req == nil {
			break
		}
		y := evalObjective(req.X)
		test.That(t, s.CompleteRequest(req.X, y, nil, nil, req.YPred), test.ShouldBeNil)
	}

	test.That(t, s.OutstandingCompletions(), test.ShouldBeGreaterThan, 0)
	err := s.Step()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.OutstandingCompletions(), test.ShouldEqual, 0)
	test.That(t, s.PendingRequests(), test.ShouldBeGreaterThan, 0)

	x, y, _ := s.GetEvals(false)
	test.That(t, len(x), test.ShouldBeGreaterThan, 0)
	test.That(t, len(y), test.ShouldEqual, len(x))

	bestX, bestY, _ := s.GetBestEvals(false)
	test.That(t, len(bestX), test.ShouldBeGreaterThan, 0)
	test.That(t, len(bestY), test.ShouldEqual, len(bestX))

	// run a second epoch: completed requests now carry a surrogate
	// prediction, exercising the yPred plumbing end to end.
	for {
		req := s.GetNextRequest()
		if req == nil {
			break
		}
		test.That(t, req.YPred, test.ShouldNotBeNil)
		y := evalObjective(req.X)
		test.That(t, s.CompleteRequest(req.X, y, nil, nil, req.YPred), test.ShouldBeNil)
	}
	_, _, _, _, yPred := s.GetCompleted()
	test.That(t, len(yPred), test.ShouldBeGreaterThan, 0)
}

func TestGetCompletedReturnsNilWhenEmpty(t *testing.T) {
	s := New(testProblem(), testOptions(), nil, nil, nil, nil)
	x, y, f, _, yPred := s.GetCompleted()
	test.That(t, x, test.ShouldBeNil)
	test.That(t, y, test.ShouldBeNil)
	test.That(t, f, test.ShouldBeNil)
	test.That(t, yPred, test.ShouldBeNil)
}

// TestIntegerParameterScenario is scenario S4: space={"k":(1,5),"x":(0,1)},
// objective (k, -k+x). Every recorded k must stay an integer in [1,5], and
// enough epochs over this two-parameter problem must surface both k=1 (best
// f0) and k=5 (best f1) on the returned Pareto front.
func TestIntegerParameterScenario(t *testing.T) {
	prob := Problem{
		Space: paramspace.Space{Parameters: []paramspace.Parameter{
			{Name: "k", Lower: 1, Upper: 5, Integer: true},
			{Name: "x", Lower: 0, Upper: 1},
		}},
		NumObjective: 2,
	}
	opts := Options{
		NInitial:       10,
		InitialMaxIter: 5,
		PopulationSize: 20,
		NumGenerations: 10,
		ResampleFrac:   0.3,
		CrossoverRate:  0.9,
		MutationRate:   0.5,
		DiCrossover:    1.0,
		DiMutation:     20.0,
		Optimizer:      &stubOptimizer{rng: rand.New(rand.NewSource(21)), trials: 15},
		Seed:           21,
	}
	s := New(prob, opts, nil, nil, nil, nil)

	eval := func(x []float64) []float64 {
		k, v := x[0], x[1]
		return []float64{k, -k + v}
	}

	for epoch := 0; epoch < 5; epoch++ {
		for {
			req := s.GetNextRequest()
			if req == nil {
				break
			}
			k := req.X[0]
			test.That(t, k, test.ShouldEqual, math.Round(k))
			test.That(t, k, test.ShouldBeBetweenOrEqual, 1.0, 5.0)
			y := eval(req.X)
			test.That(t, s.CompleteRequest(req.X, y, nil, nil, req.YPred), test.ShouldBeNil)
		}
		test.That(t, s.Step(), test.ShouldBeNil)
	}

	bestX, _, _ := s.GetBestEvals(false)
	sawMin, sawMax := false, false
	for _, x := range bestX {
		if x[0] == 1 {
			sawMin = true
		}
		if x[0] == 5 {
			sawMax = true
		}
	}
	test.That(t, sawMin, test.ShouldBeTrue)
	test.That(t, sawMax, test.ShouldBeTrue)
}

// TestStrategyDedupsAgainstRestoredHistory exercises the anyclose-based
// filtering applied when constructing a Strategy from restored history.
func TestStrategyDedupsAgainstRestoredHistory(t *testing.T) {
	restoredX := [][]float64{{0.5, 0.5}, {0.25, 0.75}}
	restoredY := [][]float64{{0.5, 0.25}, {0.125, 0.5625}}
	s := New(testProblem(), testOptions(), restoredX, restoredY, nil, nil)
	for {
		req := s.GetNextRequest()
		if req == nil {
			break
		}
		for _, r := range restoredX {
			closeMatch := true
			for i := range req.X {
				if req.X[i] != r[i] {
					closeMatch = false
					break
				}
			}
			test.That(t, closeMatch, test.ShouldBeFalse)
		}
	}
}
