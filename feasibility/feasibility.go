// Package feasibility implements the optional constraint-feasibility model
// used to bias NSGA-II child selection toward feasible regions of the
// parameter space (spec section 4.E).
package feasibility

import (
	"math"
	"math/rand"

	"github.com/iraikov/dmosopt/surrogate"
)

// Model predicts, for a batch of candidate points, a signed feasibility
// margin per constraint (positive = feasible), a per-constraint distance
// used to rank candidates, and an implementation-defined extra payload. A
// point is predicted feasible when every component of its margin is > 0.
type Model interface {
	Predict(X [][]float64) (margin, distance [][]float64, extra any)
}

// GPModel is the concrete classifier named by spec section 4.E ("Optional
// classifier over constraints"): one independent GP regressor per
// constraint column, fit directly on the evaluation history's (X, C) pairs
// the same way the surrogate package fits one GP per objective column
// (spec section 9's "per-objective independent GPs" convention, generalized
// here to constraints). The predicted constraint value doubles as both the
// signed margin and, via its absolute value, the ranking distance.
type GPModel struct {
	gp *surrogate.GP
}

// NewGPModel fits a GPModel against the evaluation history's inputs X and
// constraint values C (one column per constraint).
func NewGPModel(X, C [][]float64, opts surrogate.FitOptions) (*GPModel, error) {
	gp, err := surrogate.Fit(X, C, opts)
	if err != nil {
		return nil, err
	}
	return &GPModel{gp: gp}, nil
}

// Predict implements Model.
func (m *GPModel) Predict(X [][]float64) (margin, distance [][]float64, extra any) {
	margin = m.gp.PredictBatch(X)
	distance = make([][]float64, len(margin))
	for i, row := range margin {
		d := make([]float64, len(row))
		for j, v := range row {
			d[j] = math.Abs(v)
		}
		distance[i] = d
	}
	return margin, distance, nil
}

// SelectFeasible picks the single best candidate out of children according
// to model, per spec section 4.E: among predicted-feasible candidates, the
// one with the largest sum of per-constraint distance wins; if none are
// predicted feasible, one candidate is chosen uniformly at random.
func SelectFeasible(model Model, children [][]float64, rng *rand.Rand) []float64 {
	margin, distance, _ := model.Predict(children)

	var feasibleIdx []int
	for i, m := range margin {
		if allPositive(m) {
			feasibleIdx = append(feasibleIdx, i)
		}
	}

	if len(feasibleIdx) == 0 {
		pick := rng.Intn(len(children))
		return children[pick]
	}

	bestIdx := feasibleIdx[0]
	bestSum := sum(distance[feasibleIdx[0]])
	for _, idx := range feasibleIdx[1:] {
		s := sum(distance[idx])
		if s > bestSum {
			bestSum = s
			bestIdx = idx
		}
	}
	return children[bestIdx]
}

// SelectFeasiblePair applies SelectFeasible independently to two batches of
// candidate children, used by SBX crossover's feasibility-aware selection
// (spec section 4.E).
func SelectFeasiblePair(model Model, children1, children2 [][]float64, rng *rand.Rand) (child1, child2 []float64) {
	return SelectFeasible(model, children1, rng), SelectFeasible(model, children2, rng)
}

func allPositive(v []float64) bool {
	for _, x := range v {
		if x <= 0 {
			return false
		}
	}
	return true
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}
