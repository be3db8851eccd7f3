// Package moasmo implements the Multi-Objective Adaptive Surrogate
// Modelling-based Optimization driver: sample, fit a surrogate, run NSGA-II
// against the surrogate, resample by crowding distance, and hand the
// resample batch back to the caller for real evaluation (spec section 4.G).
package moasmo

import (
	"math"
	"sort"

	"github.com/iraikov/dmosopt/feasibility"
	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/nsga2"
	"github.com/iraikov/dmosopt/paramspace"
	"github.com/iraikov/dmosopt/sampling"
	"github.com/iraikov/dmosopt/surrogate"
	"github.com/iraikov/dmosopt/termination"
)

// Options configures one epoch of the MO-ASMO driver.
type Options struct {
	Pop           int
	Gen           int
	CrossoverRate float64
	MutationRate  float64
	DiCrossover   float64
	DiMutation    float64
	ResamplePct   float64 // fraction of Pop resampled per epoch
	Kind          surrogate.KernelKind
	Optimizer     surrogate.Optimizer

	// Feasibility and Termination are the two optional inner-NSGA-II driver
	// inputs named by spec section 4.G. Both are nil by default (no
	// feasibility bias, no early termination), matching "optional."
	Feasibility feasibility.Model
	Termination *termination.Predicate

	Seed   uint64
	Logger logging.Logger
}

// DefaultMutationRate mirrors the Python default of 1/nInput when the
// caller leaves MutationRate unset.
func DefaultMutationRate(dim int) float64 {
	return 1.0 / float64(dim)
}

// InitialSample builds the initial Good-Lattice-Point design used to seed a
// fresh optimization, mirroring xinit's nPrevious-clamped count. nEval is
// the desired samples-per-dimension multiplier; nPrevious is the count of
// points already available (e.g. from a restored run) to subtract off. A
// non-positive resulting count returns nil, signalling "no further initial
// samples are needed."
func InitialSample(nEval, dim int, lb, ub []float64, nPrevious int, seed uint64) [][]float64 {
	n := nEval*dim - nPrevious
	if n <= 0 {
		return nil
	}
	pts := sampling.GoodLatticePoint(n, dim, 50, seed)
	sampling.Scale(pts, lb, ub)
	return sampling.Rows(pts)
}

// surrogateModel adapts a fitted surrogate.GP to nsga2.Model.
type surrogateModel struct {
	gp *surrogate.GP
}

func (m surrogateModel) Evaluate(x []float64) []float64 { return m.gp.Predict(x) }

// StepResult is the outcome of one MO-ASMO epoch: the surrogate-predicted
// Pareto set/front and the batch of points selected for real evaluation.
type StepResult struct {
	BestX [][]float64
	BestY [][]float64

	// ResampleX are the points selected for real evaluation; ResampleYPred
	// are the surrogate's predicted objective values for those same points,
	// carried along so callers can later score surrogate accuracy once the
	// real evaluation comes back (spec's (x_resample[i], y_pred[i]) pairing).
	ResampleX     [][]float64
	ResampleYPred [][]float64
}

// OneStep fits a surrogate to (X, Y), optimizes it with NSGA-II, and
// selects the ResamplePct*Pop most novel points (by surrogate-objective
// crowding distance) for real evaluation. It never calls the real model,
// matching the offline "one-step" mode ported from the original driver.
func OneStep(X, Y [][]float64, lb, ub []float64, opts Options) (StepResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("moasmo")
	}

	gp, err := surrogate.Fit(X, Y, surrogate.FitOptions{Kind: opts.Kind, Optimizer: opts.Optimizer, Logger: logger})
	if err != nil {
		return StepResult{}, err
	}

	nsgaOpts := nsga2.Options{
		Pop:           opts.Pop,
		Gen:           opts.Gen,
		CrossoverRate: opts.CrossoverRate,
		MutationRate:  opts.MutationRate,
		DiCrossover:   opts.DiCrossover,
		DiMutation:    opts.DiMutation,
		Feasibility:   opts.Feasibility,
		Termination:   opts.Termination,
		Seed:          opts.Seed,
		Logger:        logger,
	}
	result := nsga2.Optimize(surrogateModel{gp: gp}, lb, ub, nsgaOpts)

	nResample := int(float64(opts.Pop) * opts.ResamplePct)
	resampleX, resampleY := selectByCrowding(result.BestX, result.BestY, nResample)

	return StepResult{BestX: result.BestX, BestY: result.BestY, ResampleX: resampleX, ResampleYPred: resampleY}, nil
}

// selectByCrowding picks the n points with the largest crowding distance,
// mirroring onestep's D.argsort()[::-1][:N_resample], returning both the
// selected inputs and their corresponding surrogate-predicted outputs.
func selectByCrowding(X, Y [][]float64, n int) (selX, selY [][]float64) {
	if n <= 0 || len(X) == 0 {
		return nil, nil
	}
	if n > len(X) {
		n = len(X)
	}
	d := nsga2.CrowdingDistance(Y)
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return d[idx[i]] > d[idx[j]] })

	selX = make([][]float64, n)
	selY = make([][]float64, n)
	for i := 0; i < n; i++ {
		selX[i] = append([]float64{}, X[idx[i]]...)
		selY[i] = append([]float64{}, Y[idx[i]]...)
	}
	return selX, selY
}

// GetBest extracts the rank-0 (non-dominated) subset of the full evaluation
// history, optionally carrying parallel feature and constraint rows along
// for the ride. When feasibleOnly is true and constraints is non-nil, the
// rank-0 subset is further filtered to rows whose constraints are all
// strictly positive (spec section 4.H's get_best_evals(feasible?)); an
// entry with no constraints recorded is always feasible, matching
// paramspace.Entry.Feasible's convention.
func GetBest(X, Y, features, constraints [][]float64, feasibleOnly bool) (bestX, bestY, bestF, bestC [][]float64) {
	xOut, yOut, rank, _, perm := nsga2.SortMO(X, Y)
	for i, r := range rank {
		if r != 0 {
			continue
		}
		orig := perm[i]
		if feasibleOnly && constraints != nil {
			if !(paramspace.Entry{Constraints: constraints[orig]}).Feasible() {
				continue
			}
		}
		bestX = append(bestX, xOut[i])
		bestY = append(bestY, yOut[i])
		if features != nil {
			bestF = append(bestF, features[orig])
		}
		if constraints != nil {
			bestC = append(bestC, constraints[orig])
		}
	}
	return bestX, bestY, bestF, bestC
}

// approxEqual reports whether a and b are close under the relative+absolute
// tolerance anyclose uses when deduplicating restored initial samples.
func approxEqual(a, b []float64, rtol, atol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > atol+rtol*math.Abs(b[i]) {
			return false
		}
	}
	return true
}

// AnyClose reports whether x is within tolerance of any row already present
// in existing, mirroring original_source's anyclose dedup used when
// restoring an initial sample against prior history.
func AnyClose(x []float64, existing [][]float64, rtol, atol float64) bool {
	for _, e := range existing {
		if approxEqual(x, e, rtol, atol) {
			return true
		}
	}
	return false
}
