// Package strategy implements the per-problem optimization strategy (spec
// section 4.H): a FIFO request queue fed by the initial design and
// successive resample batches, a completed-evaluation buffer, and the
// epoch-advance step that folds completed evaluations into history and
// asks moasmo for the next resample batch.
package strategy

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/iraikov/dmosopt/feasibility"
	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/moasmo"
	"github.com/iraikov/dmosopt/paramspace"
	"github.com/iraikov/dmosopt/surrogate"
	"github.com/iraikov/dmosopt/termination"
)

// Problem describes the fixed shape of one optimization problem: its
// parameter space, number of objectives, and (optional) feature/constraint
// counts.
type Problem struct {
	Space         paramspace.Space
	NumObjective  int
	NumFeature    int // 0 if the problem reports no auxiliary features
	NumConstraint int // 0 if the problem reports no constraints
}

// Options configures a Strategy's embedded MO-ASMO driver and initial
// design, mirroring OptStrategy's constructor arguments.
type Options struct {
	NInitial       int
	InitialMaxIter int
	PopulationSize int
	NumGenerations int
	ResampleFrac   float64
	CrossoverRate  float64
	MutationRate   float64
	DiCrossover    float64
	DiMutation     float64
	KernelKind     surrogate.KernelKind
	Optimizer      surrogate.Optimizer

	// FeasibilityModel enables fitting a fresh feasibility.GPModel against
	// the constraint history at the start of every Step, and threading it
	// into the inner NSGA-II run (spec section 4.G's optional feasibility
	// model input). It has no effect when the problem declares no
	// constraints (NumConstraint == 0).
	FeasibilityModel bool

	// Termination, when non-nil, is used to build a fresh
	// termination.Predicate for every Step's inner NSGA-II run (spec
	// section 4.G's optional termination input). nil disables early
	// termination.
	Termination *termination.Conditions

	Seed   uint64
	Logger logging.Logger
}

type completedEval struct {
	x, y, f, c, yPred []float64
}

// Strategy tracks one problem's evaluation history, its pending request
// queue, and the buffer of completed-but-not-yet-folded-in evaluations.
type Strategy struct {
	prob Problem
	opts Options

	x, y, f, c [][]float64          // folded-in history; f/c rows nil when NumFeature/NumConstraint==0
	reqs       []paramspace.Request // pending FIFO requests
	done       []completedEval

	logger logging.Logger
}

// New constructs a Strategy and computes its initial request batch via
// moasmo.InitialSample, deduplicating against restored history exactly as
// OptStrategy's constructor does when an initial sample is supplied.
func New(prob Problem, opts Options, restoredX, restoredY, restoredF, restoredC [][]float64) *Strategy {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("strategy")
	}
	s := &Strategy{prob: prob, opts: opts, logger: logger}

	nPrevious := 0
	if restoredX != nil {
		nPrevious = len(restoredX)
		s.x, s.y, s.f, s.c = restoredX, restoredY, restoredF, restoredC
	}

	lb, ub := prob.Space.Bounds()
	initial := moasmo.InitialSample(opts.NInitial, prob.Space.Dim(), lb, ub, nPrevious, opts.Seed)
	if initial == nil {
		return s
	}
	if restoredX != nil {
		initial = lo.Filter(initial, func(row []float64, _ int) bool {
			return !moasmo.AnyClose(row, restoredX, 1e-4, 1e-4)
		})
	}
	for _, row := range initial {
		s.reqs = append(s.reqs, paramspace.Request{X: row})
	}
	return s
}

// GetNextRequest pops and returns the next pending request, or nil if the
// queue is empty (mirroring OptStrategy.get_next_x's list.pop(0)). YPred is
// nil for requests drawn from the initial sample. Integer-flagged dimensions
// are rounded (and every dimension clamped to bounds) here, on delivery to
// the caller's objective function; the queued proposal itself stays in the
// continuous domain the evolutionary operators expect (spec section 3).
func (s *Strategy) GetNextRequest() *paramspace.Request {
	if len(s.reqs) == 0 {
		return nil
	}
	req := s.reqs[0]
	s.reqs = s.reqs[1:]
	x := append([]float64{}, req.X...)
	s.prob.Space.Clip(x)
	req.X = x
	return &req
}

// CompleteRequest records a completed evaluation, validating the shapes of
// x, y, and (when the problem declares them) f and c against the problem
// definition, mirroring OptStrategy.complete_x's assertions and raising the
// spec section 7 "Shape violation" error on a constraint-count mismatch.
// yPred carries the surrogate's prediction for x, if the request came from
// a resample batch, so that GetCompleted can later report surrogate
// accuracy.
func (s *Strategy) CompleteRequest(x, y, f, c, yPred []float64) error {
	if len(x) != s.prob.Space.Dim() {
		return fmt.Errorf("strategy: x has dim %d, want %d", len(x), s.prob.Space.Dim())
	}
	if len(y) != s.prob.NumObjective {
		return fmt.Errorf("strategy: y has dim %d, want %d", len(y), s.prob.NumObjective)
	}
	if s.prob.NumFeature > 0 && len(f) != s.prob.NumFeature {
		return fmt.Errorf("strategy: f has dim %d, want %d", len(f), s.prob.NumFeature)
	}
	if s.prob.NumConstraint > 0 && len(c) != s.prob.NumConstraint {
		return fmt.Errorf("strategy: c has dim %d, want %d", len(c), s.prob.NumConstraint)
	}
	s.done = append(s.done, completedEval{x: x, y: y, f: f, c: c, yPred: yPred})
	return nil
}

// Step folds every completed evaluation into history, then asks moasmo for
// the next epoch's resample batch and appends it to the request queue,
// mirroring OptStrategy.step. When FeasibilityModel is enabled and the
// problem declares constraints, a fresh feasibility.GPModel is fit against
// the constraint history and threaded into this epoch's inner NSGA-II run;
// when Termination is configured, a fresh termination.Predicate is built
// for the same run (spec section 4.G's two optional driver inputs).
func (s *Strategy) Step() error {
	if len(s.done) > 0 {
		for _, comp := range s.done {
			s.x = append(s.x, comp.x)
			s.y = append(s.y, comp.y)
			if s.prob.NumFeature > 0 {
				s.f = append(s.f, comp.f)
			}
			if s.prob.NumConstraint > 0 {
				s.c = append(s.c, comp.c)
			}
		}
		s.done = nil
	}

	if len(s.x) == 0 {
		return fmt.Errorf("strategy: cannot step with no evaluation history")
	}

	var fm feasibility.Model
	if s.opts.FeasibilityModel && s.prob.NumConstraint > 0 && len(s.c) > 0 {
		model, err := feasibility.NewGPModel(s.x, s.c, surrogate.FitOptions{
			Kind:      s.opts.KernelKind,
			Optimizer: s.opts.Optimizer,
			Logger:    s.logger,
		})
		if err != nil {
			return fmt.Errorf("strategy: fit feasibility model: %w", err)
		}
		fm = model
	}

	var term *termination.Predicate
	if s.opts.Termination != nil {
		term = termination.New(*s.opts.Termination)
	}

	lb, ub := s.prob.Space.Bounds()
	result, err := moasmo.OneStep(s.x, s.y, lb, ub, moasmo.Options{
		Pop:           s.opts.PopulationSize,
		Gen:           s.opts.NumGenerations,
		CrossoverRate: s.opts.CrossoverRate,
		MutationRate:  s.opts.MutationRate,
		DiCrossover:   s.opts.DiCrossover,
		DiMutation:    s.opts.DiMutation,
		ResamplePct:   s.opts.ResampleFrac,
		Kind:          s.opts.KernelKind,
		Optimizer:     s.opts.Optimizer,
		Feasibility:   fm,
		Termination:   term,
		Seed:          s.opts.Seed,
		Logger:        s.logger,
	})
	if err != nil {
		return err
	}
	for i, x := range result.ResampleX {
		s.reqs = append(s.reqs, paramspace.Request{X: x, YPred: result.ResampleYPred[i]})
	}
	return nil
}

// GetBestEvals returns the non-dominated subset of the full history,
// mirroring OptStrategy.get_best_evals(feasible?): when feasible is true,
// the rank-0 subset is further filtered to rows whose recorded constraints
// are all strictly positive (an entry with no constraints is always
// feasible).
func (s *Strategy) GetBestEvals(feasible bool) (bestX, bestY, bestF [][]float64) {
	if s.x == nil {
		return nil, nil, nil
	}
	bestX, bestY, bestF, _ = moasmo.GetBest(s.x, s.y, s.f, s.c, feasible)
	return bestX, bestY, bestF
}

// GetEvals returns the full folded-in history, optionally including
// per-evaluation features.
func (s *Strategy) GetEvals(returnFeatures bool) (x, y, f [][]float64) {
	if returnFeatures {
		return s.x, s.y, s.f
	}
	return s.x, s.y, nil
}

// GetCompleted returns every evaluation completed since the last Step,
// still pending being folded into history, or nil if none are pending.
// yPred rows are nil for completions that originated from the initial
// sample rather than a surrogate resample batch.
func (s *Strategy) GetCompleted() (x, y, f, c, yPred [][]float64) {
	if len(s.done) == 0 {
		return nil, nil, nil, nil, nil
	}
	for _, comp := range s.done {
		x = append(x, comp.x)
		y = append(y, comp.y)
		yPred = append(yPred, comp.yPred)
		if s.prob.NumFeature > 0 {
			f = append(f, comp.f)
		}
		if s.prob.NumConstraint > 0 {
			c = append(c, comp.c)
		}
	}
	return x, y, f, c, yPred
}

// PendingRequests reports how many requests remain queued, used by the
// scheduler to decide whether a strategy still has work to dispatch.
func (s *Strategy) PendingRequests() int { return len(s.reqs) }

// OutstandingCompletions reports how many completed evaluations are
// buffered but not yet folded into history via Step.
func (s *Strategy) OutstandingCompletions() int { return len(s.done) }
