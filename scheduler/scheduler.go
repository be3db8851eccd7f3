// Package scheduler implements the distributed evaluation scheduler (spec
// section 4.I): a single-threaded cooperative controller that dispatches
// batched candidate vectors across a worker pool, drains completions, and
// advances per-problem strategies at end-of-epoch barriers.
package scheduler

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/paramspace"
	"github.com/iraikov/dmosopt/strategy"
)

// TaskID identifies one in-flight batched evaluation call.
type TaskID int64

// EvalResult is one problem's share of a batched task's result.
type EvalResult struct {
	Y []float64
	F []float64 // nil when the problem reports no features
	C []float64 // nil when the problem reports no constraints
}

// Completion is one drained task: the dispatched task id and, per problem
// id, its evaluation result.
type Completion struct {
	TaskID  TaskID
	Results map[string]EvalResult
}

// WorkerPool is the cooperative worker-pool contract the controller drives.
// Only Recv may block; every other method returns immediately.
type WorkerPool interface {
	// Recv blocks until at least one message (a result or a worker becoming
	// ready) is pending.
	Recv()
	// ProbeAllNextResults drains every completed task currently available,
	// without blocking.
	ProbeAllNextResults() []Completion
	// SubmitCall dispatches a batched evaluation request carrying one
	// parameter vector per problem id, returning the assigned task id.
	SubmitCall(args map[string][]float64) TaskID
	// ReadyWorkers reports how many workers are currently idle.
	ReadyWorkers() int
	// Info returns a short diagnostic string (worker counts, queue depth).
	Info() string
}

// Metrics holds the Prometheus instruments the controller updates as it
// runs; pass a zero Metrics (all nil) to disable instrumentation.
type Metrics struct {
	EpochsCompleted   prometheus.Counter
	EvalsDispatched   prometheus.Counter
	EvalsFailed       prometheus.Counter
	SurrogateMAE      *prometheus.GaugeVec // labeled by problem_id
}

// NewMetrics registers the standard scheduler instruments with reg and
// returns the populated Metrics.
func NewMetrics(reg prometheus.Registerer) Metrics {
	m := Metrics{
		EpochsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmosopt_epochs_completed_total",
			Help: "Number of MO-ASMO epochs completed by the scheduler.",
		}),
		EvalsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmosopt_evaluations_dispatched_total",
			Help: "Number of objective-function evaluations dispatched to workers.",
		}),
		EvalsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmosopt_evaluations_failed_total",
			Help: "Number of dispatched evaluations whose task failed.",
		}),
		SurrogateMAE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dmosopt_surrogate_mean_absolute_error",
			Help: "Mean absolute error between surrogate prediction and realized objective value, per problem.",
		}, []string{"problem_id"}),
	}
	reg.MustRegister(m.EpochsCompleted, m.EvalsDispatched, m.EvalsFailed, m.SurrogateMAE)
	return m
}

// problemState pairs a problem id with its strategy and the requests it has
// in flight, keyed by task id.
type problemState struct {
	id       string
	strat    *strategy.Strategy
	inFlight map[TaskID]paramspace.Request // task id -> dispatched request, for log/persist/MAE
}

// Controller runs one optimization's dispatch/drain/end-of-epoch loop.
type Controller struct {
	optID    string
	pool     WorkerPool
	problems []*problemState
	nEpochs  int

	taskIDs      []TaskID
	epochCount   int
	evalCount    int
	logger       logging.Logger
	metrics      Metrics
	persist      func(optID string, completions []Completion) error
}

// NewController constructs a Controller for one opt_id over the given set
// of (problem id, strategy) pairs.
func NewController(optID string, pool WorkerPool, strategies map[string]*strategy.Strategy, nEpochs int, logger logging.Logger, metrics Metrics) *Controller {
	if logger == nil {
		logger = logging.NewLogger("scheduler")
	}
	c := &Controller{optID: optID, pool: pool, nEpochs: nEpochs, logger: logger, metrics: metrics}
	for id, s := range strategies {
		c.problems = append(c.problems, &problemState{id: id, strat: s, inFlight: map[TaskID]paramspace.Request{}})
	}
	return c
}

// SetPersistHook installs a callback invoked at every end-of-epoch barrier
// with the completions observed since the prior call, mirroring
// save_evals's periodic flush.
func (c *Controller) SetPersistHook(fn func(optID string, completions []Completion) error) {
	c.persist = fn
}

// Run drives the controller's dispatch/drain/end-of-epoch state machine
// until nEpochs epochs have completed, per spec section 4.I.
func (c *Controller) Run() error {
	var allCompletions []Completion

	for c.epochCount < c.nEpochs {
		c.pool.Recv()

		if len(c.taskIDs) > 0 {
			for _, comp := range c.pool.ProbeAllNextResults() {
				c.completeTask(comp)
				allCompletions = append(allCompletions, comp)
				c.taskIDs = removeTaskID(c.taskIDs, comp.TaskID)
				c.evalCount++
			}
		}

		nextIter := c.dispatchLoop()

		if nextIter && len(c.taskIDs) == 0 {
			if err := c.endOfEpoch(&allCompletions); err != nil {
				return err
			}
		}
	}

	if c.persist != nil && len(allCompletions) > 0 {
		if err := c.persist(c.optID, allCompletions); err != nil {
			return err
		}
	}
	c.logger.Info(c.pool.Info())
	return nil
}

// dispatchLoop submits one batched task per ready worker until either no
// worker is ready or some problem's request queue is empty. It returns
// true once a problem reports it has nothing left to dispatch this round.
func (c *Controller) dispatchLoop() bool {
	nextIter := false
	for c.pool.ReadyWorkers() > 0 && !nextIter {
		evalXByProblem := make(map[string][]float64, len(c.problems))
		reqByProblem := make(map[string]paramspace.Request, len(c.problems))
		for _, p := range c.problems {
			req := p.strat.GetNextRequest()
			if req == nil {
				nextIter = true
			} else {
				evalXByProblem[p.id] = req.X
				reqByProblem[p.id] = *req
			}
		}
		if nextIter {
			break
		}

		taskID := c.pool.SubmitCall(evalXByProblem)
		c.taskIDs = append(c.taskIDs, taskID)
		for _, p := range c.problems {
			p.inFlight[taskID] = reqByProblem[p.id]
		}
		if c.metrics.EvalsDispatched != nil {
			c.metrics.EvalsDispatched.Add(float64(len(c.problems)))
		}
	}
	return nextIter
}

// completeTask fans a drained task's per-problem results out to each
// strategy, mirroring sopt_ctrl's rres loop.
func (c *Controller) completeTask(comp Completion) {
	for _, p := range c.problems {
		res, ok := comp.Results[p.id]
		if !ok {
			if c.metrics.EvalsFailed != nil {
				c.metrics.EvalsFailed.Add(1)
			}
			continue
		}
		req := p.inFlight[comp.TaskID]
		delete(p.inFlight, comp.TaskID)
		if err := p.strat.CompleteRequest(req.X, res.Y, res.F, res.C, req.YPred); err != nil {
			c.logger.Errorw("failed to complete request", "problem_id", p.id, "err", err)
			if c.metrics.EvalsFailed != nil {
				c.metrics.EvalsFailed.Add(1)
			}
		}
	}
}

// endOfEpoch persists accumulated completions, logs surrogate MAE per
// problem, and advances every strategy by one epoch.
func (c *Controller) endOfEpoch(allCompletions *[]Completion) error {
	if c.persist != nil && len(*allCompletions) > 0 {
		if err := c.persist(c.optID, *allCompletions); err != nil {
			return err
		}
		*allCompletions = (*allCompletions)[:0]
	}

	// Every problem gets a chance to step even if a sibling problem's step
	// fails; errors are aggregated rather than aborting the whole epoch on
	// the first failure.
	var stepErr error
	for _, p := range c.problems {
		logSurrogateMAE(c.logger, c.metrics, p)
		c.logger.Infof("performing optimization step %d for problem %s", c.epochCount+1, p.id)
		if err := p.strat.Step(); err != nil {
			stepErr = multierr.Append(stepErr, fmt.Errorf("scheduler: problem %s: %w", p.id, err))
		}
	}
	if stepErr != nil {
		return stepErr
	}

	if c.evalCount > 0 {
		c.epochCount++
		if c.metrics.EpochsCompleted != nil {
			c.metrics.EpochsCompleted.Add(1)
		}
	}
	return nil
}

// logSurrogateMAE reports the mean absolute error between the strategy's
// most recently completed evaluations and the surrogate predictions that
// were attached to those requests at dispatch time. Completions from the
// initial sample carry no prediction and are skipped.
func logSurrogateMAE(logger logging.Logger, metrics Metrics, p *problemState) {
	_, y, _, _, yPred := p.strat.GetCompleted()
	if len(y) == 0 {
		return
	}

	var sum float64
	var n int
	for i := range y {
		if yPred[i] == nil {
			continue
		}
		for j := range y[i] {
			sum += math.Abs(y[i][j] - yPred[i][j])
			n++
		}
	}
	if n == 0 {
		return
	}
	mae := sum / float64(n)
	logger.Infof("problem %s: surrogate MAE %.6g over %d predicted evaluations", p.id, mae, n)
	if metrics.SurrogateMAE != nil {
		metrics.SurrogateMAE.WithLabelValues(p.id).Set(mae)
	}
}

func removeTaskID(ids []TaskID, remove TaskID) []TaskID {
	out := ids[:0]
	for _, id := range ids {
		if id != remove {
			out = append(out, id)
		}
	}
	return out
}

// Registry holds one Controller per opt_id, replacing the module-level
// mutable dict the original scheduler used so remote callbacks could find
// optimizer state by id.
type Registry struct {
	controllers map[string]*Controller
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Register adds a controller under optID, replacing any prior entry.
func (r *Registry) Register(optID string, c *Controller) {
	r.controllers[optID] = c
}

// Get looks up the controller registered under optID.
func (r *Registry) Get(optID string) (*Controller, bool) {
	c, ok := r.controllers[optID]
	return c, ok
}

// Remove deletes the controller registered under optID, if any.
func (r *Registry) Remove(optID string) {
	delete(r.controllers, optID)
}
