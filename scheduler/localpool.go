package scheduler

import (
	"strconv"
	"sync"

	"go.viam.com/utils"

	"github.com/iraikov/dmosopt/logging"
)

// ObjFunc evaluates one batched request: one parameter vector per problem
// id, returning one result per problem id. It runs synchronously inside a
// worker goroutine, mirroring a worker process executing the user's
// objective function to completion with no shared mutable state.
type ObjFunc func(args map[string][]float64) map[string]EvalResult

// LocalWorkerPool is an in-process WorkerPool that starts one goroutine per
// submitted task and tracks a fixed number of ready worker slots, used as
// the reference single-machine implementation of
// the distributed scheduler's worker-pool contract. It carries no network
// transport and provides no fault tolerance for a crashed evaluation,
// matching the scheduler's stated Non-goals.
type LocalWorkerPool struct {
	obj    ObjFunc
	logger logging.Logger

	mu        sync.Mutex
	nextTask  TaskID
	ready     int
	results   []Completion
	resultSig chan struct{}
}

// NewLocalWorkerPool constructs a pool with n worker slots, all initially
// ready, evaluating fn.
func NewLocalWorkerPool(n int, fn ObjFunc, logger logging.Logger) *LocalWorkerPool {
	if logger == nil {
		logger = logging.NewLogger("scheduler.localpool")
	}
	p := &LocalWorkerPool{
		obj:       fn,
		logger:    logger,
		ready:     n,
		resultSig: make(chan struct{}, 1),
	}
	// Wake the controller's first recv() immediately: it otherwise has
	// nothing to block on until a worker announces itself ready, which a
	// real distributed transport does at startup but an in-process pool
	// has no separate signal for.
	p.resultSig <- struct{}{}
	return p
}

// Recv blocks until at least one result is pending.
func (p *LocalWorkerPool) Recv() {
	p.mu.Lock()
	if len(p.results) > 0 {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	<-p.resultSig
}

// ProbeAllNextResults drains every completed task accumulated so far.
func (p *LocalWorkerPool) ProbeAllNextResults() []Completion {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.results
	p.results = nil
	return out
}

// SubmitCall dispatches args to a free worker goroutine, panic-capturing
// its execution so one failing evaluation cannot bring down the
// controller, and returns immediately with the assigned task id.
func (p *LocalWorkerPool) SubmitCall(args map[string][]float64) TaskID {
	p.mu.Lock()
	taskID := p.nextTask
	p.nextTask++
	p.ready--
	p.mu.Unlock()

	utils.PanicCapturingGo(func() {
		res := p.obj(args)

		p.mu.Lock()
		p.results = append(p.results, Completion{TaskID: taskID, Results: res})
		p.ready++
		p.mu.Unlock()

		select {
		case p.resultSig <- struct{}{}:
		default:
		}
	})

	return taskID
}

// ReadyWorkers reports how many worker slots are currently idle.
func (p *LocalWorkerPool) ReadyWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Info returns a short diagnostic summary of pool occupancy.
func (p *LocalWorkerPool) Info() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return "local worker pool: ready=" + strconv.Itoa(p.ready) + " pendingResults=" + strconv.Itoa(len(p.results))
}
