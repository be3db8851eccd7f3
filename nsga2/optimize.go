package nsga2

import (
	"math/rand"

	"github.com/iraikov/dmosopt/feasibility"
	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/sampling"
	"github.com/iraikov/dmosopt/termination"
)

// Model is anything NSGA-II can optimize: a (possibly surrogate) mapping
// from a candidate point to an objective vector.
type Model interface {
	Evaluate(x []float64) []float64
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(x []float64) []float64

// Evaluate implements Model.
func (f ModelFunc) Evaluate(x []float64) []float64 { return f(x) }

// Options configures one NSGA-II run (spec section 4.D "Optimization call").
type Options struct {
	Pop           int
	Gen           int
	CrossoverRate float64
	MutationRate  float64
	DiCrossover   float64 // mu
	DiMutation    float64 // mum
	Feasibility   feasibility.Model
	Termination   *termination.Predicate
	Seed          uint64
	Logger        logging.Logger
}

// Result is the outcome of an NSGA-II run: the final surviving population
// (best_x, best_y) and the full evaluation history (all_x, all_y) across
// every generation, per spec section 4.D.
type Result struct {
	BestX [][]float64
	BestY [][]float64
	AllX  [][]float64
	AllY  [][]float64
}

// Optimize runs NSGA-II for opts.Gen generations against model over the box
// [lb, ub], per spec section 4.D. With Gen==0 it returns exactly the initial
// Latin-hypercube sample, sorted (Testable property 4).
func Optimize(model Model, lb, ub []float64, opts Options) Result {
	dim := len(lb)
	rng := rand.New(rand.NewSource(int64(opts.Seed)))

	poolsize := int(float64(opts.Pop)/2.0 + 0.5)

	lh := sampling.LatinHypercube(opts.Pop, dim, rng)
	sampling.Scale(lh, lb, ub)
	x := sampling.Rows(lh)
	y := make([][]float64, opts.Pop)
	for i := range x {
		y[i] = model.Evaluate(x[i])
	}

	x, y, rank, _, _ := SortMO(x, y)
	population := cloneMatrix(x)
	objectives := cloneMatrix(y)

	nchildren := 1
	if opts.Feasibility != nil {
		nchildren = poolsize
	}

	var allX, allY [][]float64
	allX = append(allX, x...)
	allY = append(allY, y...)

	for g := 0; g < opts.Gen; g++ {
		if opts.Logger != nil {
			opts.Logger.Infow("nsga2: generation", "gen", g+1, "of", opts.Gen)
		}
		// population/objectives/rank are already in SortMO order (rank
		// ascending, crowding descending within rank) entering this loop, so
		// a stable lexicographic sort on rank alone preserves the crowding
		// tie-break without recomputing it.
		pool := TournamentSelection(len(population), poolsize, rng, toFloat(rank))

		count := 0
		for count < opts.Pop-1 {
			if rng.Float64() < opts.CrossoverRate {
				i1, i2 := distinctPair(pool, rng)
				parent1 := population[i1]
				parent2 := population[i2]
				children1, children2 := SBX(parent1, parent2, opts.DiCrossover, lb, ub, nchildren, rng)

				var child1, child2 []float64
				if opts.Feasibility == nil {
					child1, child2 = children1[0], children2[0]
				} else {
					child1, child2 = feasibility.SelectFeasiblePair(opts.Feasibility, children1, children2, rng)
				}
				y1 := model.Evaluate(child1)
				y2 := model.Evaluate(child2)
				population = append(population, child1, child2)
				objectives = append(objectives, y1, y2)
				allX = append(allX, child1, child2)
				allY = append(allY, y1, y2)
				count += 2
			} else {
				i := pool[rng.Intn(len(pool))]
				parent := population[i]
				children := PolynomialMutation(parent, opts.MutationRate, opts.DiMutation, lb, ub, nchildren, rng)

				var child []float64
				if opts.Feasibility == nil {
					child = children[0]
				} else {
					child = feasibility.SelectFeasible(opts.Feasibility, children, rng)
				}
				y1 := model.Evaluate(child)
				population = append(population, child)
				objectives = append(objectives, y1)
				allX = append(allX, child)
				allY = append(allY, y1)
				count++
			}
		}

		population, objectives, rank = RemoveWorst(population, objectives, opts.Pop)

		if opts.Termination != nil && opts.Termination.Observe(population, objectives) {
			if opts.Logger != nil {
				opts.Logger.Infow("nsga2: termination predicate converged", "gen", g+1)
			}
			break
		}
	}

	return Result{
		BestX: population,
		BestY: objectives,
		AllX:  allX,
		AllY:  allY,
	}
}

func toFloat(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func distinctPair(pool []int, rng *rand.Rand) (int, int) {
	i1 := rng.Intn(len(pool))
	i2 := rng.Intn(len(pool))
	for i2 == i1 && len(pool) > 1 {
		i2 = rng.Intn(len(pool))
	}
	return pool[i1], pool[i2]
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		c := make([]float64, len(row))
		copy(c, row)
		out[i] = c
	}
	return out
}
