// Package sceua implements the Shuffled Complex Evolution (University of
// Arizona) derivative-free global optimizer, used as the default GP
// hyperparameter tuner (spec section 4.B) but usable standalone against any
// scalar objective.
package sceua

import (
	"math"
	"math/rand"

	"github.com/iraikov/dmosopt/logging"
)

// Objective is a scalar function minimized over a bounded box. It must
// return +Inf (never NaN) for inputs where evaluation is numerically
// unstable, so SCE-UA's reflection/contraction/random-restart ladder can
// recover (spec section 7, surrogate-fit failure).
type Objective func(x []float64) float64

// Options configures one SCE-UA run.
type Options struct {
	NumComplexes int     // ngs
	MaxEvals     int     // maxn
	KStop        int     // kstop
	PercentChange float64 // pcento
	PEps         float64 // peps
	Seed         uint64
	Logger       logging.Logger
}

// DefaultOptions returns the options the original implementation uses to tune
// GP hyperparameters.
func DefaultOptions(nopt int) Options {
	return Options{
		NumComplexes:  nopt,
		MaxEvals:      3000,
		KStop:         10,
		PercentChange: 0.1,
		PEps:          0.001,
	}
}

// Result is the outcome of one SCE-UA run.
type Result struct {
	BestX   []float64
	BestF   float64
	Evals   int
	Loops   int
	History []TraceEntry
}

// TraceEntry records the best point/value/eval-count at the end of each
// shuffling loop (loop 0 is the initial population).
type TraceEntry struct {
	BestX []float64
	BestF float64
	Evals int
}

// Minimize runs SCE-UA against obj over the box [bl, ub], per spec 4.B. Any
// point that leaves the box during evolution is replaced by a uniform random
// point in the box before evaluation, keeping the search numerically stable.
func Minimize(obj Objective, bl, ub []float64, opts Options) Result {
	nopt := len(bl)
	rng := rand.New(rand.NewSource(int64(opts.Seed)))

	ngs := opts.NumComplexes
	if ngs < 1 {
		ngs = 1
	}
	npg := 2*nopt + 1
	nps := nopt + 1
	nspl := npg
	npt := npg * ngs

	bd := make([]float64, nopt)
	for i := range bd {
		bd[i] = ub[i] - bl[i]
	}

	x := make([][]float64, npt)
	xf := make([]float64, npt)
	for i := 0; i < npt; i++ {
		x[i] = randomInBox(rng, bl, ub)
		xf[i] = obj(x[i])
	}
	evals := npt
	sortByValue(x, xf)

	history := []TraceEntry{{BestX: cloneVec(x[0]), BestF: xf[0], Evals: evals}}
	if opts.Logger != nil {
		opts.Logger.Infow("sceua: initial loop", "bestf", xf[0], "worstf", xf[len(xf)-1])
	}

	gnrng := normalizedGeometricRange(x, bd)
	loop := 0
	criter := []float64{}
	criterChange := math.Inf(1)

	for evals < opts.MaxEvals && gnrng > opts.PEps && criterChange > opts.PercentChange {
		loop++
		for igs := 0; igs < ngs; igs++ {
			cx := make([][]float64, npg)
			cf := make([]float64, npg)
			for k := 0; k < npg; k++ {
				idx := k*ngs + igs
				cx[k] = cloneVec(x[idx])
				cf[k] = xf[idx]
			}

			for s := 0; s < nspl; s++ {
				lcs := selectSimplex(nps, npg, rng)
				simplex := make([][]float64, nps)
				simplexF := make([]float64, nps)
				for i, idx := range lcs {
					simplex[i] = cloneVec(cx[idx])
					simplexF[i] = cf[idx]
				}
				sortByValue(simplex, simplexF)

				newX, newF, used := cceStep(obj, simplex, simplexF, bl, ub, rng)
				evals += used
				simplex[nps-1] = newX
				simplexF[nps-1] = newF

				for i, idx := range lcs {
					cx[idx] = simplex[i]
					cf[idx] = simplexF[i]
				}
				sortByValue(cx, cf)
			}

			for k := 0; k < npg; k++ {
				idx := k*ngs + igs
				x[idx] = cx[k]
				xf[idx] = cf[k]
			}
		}

		sortByValue(x, xf)
		history = append(history, TraceEntry{BestX: cloneVec(x[0]), BestF: xf[0], Evals: evals})
		if opts.Logger != nil {
			opts.Logger.Infow("sceua: evolution loop", "loop", loop, "evals", evals, "bestf", xf[0])
		}

		gnrng = normalizedGeometricRange(x, bd)
		criter = append(criter, xf[0])
		if loop >= opts.KStop {
			num := math.Abs(criter[loop-1]-criter[loop-opts.KStop]) * 100
			denom := meanAbs(criter[loop-opts.KStop : loop])
			if denom == 0 {
				criterChange = 0
			} else {
				criterChange = num / denom
			}
		}
	}

	return Result{
		BestX:   x[0],
		BestF:   xf[0],
		Evals:   evals,
		Loops:   loop,
		History: history,
	}
}

// cceStep is the Competitive Complex Evolution inner move: reflection (alpha
// = 1), contraction (beta = 0.5) on failure, random restart if both fail.
// simplex must already be sorted ascending by simplexF. It returns the
// replacement for the worst point and how many objective evaluations it used.
func cceStep(obj Objective, simplex [][]float64, simplexF []float64, bl, ub []float64, rng *rand.Rand) ([]float64, float64, int) {
	n := len(simplex)
	nopt := len(simplex[0])
	worst := simplex[n-1]
	fw := simplexF[n-1]

	centroid := make([]float64, nopt)
	for i := 0; i < n-1; i++ {
		for j := 0; j < nopt; j++ {
			centroid[j] += simplex[i][j]
		}
	}
	for j := range centroid {
		centroid[j] /= float64(n - 1)
	}

	const alpha = 1.0
	const beta = 0.5
	evals := 0

	reflect := make([]float64, nopt)
	for j := range reflect {
		reflect[j] = centroid[j] + alpha*(centroid[j]-worst[j])
	}
	if outOfBox(reflect, bl, ub) {
		reflect = randomInBox(rng, bl, ub)
	}
	fr := obj(reflect)
	evals++

	if fr <= fw {
		return reflect, fr, evals
	}

	contract := make([]float64, nopt)
	for j := range contract {
		contract[j] = worst[j] + beta*(centroid[j]-worst[j])
	}
	fc := obj(contract)
	evals++

	if fc <= fw {
		return contract, fc, evals
	}

	random := randomInBox(rng, bl, ub)
	frand := obj(random)
	evals++
	return random, frand, evals
}

// selectSimplex draws nps distinct indices in [0,npg) using the triangular
// probability P(i) ∝ 2(npg-i)/(npg(npg+1)), per spec section 4.B.
func selectSimplex(nps, npg int, rng *rand.Rand) []int {
	chosen := map[int]struct{}{0: {}}
	order := []int{0}
	for len(order) < nps {
		u := rng.Float64()
		idx := int(math.Floor(float64(npg) + 0.5 - math.Sqrt(math.Pow(float64(npg)+0.5, 2)-float64(npg*(npg+1))*u)))
		if idx < 0 {
			idx = 0
		}
		if idx >= npg {
			idx = npg - 1
		}
		if _, dup := chosen[idx]; dup {
			continue
		}
		chosen[idx] = struct{}{}
		order = append(order, idx)
	}
	return order
}

func randomInBox(rng *rand.Rand, bl, ub []float64) []float64 {
	x := make([]float64, len(bl))
	for i := range x {
		x[i] = bl[i] + rng.Float64()*(ub[i]-bl[i])
	}
	return x
}

func outOfBox(x, bl, ub []float64) bool {
	for i := range x {
		if x[i] < bl[i] || x[i] > ub[i] {
			return true
		}
	}
	return false
}

func sortByValue(x [][]float64, f []float64) {
	idx := make([]int, len(f))
	for i := range idx {
		idx[i] = i
	}
	// insertion sort is fine: npg/nps/npt are small (tens to low hundreds)
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && f[idx[j-1]] > f[idx[j]] {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	newX := make([][]float64, len(x))
	newF := make([]float64, len(f))
	for i, k := range idx {
		newX[i] = x[k]
		newF[i] = f[k]
	}
	copy(x, newX)
	copy(f, newF)
}

func normalizedGeometricRange(x [][]float64, bd []float64) float64 {
	nopt := len(bd)
	sum := 0.0
	for j := 0; j < nopt; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range x {
			v := x[i][j]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		sum += math.Log((hi - lo) / bd[j])
	}
	return math.Exp(sum / float64(nopt))
}

func meanAbs(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += math.Abs(x)
	}
	return sum / float64(len(v))
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
