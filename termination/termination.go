// Package termination implements the multi-objective convergence predicate
// used to stop the inner NSGA-II early (spec section 4.F).
package termination

import "github.com/montanaflynn/stats"

// Conditions configures a Predicate, matching the
// termination_conditions config block (spec section 6).
type Conditions struct {
	XTol      float64
	FTol      float64
	NthGen    int
	NLast     int
	NMaxGen   int
}

// Predicate tracks the spread of objective and parameter distributions over
// the trailing NLast generations and declares convergence once both spreads
// stay below (XTol, FTol) for NthGen consecutive checks, or once NMaxGen
// generations have elapsed.
type Predicate struct {
	cond Conditions

	xSpread []float64
	fSpread []float64
	gen     int
	below   int
}

// New constructs a Predicate from cond, defaulting a non-positive NLast to 5
// and a non-positive NthGen to 3; the other fields are used as given.
func New(cond Conditions) *Predicate {
	if cond.NLast <= 0 {
		cond.NLast = 5
	}
	if cond.NthGen <= 0 {
		cond.NthGen = 3
	}
	return &Predicate{cond: cond}
}

// Observe records one generation's population (X, Y) and reports whether
// convergence has been declared.
func (p *Predicate) Observe(X, Y [][]float64) bool {
	p.gen++

	xs := spread(X)
	fs := spread(Y)
	p.xSpread = append(p.xSpread, xs)
	p.fSpread = append(p.fSpread, fs)
	if len(p.xSpread) > p.cond.NLast {
		p.xSpread = p.xSpread[len(p.xSpread)-p.cond.NLast:]
		p.fSpread = p.fSpread[len(p.fSpread)-p.cond.NLast:]
	}

	if p.cond.NMaxGen > 0 && p.gen >= p.cond.NMaxGen {
		return true
	}

	if len(p.xSpread) < p.cond.NLast {
		p.below = 0
		return false
	}

	xTrend, _ := stats.Mean(p.xSpread)
	fTrend, _ := stats.Mean(p.fSpread)

	if xTrend <= p.cond.XTol && fTrend <= p.cond.FTol {
		p.below++
	} else {
		p.below = 0
	}

	return p.below >= p.cond.NthGen
}

// spread summarizes the dispersion of a generation's rows as the mean
// per-column standard deviation, a cheap proxy for "how spread out is this
// distribution" that is stable under permutation of rows.
func spread(M [][]float64) float64 {
	if len(M) == 0 {
		return 0
	}
	d := len(M[0])
	total := 0.0
	col := make([]float64, len(M))
	for j := 0; j < d; j++ {
		for i, row := range M {
			col[i] = row[j]
		}
		sd, err := stats.StandardDeviation(col)
		if err == nil {
			total += sd
		}
	}
	return total / float64(d)
}
