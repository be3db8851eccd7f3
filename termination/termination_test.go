package termination

import (
	"testing"

	"go.viam.com/test"
)

// constantPopulation returns the same (X, Y) rows every call, used to drive
// Observe toward convergence (zero spread) deterministically.
func constantPopulation(n, dim int, v float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, dim)
		for j := range row {
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}

// TestPredicateConvergesOnConstantPopulation exercises spec section 4.F:
// once the trailing NLast windows all show spread below (XTol, FTol) for
// NthGen consecutive checks, Observe must declare convergence.
func TestPredicateConvergesOnConstantPopulation(t *testing.T) {
	p := New(Conditions{XTol: 1e-6, FTol: 1e-6, NthGen: 2, NLast: 3})

	X := constantPopulation(10, 2, 0.5)
	Y := constantPopulation(10, 2, 1.0)

	converged := false
	for gen := 0; gen < 10; gen++ {
		if p.Observe(X, Y) {
			converged = true
			break
		}
	}
	test.That(t, converged, test.ShouldBeTrue)
}

// TestPredicateDoesNotConvergeOnDivergingPopulation confirms a population
// whose spread keeps growing never triggers convergence before NMaxGen.
func TestPredicateDoesNotConvergeOnDivergingPopulation(t *testing.T) {
	p := New(Conditions{XTol: 1e-6, FTol: 1e-6, NthGen: 2, NLast: 3})

	converged := false
	for gen := 0; gen < 8; gen++ {
		scale := float64(gen + 1)
		X := [][]float64{{0}, {scale}, {2 * scale}}
		Y := [][]float64{{0}, {scale}, {2 * scale}}
		if p.Observe(X, Y) {
			converged = true
			break
		}
	}
	test.That(t, converged, test.ShouldBeFalse)
}

// TestPredicateHardCapsAtNMaxGen confirms NMaxGen forces convergence even
// when the spread never drops below tolerance.
func TestPredicateHardCapsAtNMaxGen(t *testing.T) {
	p := New(Conditions{XTol: 0, FTol: 0, NthGen: 100, NLast: 2, NMaxGen: 3})

	X := [][]float64{{0}, {1}, {2}}
	Y := [][]float64{{0}, {1}, {2}}

	var converged bool
	for gen := 0; gen < 3; gen++ {
		converged = p.Observe(X, Y)
	}
	test.That(t, converged, test.ShouldBeTrue)
}

// TestPredicateRequiresFullWindowBeforeChecking confirms Observe never
// declares convergence before NLast generations have been recorded, even
// when every recorded generation so far has zero spread.
func TestPredicateRequiresFullWindowBeforeChecking(t *testing.T) {
	p := New(Conditions{XTol: 1e-6, FTol: 1e-6, NthGen: 1, NLast: 5})

	X := constantPopulation(4, 1, 0.25)
	Y := constantPopulation(4, 1, 0.25)

	for gen := 0; gen < 4; gen++ {
		test.That(t, p.Observe(X, Y), test.ShouldBeFalse)
	}
}
