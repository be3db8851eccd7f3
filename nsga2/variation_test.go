package nsga2

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

// TestSBXNeverLeavesBounds is Testable property 3 for crossover.
func TestSBXNeverLeavesBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	lb := []float64{0, -10}
	ub := []float64{1, 10}
	p1 := []float64{0.2, -5}
	p2 := []float64{0.8, 5}

	for i := 0; i < 500; i++ {
		c1, c2 := SBX(p1, p2, 1.0, lb, ub, 1, rng)
		for _, c := range [][]float64{c1[0], c2[0]} {
			for j := range c {
				test.That(t, c[j], test.ShouldBeBetweenOrEqual, lb[j], ub[j])
			}
		}
	}
}

// TestPolynomialMutationNeverLeavesBounds is Testable property 3 for
// mutation.
func TestPolynomialMutationNeverLeavesBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	lb := []float64{0, -10}
	ub := []float64{1, 10}
	parent := []float64{0.5, 0}

	for i := 0; i < 500; i++ {
		children := PolynomialMutation(parent, 0.5, 20, lb, ub, 3, rng)
		for _, c := range children {
			for j := range c {
				test.That(t, c[j], test.ShouldBeBetweenOrEqual, lb[j], ub[j])
			}
		}
	}
}

func TestSBXProducesRequestedChildCount(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	lb := []float64{0, 0}
	ub := []float64{1, 1}
	c1, c2 := SBX([]float64{0.1, 0.2}, []float64{0.9, 0.8}, 1.0, lb, ub, 5, rng)
	test.That(t, len(c1), test.ShouldEqual, 5)
	test.That(t, len(c2), test.ShouldEqual, 5)
}
