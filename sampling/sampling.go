// Package sampling produces quasi-random points in the unit hypercube, per
// spec section 4.A: Latin hypercube and good lattice point (GLP) sampling.
package sampling

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// LatinHypercube draws n points in [0,1]^d. Each column is an independent
// random permutation of (i+U)/n for i in [0,n), U ~ Uniform(0,1), so every
// column covers n equal-width strata exactly once.
func LatinHypercube(n, d int, rng *rand.Rand) *mat.Dense {
	out := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			u := rng.Float64()
			out.Set(perm[i], j, (float64(i)+u)/float64(n))
		}
	}
	return out
}

// GoodLatticePoint draws n points in [0,1]^d from a deterministic rank-1
// lattice: point i is (((i+1)*g mod n) + 0.5) / n for a generator vector g. Up to
// maxiter candidate generators are tried; the one minimizing centered L2
// discrepancy is kept. The result is reproducible given (n, d, seed).
func GoodLatticePoint(n, d, maxiter int, seed uint64) *mat.Dense {
	if maxiter <= 0 {
		maxiter = 1
	}
	rng := rand.New(rand.NewSource(int64(seed)))

	var best *mat.Dense
	bestDisc := math.Inf(1)
	for iter := 0; iter < maxiter; iter++ {
		g := candidateGenerator(n, d, rng, iter)
		pts := lattice(n, d, g)
		disc := centeredL2Discrepancy(pts)
		if disc < bestDisc {
			bestDisc = disc
			best = pts
		}
	}
	return best
}

// candidateGenerator returns a generator vector coprime-biased toward good
// lattice behavior. The classical choice g_j = floor(n^(j/d)) mod n is tried
// first (iter==0); subsequent iterations perturb it with the seeded RNG so a
// bounded search of maxiter candidates can improve on the classical pick.
func candidateGenerator(n, d int, rng *rand.Rand, iter int) []int {
	g := make([]int, d)
	g[0] = 1
	for j := 1; j < d; j++ {
		v := int(math.Floor(math.Pow(float64(n), float64(j)/float64(d))))
		g[j] = ((v % n) + n) % n
		if g[j] == 0 {
			g[j] = 1
		}
	}
	if iter > 0 {
		for j := 1; j < d; j++ {
			g[j] = (g[j] + rng.Intn(n)) % n
			if g[j] == 0 {
				g[j] = 1
			}
		}
	}
	return g
}

func lattice(n, d int, g []int) *mat.Dense {
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := ((i+1)*g[j]) % n
			out.Set(i, j, (float64(v)+0.5)/float64(n))
		}
	}
	return out
}

// centeredL2Discrepancy computes the CD2 discrepancy measure used to rank
// candidate lattices. Lower is better-distributed.
func centeredL2Discrepancy(pts *mat.Dense) float64 {
	n, d := pts.Dims()
	nf := float64(n)

	term1 := math.Pow(13.0/12.0, float64(d))

	term2 := 0.0
	for i := 0; i < n; i++ {
		prod := 1.0
		for j := 0; j < d; j++ {
			x := pts.At(i, j)
			prod *= 1 + 0.5*math.Abs(x-0.5) - 0.5*math.Abs(x-0.5)*math.Abs(x-0.5)
		}
		term2 += prod
	}
	term2 = -2.0 / nf * term2

	term3 := 0.0
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			prod := 1.0
			for j := 0; j < d; j++ {
				xi := pts.At(i, j)
				xk := pts.At(k, j)
				prod *= 1 + 0.5*math.Abs(xi-0.5) + 0.5*math.Abs(xk-0.5) - 0.5*math.Abs(xi-xk)
			}
			term3 += prod
		}
	}
	term3 = term3 / (nf * nf)

	return term1 + term2 + term3
}

// Scale maps rows of pts, assumed to lie in [0,1]^d, into [lb,ub]^d in place.
func Scale(pts *mat.Dense, lb, ub []float64) {
	n, d := pts.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := pts.At(i, j)
			pts.Set(i, j, lb[j]+v*(ub[j]-lb[j]))
		}
	}
}

// Rows returns each row of m as an independent []float64 slice.
func Rows(m *mat.Dense) [][]float64 {
	n, d := m.Dims()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		mat.Row(row, i, m)
		out[i] = row
	}
	return out
}
