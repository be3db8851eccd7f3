package nsga2

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestTournamentSelectionDistinctAndInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	rank := []float64{0, 0, 1, 1, 2, 2, 0}
	pool := TournamentSelection(len(rank), 4, rng, rank)

	test.That(t, len(pool), test.ShouldEqual, 4)
	seen := map[int]bool{}
	for _, idx := range pool {
		test.That(t, seen[idx], test.ShouldBeFalse)
		seen[idx] = true
		test.That(t, idx, test.ShouldBeBetweenOrEqual, 0, len(rank)-1)
	}
}

func TestTournamentSelectionFavorsLowerRank(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	rank := make([]float64, 20)
	for i := range rank {
		rank[i] = float64(i)
	}
	// over many trials, index 0 (the best-ranked candidate) should be
	// included in the pool far more often than the worst-ranked candidate.
	bestCount, worstCount := 0, 0
	for trial := 0; trial < 200; trial++ {
		pool := TournamentSelection(len(rank), 5, rng, rank)
		for _, idx := range pool {
			if idx == 0 {
				bestCount++
			}
			if idx == len(rank)-1 {
				worstCount++
			}
		}
	}
	test.That(t, bestCount, test.ShouldBeGreaterThan, worstCount)
}
