package nsga2

import "sort"

// CrowdingDistance computes the crowding distance of each row in a single
// front Y, per spec section 4.D. If the front has one point or any objective
// has zero range, every point is assigned the boundary distance 1.0 (the
// spec's degenerate-front convention); otherwise each objective column is
// min-max normalized, the endpoints of the sorted column get the finite
// sentinel 1e308 (larger than any interior sum), and
// interior points get US[i+1]-US[i-1], summed across objectives.
func CrowdingDistance(Y [][]float64) []float64 {
	n := len(Y)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{1.0}
	}
	m := len(Y[0])

	lo := make([]float64, m)
	hi := make([]float64, m)
	for j := 0; j < m; j++ {
		lo[j] = Y[0][j]
		hi[j] = Y[0][j]
		for i := 1; i < n; i++ {
			if Y[i][j] < lo[j] {
				lo[j] = Y[i][j]
			}
			if Y[i][j] > hi[j] {
				hi[j] = Y[i][j]
			}
		}
		if hi[j]-lo[j] == 0 {
			degenerate := make([]float64, n)
			for i := range degenerate {
				degenerate[i] = 1.0
			}
			return degenerate
		}
	}

	const boundaryDistance = 1e308 // representable, strictly greater than any finite interior sum

	dist := make([]float64, n)
	for j := 0; j < m; j++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		rng := hi[j] - lo[j]
		sort.Slice(idx, func(a, b int) bool {
			return Y[idx[a]][j] < Y[idx[b]][j]
		})

		if dist[idx[0]] < boundaryDistance {
			dist[idx[0]] = boundaryDistance
		}
		if dist[idx[n-1]] < boundaryDistance {
			dist[idx[n-1]] = boundaryDistance
		}
		for i := 1; i < n-1; i++ {
			if dist[idx[i]] >= boundaryDistance {
				continue
			}
			u1 := (Y[idx[i+1]][j] - lo[j]) / rng
			u0 := (Y[idx[i-1]][j] - lo[j]) / rng
			dist[idx[i]] += u1 - u0
		}
	}
	return dist
}
