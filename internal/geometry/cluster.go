package geometry

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Cluster1D partitions values into k clusters along a single axis using a
// k-means-like assignment step seeded deterministically from equispaced
// quantiles of the sorted input, so repeated runs on the same input are
// bit-identical (required for grid-fitting determinism).
func Cluster1D(values []float64, k int) [][]float64 {
	if len(values) == 0 || k <= 0 {
		return nil
	}
	if k > len(values) {
		k = len(values)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	centroids := make([]float64, k)
	for i := 0; i < k; i++ {
		// Equispaced quantile index; fixed, no randomness.
		idx := (i * (len(sorted) - 1)) / maxInt(k-1, 1)
		centroids[i] = sorted[idx]
	}

	const maxIters = 50
	assignment := make([]int, len(sorted))

	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, v := range sorted {
			best, bestDist := 0, mathAbs(v-centroids[0])
			for c := 1; c < k; c++ {
				d := mathAbs(v - centroids[c])
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}

		sums := make([]float64, k)
		counts := make([]int, k)
		for i, v := range sorted {
			c := assignment[i]
			sums[c] += v
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = sums[c] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	clusters := make([][]float64, k)
	for i, v := range sorted {
		clusters[assignment[i]] = append(clusters[assignment[i]], v)
	}

	sort.Slice(clusters, func(i, j int) bool {
		mi := floats.Sum(clusters[i]) / float64(maxInt(len(clusters[i]), 1))
		mj := floats.Sum(clusters[j]) / float64(maxInt(len(clusters[j]), 1))
		return mi < mj
	})

	return clusters
}

// DBSCAN1D performs density-based clustering over 1-D values with radius
// eps and minimum cluster size minPts; used to find the modal grid
// spacing from a list of consecutive-line distances.
func DBSCAN1D(values []float64, eps float64, minPts int) [][]float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	visited := make([]bool, len(sorted))
	var clusters [][]float64

	for i := range sorted {
		if visited[i] {
			continue
		}
		neighbours := regionQuery(sorted, i, eps)
		if len(neighbours) < minPts {
			continue
		}

		var cluster []float64
		seen := map[int]bool{}
		queue := append([]int(nil), neighbours...)
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			if seen[idx] {
				continue
			}
			seen[idx] = true
			visited[idx] = true
			cluster = append(cluster, sorted[idx])

			more := regionQuery(sorted, idx, eps)
			if len(more) >= minPts {
				for _, m := range more {
					if !seen[m] {
						queue = append(queue, m)
					}
				}
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}

func regionQuery(sorted []float64, i int, eps float64) []int {
	var out []int
	for j, v := range sorted {
		if mathAbs(v-sorted[i]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// ModalSpacing returns the mean of the largest DBSCAN1D cluster found
// over a set of spacings, used by the grid fitter to infer the dominant
// line-to-line spacing.
func ModalSpacing(spacings []float64, eps float64) float64 {
	clusters := DBSCAN1D(spacings, eps, 1)
	if len(clusters) == 0 {
		if len(spacings) == 0 {
			return 0
		}
		return floats.Sum(spacings) / float64(len(spacings))
	}

	best := clusters[0]
	for _, c := range clusters[1:] {
		if len(c) > len(best) {
			best = c
		}
	}
	return floats.Sum(best) / float64(len(best))
}

func mathAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
