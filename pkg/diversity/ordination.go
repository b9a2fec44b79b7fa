// pkg/diversity/ordination.go
package diversity

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BrayCurtis computes the pairwise Bray-Curtis dissimilarity matrix of the
// community's samples. Values lie in [0, 1]; identical samples score 0.
func BrayCurtis(m *CommunityMatrix) *mat.SymDense {
	n := len(m.Samples)
	dist := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a := m.Abundance.RawRowView(i)
			b := m.Abundance.RawRowView(j)

			var minSum, totalSum float64
			for k := range a {
				minSum += math.Min(a[k], b[k])
				totalSum += a[k] + b[k]
			}

			d := 1.0
			if totalSum > 0 {
				d = 1 - 2*minSum/totalSum
			}
			dist.SetSym(i, j, d)
		}
	}

	return dist
}

// NMDSConfig controls the ordination run
type NMDSConfig struct {
	Dimensions    int     // Output dimensions, 2 when zero
	MaxIterations int     // Iteration cap, 300 when zero
	Tolerance     float64 // Stress-improvement convergence threshold, 1e-6 when zero
	Seed          int64   // Seed for the random start; runs are deterministic per seed
}

// NMDSResult holds the ordination output
type NMDSResult struct {
	Samples    []string
	Points     *mat.Dense // samples x dimensions configuration
	Stress     float64    // Kruskal stress-1 of the final configuration
	Iterations int
}

// NMDS runs non-metric multidimensional scaling on a dissimilarity matrix:
// it searches for a low-dimensional configuration whose inter-point
// distances preserve the rank order of the dissimilarities, minimizing
// Kruskal stress-1 with isotonic regression over the distance ranks.
func NMDS(samples []string, dissimilarity *mat.SymDense, cfg NMDSConfig) (*NMDSResult, error) {
	n := dissimilarity.SymmetricDim()
	if n != len(samples) {
		return nil, fmt.Errorf("dissimilarity matrix is %dx%d but %d samples were given", n, n, len(samples))
	}
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 samples for ordination, have %d", n)
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = 2
	}
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 300
	}
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = 1e-6
	}

	// Pairs ordered by dissimilarity; isotonic regression works on this order
	pairs := collectPairs(dissimilarity, n)
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].dissim < pairs[j].dissim
	})

	rng := rand.New(rand.NewSource(cfg.Seed))
	points := mat.NewDense(n, dims, nil)
	for i := 0; i < n; i++ {
		for d := 0; d < dims; d++ {
			points.Set(i, d, rng.NormFloat64())
		}
	}

	stress := math.Inf(1)
	iterations := 0
	for iter := 0; iter < maxIter; iter++ {
		iterations = iter + 1

		distances := configDistances(points, pairs)
		fitted := isotonicFit(distances)

		newStress := kruskalStress(distances, fitted)
		if math.Abs(stress-newStress) < tolerance {
			stress = newStress
			break
		}
		stress = newStress

		// Guttman transform step toward the fitted distances
		points = guttmanUpdate(points, pairs, distances, fitted, n, dims)
	}

	return &NMDSResult{
		Samples:    samples,
		Points:     points,
		Stress:     stress,
		Iterations: iterations,
	}, nil
}

type samplePair struct {
	i, j   int
	dissim float64
}

func collectPairs(dissimilarity *mat.SymDense, n int) []samplePair {
	pairs := make([]samplePair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, samplePair{i: i, j: j, dissim: dissimilarity.At(i, j)})
		}
	}
	return pairs
}

// configDistances returns the configuration distances in pair order
func configDistances(points *mat.Dense, pairs []samplePair) []float64 {
	distances := make([]float64, len(pairs))
	for k, p := range pairs {
		distances[k] = euclidean(points.RawRowView(p.i), points.RawRowView(p.j))
	}
	return distances
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// isotonicFit computes the monotone least-squares fit of the distances
// with respect to the dissimilarity rank order (pool-adjacent-violators)
func isotonicFit(distances []float64) []float64 {
	n := len(distances)
	fitted := make([]float64, n)
	copy(fitted, distances)
	weight := make([]float64, n)
	for i := range weight {
		weight[i] = 1
	}

	// Pool adjacent violators until the sequence is non-decreasing
	blocks := n
	for {
		merged := false
		w := 0
		for r := 1; r < blocks; r++ {
			if fitted[w] <= fitted[r] {
				w++
				fitted[w] = fitted[r]
				weight[w] = weight[r]
				continue
			}
			// merge block r into block w
			totalWeight := weight[w] + weight[r]
			fitted[w] = (fitted[w]*weight[w] + fitted[r]*weight[r]) / totalWeight
			weight[w] = totalWeight
			merged = true
			// re-check against earlier blocks
			for w > 0 && fitted[w-1] > fitted[w] {
				tw := weight[w-1] + weight[w]
				fitted[w-1] = (fitted[w-1]*weight[w-1] + fitted[w]*weight[w]) / tw
				weight[w-1] = tw
				w--
			}
		}
		blocks = w + 1
		if !merged {
			break
		}
	}

	// Expand pooled block means back to per-pair values
	expanded := make([]float64, 0, n)
	for b := 0; b < blocks; b++ {
		count := int(weight[b] + 0.5)
		for c := 0; c < count; c++ {
			expanded = append(expanded, fitted[b])
		}
	}
	return expanded
}

// kruskalStress computes stress-1: sqrt(sum (d - dhat)^2 / sum d^2)
func kruskalStress(distances, fitted []float64) float64 {
	var num, den float64
	for k := range distances {
		diff := distances[k] - fitted[k]
		num += diff * diff
		den += distances[k] * distances[k]
	}
	if den == 0 {
		return 0
	}
	return math.Sqrt(num / den)
}

// guttmanUpdate moves each point toward the configuration implied by the
// fitted distances
func guttmanUpdate(points *mat.Dense, pairs []samplePair, distances, fitted []float64, n, dims int) *mat.Dense {
	updated := mat.NewDense(n, dims, nil)
	counts := make([]float64, n)

	for k, p := range pairs {
		ratio := 0.0
		if distances[k] > 0 {
			ratio = fitted[k] / distances[k]
		}
		pi := points.RawRowView(p.i)
		pj := points.RawRowView(p.j)
		for d := 0; d < dims; d++ {
			updated.Set(p.i, d, updated.At(p.i, d)+pj[d]+ratio*(pi[d]-pj[d]))
			updated.Set(p.j, d, updated.At(p.j, d)+pi[d]+ratio*(pj[d]-pi[d]))
		}
		counts[p.i]++
		counts[p.j]++
	}

	for i := 0; i < n; i++ {
		if counts[i] == 0 {
			continue
		}
		for d := 0; d < dims; d++ {
			updated.Set(i, d, updated.At(i, d)/counts[i])
		}
	}
	return updated
}
