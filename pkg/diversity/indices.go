// pkg/diversity/indices.go
package diversity

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the per-sample diversity indices
type Summary struct {
	Sample      string
	Individuals float64
	Richness    int
	Shannon     float64
	Evenness    float64
	Simpson     float64
}

// Richness returns the number of taxa with non-zero abundance
func Richness(abundance []float64) int {
	richness := 0
	for _, a := range abundance {
		if a > 0 {
			richness++
		}
	}
	return richness
}

// Shannon returns the Shannon diversity index H' = -sum(p*ln p) over the
// relative abundances
func Shannon(abundance []float64) float64 {
	total := floats.Sum(abundance)
	if total == 0 {
		return 0
	}

	p := make([]float64, 0, len(abundance))
	for _, a := range abundance {
		if a > 0 {
			p = append(p, a/total)
		}
	}
	return stat.Entropy(p)
}

// Evenness returns Pielou's J' = H' / ln(S). Defined as 0 for samples
// with fewer than two taxa.
func Evenness(abundance []float64) float64 {
	s := Richness(abundance)
	if s < 2 {
		return 0
	}
	return Shannon(abundance) / math.Log(float64(s))
}

// Simpson returns the Gini-Simpson index 1 - sum(p^2)
func Simpson(abundance []float64) float64 {
	total := floats.Sum(abundance)
	if total == 0 {
		return 0
	}

	sum := 0.0
	for _, a := range abundance {
		p := a / total
		sum += p * p
	}
	return 1 - sum
}

// Summarize computes the diversity indices for every sample in the matrix
func Summarize(m *CommunityMatrix) []Summary {
	summaries := make([]Summary, 0, len(m.Samples))
	for i, sample := range m.Samples {
		abundance := make([]float64, len(m.Taxa))
		copy(abundance, m.Abundance.RawRowView(i))

		summaries = append(summaries, Summary{
			Sample:      sample,
			Individuals: floats.Sum(abundance),
			Richness:    Richness(abundance),
			Shannon:     Shannon(abundance),
			Evenness:    Evenness(abundance),
			Simpson:     Simpson(abundance),
		})
	}
	return summaries
}
