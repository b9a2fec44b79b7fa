package diversity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBrayCurtis(t *testing.T) {
	tbl := observationTable(
		[3]string{"S1", "P1", "a"},
		[3]string{"S1", "P1", "b"},
		[3]string{"S1", "P2", "b"},
		[3]string{"S1", "P2", "c"},
		[3]string{"S1", "P3", "a"},
		[3]string{"S1", "P3", "b"},
	)

	matrix, err := BuildMatrix(tbl, []string{"site", "plot"})
	require.NoError(t, err)

	dist := BrayCurtis(matrix)

	// P1 = {a,b}, P2 = {b,c}: shared b out of 4 individuals -> 0.5
	assert.InDelta(t, 0.5, dist.At(0, 1), 1e-12)
	// P1 and P3 are identical communities
	assert.InDelta(t, 0.0, dist.At(0, 2), 1e-12)
	// Diagonal is zero and the matrix is symmetric
	assert.Equal(t, 0.0, dist.At(1, 1))
	assert.Equal(t, dist.At(1, 2), dist.At(2, 1))
}

// lineDissimilarity builds a perfectly rank-embeddable dissimilarity
// matrix from points on a line
func lineDissimilarity(n int) *mat.SymDense {
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, float64(j-i)/float64(n-1))
		}
	}
	return d
}

func TestNMDSConvergesOnEmbeddableData(t *testing.T) {
	samples := []string{"A", "B", "C", "D", "E"}
	dissim := lineDissimilarity(len(samples))

	result, err := NMDS(samples, dissim, NMDSConfig{Seed: 1})
	require.NoError(t, err)

	rows, cols := result.Points.Dims()
	assert.Equal(t, len(samples), rows)
	assert.Equal(t, 2, cols)
	assert.Greater(t, result.Iterations, 1)
	assert.Less(t, result.Stress, 0.1, "line data should embed with low stress")
}

func TestNMDSDeterministicPerSeed(t *testing.T) {
	samples := []string{"A", "B", "C", "D"}
	dissim := lineDissimilarity(len(samples))

	first, err := NMDS(samples, dissim, NMDSConfig{Seed: 42})
	require.NoError(t, err)
	second, err := NMDS(samples, dissim, NMDSConfig{Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, first.Stress, second.Stress)
	assert.True(t, mat.Equal(first.Points, second.Points))
}

func TestNMDSRejectsTinyInput(t *testing.T) {
	_, err := NMDS([]string{"A", "B"}, lineDissimilarity(2), NMDSConfig{})
	assert.Error(t, err)

	_, err = NMDS([]string{"A"}, lineDissimilarity(3), NMDSConfig{})
	assert.Error(t, err)
}
