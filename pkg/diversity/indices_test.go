package diversity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotraits/curate/pkg/table"
)

func observationTable(rows ...[3]string) *table.Table {
	t := table.New("obs", []string{"site", "plot", "taxon"})
	for _, r := range rows {
		t.AppendRow(map[string]interface{}{"site": r[0], "plot": r[1], "taxon": r[2]})
	}
	return t
}

func TestBuildMatrixAggregatesCounts(t *testing.T) {
	tbl := observationTable(
		[3]string{"S1", "P1", "Salix herbacea"},
		[3]string{"S1", "P1", "Salix herbacea"},
		[3]string{"S1", "P1", "Bistorta vivipara"},
		[3]string{"S1", "P2", "Dryas octopetala"},
	)

	matrix, err := BuildMatrix(tbl, []string{"site", "plot"})
	require.NoError(t, err)

	assert.Equal(t, []string{"S1/P1", "S1/P2"}, matrix.Samples)
	assert.Equal(t, []string{"Bistorta vivipara", "Dryas octopetala", "Salix herbacea"}, matrix.Taxa)

	counts := matrix.SampleCounts("S1/P1")
	assert.Equal(t, 2.0, counts["Salix herbacea"])
	assert.Equal(t, 1.0, counts["Bistorta vivipara"])
	assert.NotContains(t, counts, "Dryas octopetala")
}

func TestBuildMatrixRequiresObservations(t *testing.T) {
	empty := table.New("obs", []string{"site", "plot", "taxon"})
	_, err := BuildMatrix(empty, []string{"site", "plot"})
	assert.Error(t, err)

	_, err = BuildMatrix(empty, nil)
	assert.Error(t, err)
}

func TestIndicesOnEvenCommunity(t *testing.T) {
	abundance := []float64{5, 5, 5, 5}

	assert.Equal(t, 4, Richness(abundance))
	assert.InDelta(t, math.Log(4), Shannon(abundance), 1e-12)
	assert.InDelta(t, 1.0, Evenness(abundance), 1e-12)
	assert.InDelta(t, 0.75, Simpson(abundance), 1e-12)
}

func TestIndicesOnMonoculture(t *testing.T) {
	abundance := []float64{10, 0, 0}

	assert.Equal(t, 1, Richness(abundance))
	assert.Equal(t, 0.0, Shannon(abundance))
	assert.Equal(t, 0.0, Evenness(abundance))
	assert.InDelta(t, 0.0, Simpson(abundance), 1e-12)
}

func TestIndicesOnEmptySample(t *testing.T) {
	abundance := []float64{0, 0}

	assert.Equal(t, 0, Richness(abundance))
	assert.Equal(t, 0.0, Shannon(abundance))
	assert.Equal(t, 0.0, Evenness(abundance))
	assert.Equal(t, 0.0, Simpson(abundance))
}

func TestSummarize(t *testing.T) {
	tbl := observationTable(
		[3]string{"S1", "P1", "a"},
		[3]string{"S1", "P1", "b"},
		[3]string{"S1", "P2", "a"},
	)

	matrix, err := BuildMatrix(tbl, []string{"site", "plot"})
	require.NoError(t, err)

	summaries := Summarize(matrix)
	require.Len(t, summaries, 2)

	assert.Equal(t, "S1/P1", summaries[0].Sample)
	assert.Equal(t, 2, summaries[0].Richness)
	assert.InDelta(t, math.Log(2), summaries[0].Shannon, 1e-12)

	assert.Equal(t, "S1/P2", summaries[1].Sample)
	assert.Equal(t, 1, summaries[1].Richness)
}
