// pkg/diversity/community.go
package diversity

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

// CommunityMatrix is a samples x taxa abundance matrix built from a
// long-format observation table. Samples and taxa are sorted so the
// matrix layout is deterministic.
type CommunityMatrix struct {
	Samples   []string
	Taxa      []string
	Abundance *mat.Dense
}

// BuildMatrix aggregates observation rows into per-sample taxon abundance
// counts. A sample is identified by joining the given grouping columns
// (typically gradient, site and plot) with "/". Each row counts one
// individual of its taxon.
func BuildMatrix(t *table.Table, groupColumns []string) (*CommunityMatrix, error) {
	if len(groupColumns) == 0 {
		return nil, fmt.Errorf("at least one grouping column is required")
	}
	for _, col := range groupColumns {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("unknown grouping column %q", col)
		}
	}
	if !t.HasColumn(model.ColTaxon) {
		return nil, fmt.Errorf("table has no %s column", model.ColTaxon)
	}

	counts := make(map[string]map[string]float64)
	for _, row := range t.Rows {
		taxon := model.ValueString(row[model.ColTaxon])
		if taxon == "" {
			continue
		}
		sample := sampleID(row, groupColumns)
		if counts[sample] == nil {
			counts[sample] = make(map[string]float64)
		}
		counts[sample][taxon]++
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("no observations to aggregate")
	}

	samples := make([]string, 0, len(counts))
	taxaSet := make(map[string]struct{})
	for sample, taxa := range counts {
		samples = append(samples, sample)
		for taxon := range taxa {
			taxaSet[taxon] = struct{}{}
		}
	}
	sort.Strings(samples)

	taxa := make([]string, 0, len(taxaSet))
	for taxon := range taxaSet {
		taxa = append(taxa, taxon)
	}
	sort.Strings(taxa)

	abundance := mat.NewDense(len(samples), len(taxa), nil)
	for i, sample := range samples {
		for j, taxon := range taxa {
			abundance.Set(i, j, counts[sample][taxon])
		}
	}

	return &CommunityMatrix{
		Samples:   samples,
		Taxa:      taxa,
		Abundance: abundance,
	}, nil
}

// SampleCounts returns one sample's taxon abundance counts
func (m *CommunityMatrix) SampleCounts(sample string) map[string]float64 {
	for i, s := range m.Samples {
		if s != sample {
			continue
		}
		counts := make(map[string]float64)
		for j, taxon := range m.Taxa {
			if v := m.Abundance.At(i, j); v > 0 {
				counts[taxon] = v
			}
		}
		return counts
	}
	return nil
}

func sampleID(row map[string]interface{}, groupColumns []string) string {
	parts := make([]string, len(groupColumns))
	for i, col := range groupColumns {
		parts[i] = model.ValueString(row[col])
	}
	return strings.Join(parts, "/")
}
