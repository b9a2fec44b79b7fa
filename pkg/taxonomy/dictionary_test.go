package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDictionary = `
taxa:
  - canonical: "Salix herbacea"
    synonyms:
      - "salix herbacia"
      - "S. herbacea"
  - canonical: "Bistorta vivipara"
    synonyms:
      - "Polygonum viviparum"
`

func TestParseAndNormalize(t *testing.T) {
	dict, err := Parse([]byte(sampleDictionary))
	require.NoError(t, err)

	canonical, known := dict.Normalize("salix herbacia")
	assert.True(t, known)
	assert.Equal(t, "Salix herbacea", canonical)

	// Canonical spellings resolve to themselves
	canonical, known = dict.Normalize("Bistorta vivipara")
	assert.True(t, known)
	assert.Equal(t, "Bistorta vivipara", canonical)
}

func TestNormalizeIsCaseAndWhitespaceInsensitive(t *testing.T) {
	dict, err := Parse([]byte(sampleDictionary))
	require.NoError(t, err)

	for _, variant := range []string{"SALIX  HERBACIA", "  salix herbacia ", "Salix Herbacia"} {
		canonical, known := dict.Normalize(variant)
		assert.True(t, known, "variant %q", variant)
		assert.Equal(t, "Salix herbacea", canonical)
	}
}

func TestNormalizeUnknownPassesThrough(t *testing.T) {
	dict, err := Parse([]byte(sampleDictionary))
	require.NoError(t, err)

	name, known := dict.Normalize("Dryas octopetala")
	assert.False(t, known)
	assert.Equal(t, "Dryas octopetala", name)
}

func TestParseRejectsConflictingSynonyms(t *testing.T) {
	conflicting := `
taxa:
  - canonical: "Salix herbacea"
    synonyms: ["dwarf willow"]
  - canonical: "Salix polaris"
    synonyms: ["dwarf willow"]
`
	_, err := Parse([]byte(conflicting))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maps to both")
}

func TestParseRejectsEmptyCanonical(t *testing.T) {
	_, err := Parse([]byte("taxa:\n  - canonical: \"\"\n"))
	assert.Error(t, err)
}
