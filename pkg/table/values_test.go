package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloatHandlesDecimalComma(t *testing.T) {
	f, err := ToFloat("12,5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, f)
}

func TestToFloatRejectsAmbiguousComma(t *testing.T) {
	// comma before three digits reads equally well as a thousands separator
	_, err := ToFloat("1,234")
	assert.Error(t, err)

	// multiple commas or mixed comma and dot are never decimal commas
	_, err = ToFloat("1,234,567")
	assert.Error(t, err)
	_, err = ToFloat("1.234,5")
	assert.Error(t, err)

	// unambiguous decimal commas still parse
	f, err := ToFloat("23,4")
	require.NoError(t, err)
	assert.Equal(t, 23.4, f)

	f, err = ToFloat("0,8125")
	require.NoError(t, err)
	assert.Equal(t, 0.8125, f)
}

func TestToFloatRejectsText(t *testing.T) {
	_, err := ToFloat("tall")
	assert.Error(t, err)

	_, err = ToFloat(nil)
	assert.Error(t, err)
}

func TestToIntRejectsFractional(t *testing.T) {
	_, err := ToInt(3.7)
	assert.Error(t, err)

	i, err := ToInt("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)
}

func TestToTimeFieldSheetFormats(t *testing.T) {
	for _, input := range []string{"2023-07-12", "12.07.2023", "2023/07/12"} {
		parsed, err := ToTime(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, time.July, parsed.Month())
		assert.Equal(t, 12, parsed.Day())
	}

	_, err := ToTime("summer solstice")
	assert.Error(t, err)
}
