package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesMatchIsCaseInsensitive(t *testing.T) {
	cats := MustCategories("CSUB-CGELASTIC", "CSUB-WATERCOMP")

	name, ok := cats.Match("csub-cgelastic")
	require.True(t, ok)
	assert.Equal(t, "CSUB-CGELASTIC", name)

	name, ok = cats.Match("   CSUB-WaterComp")
	require.True(t, ok)
	assert.Equal(t, "CSUB-WATERCOMP", name)

	_, ok = cats.Match("CHD")
	assert.False(t, ok)
}

func TestNewCategoriesRejectsDuplicatesAndBlanks(t *testing.T) {
	_, err := NewCategories("STO-SS", "sto-ss")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewCategories("STO-SS", "  ")
	require.Error(t, err)
}

func TestFieldNames(t *testing.T) {
	cats := MustCategories("A", "B")
	assert.Equal(t, []string{"A_IN", "A_OUT", "B_IN", "B_OUT"}, cats.FieldNames())
}

func TestFilterPackage(t *testing.T) {
	available := []string{
		"    FLOW-JA-FACE",
		"      CSUB-CGELASTIC",
		"      CSUB-ELASTIC",
		"         CHD",
		"      csub-elastic",
	}
	got := FilterPackage(available, "csub")
	assert.Equal(t, []string{"CSUB-CGELASTIC", "CSUB-ELASTIC"}, got)

	assert.Empty(t, FilterPackage(available, ""))
	assert.Empty(t, FilterPackage(available, "uzf"))
}

func TestNamesReturnsCopy(t *testing.T) {
	cats := MustCategories("A")
	names := cats.Names()
	names[0] = "Z"
	assert.Equal(t, []string{"A"}, cats.Names())
}
