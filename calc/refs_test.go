package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReferencesExcludesRangeEndpoints(t *testing.T) {
	refs := ParseReferences("=A1+SUM(B1:B3)+C1", "Sheet1")
	assert.ElementsMatch(t, []string{"Sheet1!A1", "Sheet1!C1"}, refs)
}

func TestParseReferencesIgnoresStringLiterals(t *testing.T) {
	refs := ParseReferences(`="A1 is not a ref"&B2`, "Sheet1")
	assert.ElementsMatch(t, []string{"Sheet1!B2"}, refs)
}

func TestParseRangeReferencesWithQuotedSheet(t *testing.T) {
	ranges := ParseRangeReferences("='My Sheet'!A1:B2", "Sheet1")
	assert.Equal(t, []string{"My Sheet!A1:B2"}, ranges)
}

func TestExpandRangeNormalizesOrder(t *testing.T) {
	cells, err := ExpandRange("A3:A1")
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]string{"A1", "A2", "A3"}, cells)
}

func TestParseIdentifiersExcludesFunctionsAndRefs(t *testing.T) {
	idents := ParseIdentifiers("=SUM(REVENUE)+A1")
	assert.Equal(t, []string{"REVENUE"}, idents)
}

func TestAllReferencesUnionsSingleAndExpandedRanges(t *testing.T) {
	refs := AllReferences("=SUM(A1:A2)+B1", "Sheet1")
	assert.ElementsMatch(t, []string{"Sheet1!A1", "Sheet1!A2", "Sheet1!B1"}, refs)
}
