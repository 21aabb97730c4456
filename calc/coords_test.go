package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetterRoundTrip(t *testing.T) {
	cases := []struct {
		n      int
		letter string
	}{
		{1, "A"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{702, "ZZ"},
		{703, "AAA"},
	}
	for _, c := range cases {
		assert.Equal(t, c.letter, ColumnLetter(c.n))
		idx, err := ColumnIndex(c.letter)
		require.NoError(t, err)
		assert.Equal(t, c.n, idx)
	}
}

func TestParseA1(t *testing.T) {
	row, col, err := ParseA1("B12")
	require.NoError(t, err)
	assert.Equal(t, 12, row)
	assert.Equal(t, 2, col)

	_, _, err = ParseA1("12B")
	assert.Error(t, err)

	_, _, err = ParseA1("A0")
	assert.Error(t, err)
}

func TestCanonicalizeCellRef(t *testing.T) {
	ref, err := CanonicalizeCellRef("$A$1", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A1", ref)

	ref, err = CanonicalizeCellRef("Budget!b2", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Budget!B2", ref)

	ref, err = CanonicalizeCellRef("'My Sheet'!C3", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "My Sheet!C3", ref)
}

func TestCanonicalizeRangeRef(t *testing.T) {
	ref, err := CanonicalizeRangeRef("A1:$B$5", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A1:B5", ref)
}

func TestSheetOfRef(t *testing.T) {
	assert.Equal(t, "Sheet1", SheetOfRef("Sheet1!A1"))
	assert.Equal(t, "My Sheet", SheetOfRef("My Sheet!A1"))
}
