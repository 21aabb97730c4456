package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphTopologicalOrder(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddFormula("Sheet1!A3", "=SUM(A1:A2)", "Sheet1", nil))
	require.NoError(t, g.AddFormula("Sheet1!A4", "=A3*2", "Sheet1", nil))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	require.Equal(t, []string{"Sheet1!A3", "Sheet1!A4"}, order)
}

func TestGraphCycleDetection(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddFormula("Sheet1!A1", "=A2+1", "Sheet1", nil))
	require.NoError(t, g.AddFormula("Sheet1!A2", "=A1+1", "Sheet1", nil))

	_, err := g.TopologicalOrder()
	require.Error(t, err)
	var circErr *CircularReferenceError
	assert.ErrorAs(t, err, &circErr)
	assert.ElementsMatch(t, []string{"Sheet1!A1", "Sheet1!A2"}, circErr.Cells)
}

func TestGraphAffectedCells(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddFormula("Sheet1!A3", "=SUM(A1:A2)", "Sheet1", nil))
	require.NoError(t, g.AddFormula("Sheet1!A4", "=A3*2", "Sheet1", nil))
	require.NoError(t, g.AddFormula("Sheet1!B1", "=A1+100", "Sheet1", nil))

	affected := g.AffectedCells([]string{"Sheet1!A1"})
	assert.ElementsMatch(t, []string{"Sheet1!A3", "Sheet1!A4", "Sheet1!B1"}, affected)
}

func TestGraphMaxDepth(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddFormula("Sheet1!A3", "=SUM(A1:A2)", "Sheet1", nil))
	require.NoError(t, g.AddFormula("Sheet1!A4", "=A3*2", "Sheet1", nil))

	assert.Equal(t, 2, g.MaxDepth([]string{"Sheet1!A1"}))
}

func TestGraphNamedRangeDependency(t *testing.T) {
	g := NewGraph()
	named := map[string]string{"REVENUE": "Sheet1!A1:A3"}
	require.NoError(t, g.AddFormula("Sheet1!B1", "=SUM(REVENUE)", "Sheet1", named))

	deps := g.Dependencies("Sheet1!B1")
	assert.ElementsMatch(t, []string{"Sheet1!A1", "Sheet1!A2", "Sheet1!A3"}, deps)
}
