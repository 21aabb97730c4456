package calc

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeView is a minimal in-memory calc.WorkbookView used by the engine
// scenario tests, so they don't depend on the xlsxview/excelize adapter.
type fakeView struct {
	sheets []string
	cells  map[string]map[CellPos]any
	names  map[string]string
}

func newFakeView(sheet string) *fakeView {
	return &fakeView{
		sheets: []string{sheet},
		cells:  map[string]map[CellPos]any{sheet: {}},
		names:  map[string]string{},
	}
}

func (v *fakeView) set(sheet string, row, col int, val any) {
	if v.cells[sheet] == nil {
		v.cells[sheet] = map[CellPos]any{}
		v.sheets = append(v.sheets, sheet)
	}
	v.cells[sheet][CellPos{Row: row, Col: col}] = val
}

func (v *fakeView) Sheets() []string { return v.sheets }

func (v *fakeView) Cells(sheet string) iter.Seq2[CellPos, any] {
	return func(yield func(CellPos, any) bool) {
		for pos, val := range v.cells[sheet] {
			if !yield(pos, val) {
				return
			}
		}
	}
}

func (v *fakeView) DefinedNames() map[string]string { return v.names }

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(WithDefaultSheet("Sheet1"))
	require.NoError(t, err)
	return e
}

// TestSumChainPropagation is spec scenario 1: A1=10, A2=20, A3=SUM(A1:A2),
// A4=A3*2; recalculating A1 to 15 propagates through both formula cells.
func TestSumChainPropagation(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, int64(10))
	view.set("Sheet1", 2, 1, int64(20))
	view.set("Sheet1", 3, 1, "=SUM(A1:A2)")
	view.set("Sheet1", 4, 1, "=A3*2")

	e := mustEngine(t)
	require.NoError(t, e.Load(view))

	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Int(30), results["Sheet1!A3"])
	assert.Equal(t, Float(60), results["Sheet1!A4"])

	result, err := e.Recalculate(map[string]float64{"Sheet1!A1": 15})
	require.NoError(t, err)
	assert.Len(t, result.Deltas, 2)
	assert.Equal(t, 2, result.PropagatedCells)
	assert.Equal(t, 2, result.TotalFormulaCells)
	assert.Equal(t, 2, result.MaxDepth)
	assert.InDelta(t, 1.0, result.PropagationRatio(), 1e-9)

	byRef := map[string]CellDelta{}
	for _, d := range result.Deltas {
		byRef[d.Ref] = d
	}
	assert.Equal(t, Int(35), byRef["Sheet1!A3"].New)
	assert.Equal(t, Float(70), byRef["Sheet1!A4"].New)
}

// TestHardcodedNoPropagation is spec scenario 2: A3/A4 are literals, not
// formulas, so perturbing A1 causes zero deltas.
func TestHardcodedNoPropagation(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, int64(10))
	view.set("Sheet1", 2, 1, int64(20))
	view.set("Sheet1", 3, 1, int64(30))
	view.set("Sheet1", 4, 1, int64(60))

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	_, err := e.Calculate()
	require.NoError(t, err)

	result, err := e.Recalculate(map[string]float64{"Sheet1!A1": 15})
	require.NoError(t, err)
	assert.Empty(t, result.Deltas)
	assert.Equal(t, 0.0, result.PropagationRatio())
}

// TestOperatorPrecedence covers the rightmost-split evaluator's
// precedence and associativity: multiplication binds tighter than
// addition, and same-precedence operators associate left to right.
func TestOperatorPrecedence(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, "=2+3*4")
	view.set("Sheet1", 1, 2, "=10-2-3")
	view.set("Sheet1", 1, 3, `="a"&"b"&"c"`)

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Float(14), results["Sheet1!A1"])
	assert.Equal(t, Float(5), results["Sheet1!B1"])
	assert.Equal(t, Text("abc"), results["Sheet1!C1"])
}

// TestNestedIfSumRound covers nested function dispatch: IF with a
// SUM(...) condition selecting between SUM(...)/3 and 0, then ROUND
// applied to the result.
func TestNestedIfSumRound(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, int64(1))
	view.set("Sheet1", 2, 1, int64(2))
	view.set("Sheet1", 3, 1, int64(3))
	view.set("Sheet1", 1, 2, "=ROUND(IF(SUM(A1:A3)>5, SUM(A1:A3)/3, 0), 2)")

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Float(2), results["Sheet1!B1"])
}

// TestVlookupExactCaseInsensitive covers VLOOKUP's exact-match,
// case-insensitive text comparison.
func TestVlookupExactCaseInsensitive(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, "Apple")
	view.set("Sheet1", 1, 2, int64(5))
	view.set("Sheet1", 2, 1, "banana")
	view.set("Sheet1", 2, 2, int64(7))
	view.set("Sheet1", 1, 4, `=VLOOKUP("APPLE", A1:B2, 2, FALSE)`)

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Int(5), results["Sheet1!D1"])
}

// TestXlookupNextSmaller covers XLOOKUP's match_mode -1 (next-smaller
// approximate match).
func TestXlookupNextSmaller(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, int64(10))
	view.set("Sheet1", 2, 1, int64(20))
	view.set("Sheet1", 3, 1, int64(30))
	view.set("Sheet1", 1, 2, Text("low"))
	view.set("Sheet1", 2, 2, Text("mid"))
	view.set("Sheet1", 3, 2, Text("high"))
	view.set("Sheet1", 1, 4, `=XLOOKUP(25, A1:A3, B1:B3, "none", -1)`)

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Text("mid"), results["Sheet1!D1"])
}

// TestLotusDateQuirk covers the fictitious 1900-02-29 serial date rule:
// DATE(1900,3,1) must equal serial 61.
func TestLotusDateQuirk(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, "=DATE(1900,3,1)")

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Number{F: 61, IsInt: true}, results["Sheet1!A1"])
}

// TestCircularReference covers CircularReferenceError detection: A1
// depends on A2 which depends on A1.
func TestCircularReference(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, "=A2+1")
	view.set("Sheet1", 2, 1, "=A1+1")

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	_, err := e.Calculate()
	require.Error(t, err)
	var circErr *CircularReferenceError
	assert.ErrorAs(t, err, &circErr)
}

// TestIfShortCircuitsDivisionByZero exercises spec §7's "cannot
// poison the calculation" guarantee together with IF's lazy branch
// evaluation: the untaken 1/A1 branch must never actually execute.
func TestIfShortCircuitsDivisionByZero(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, int64(0))
	view.set("Sheet1", 1, 2, `=IF(A1=0, "skip", 1/A1)`)

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Text("skip"), results["Sheet1!B1"])
}

func TestUnsupportedFunctionDegradesToEmpty(t *testing.T) {
	view := newFakeView("Sheet1")
	view.set("Sheet1", 1, 1, "=NOTAREALFUNCTION(1,2)")
	view.set("Sheet1", 1, 2, "=A1+1")

	e := mustEngine(t)
	require.NoError(t, e.Load(view))
	results, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, Empty{}, results["Sheet1!A1"])
	assert.Equal(t, Float(1), results["Sheet1!B1"])
}

func TestNotLoadedErrors(t *testing.T) {
	e := mustEngine(t)
	_, err := e.Calculate()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Recalculate(map[string]float64{"Sheet1!A1": 1})
	assert.ErrorIs(t, err, ErrNotLoaded)
}
