package calc

import (
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WorkbookView is the external collaborator contract spec §6 names: the
// engine never touches a .xlsx container, style model, or worksheet
// object proxy directly — it consumes one of these instead. xlsxview.View
// is the concrete implementation backed by excelize.
type WorkbookView interface {
	// Sheets returns sheet names in declaration order.
	Sheets() []string
	// Cells yields every non-empty cell of sheet as (row, col, value), row
	// and column 1-based. value is one of: nil, bool, int64, float64,
	// string (literal text), or formula text (a string beginning with "=").
	Cells(sheet string) iter.Seq2[CellPos, any]
	// DefinedNames returns the workbook's named ranges: name -> refers-to
	// text (e.g. "Sheet1!$A$1:$A$10").
	DefinedNames() map[string]string
}

// CellPos is a 1-based (row, col) coordinate, used by WorkbookView.Cells.
type CellPos struct {
	Row, Col int
}

// CellDelta records one cell whose recalculated value changed during a
// Recalculate call, per spec §4.8 step 5.
type CellDelta struct {
	Ref     string
	Old     Value
	New     Value
	Formula string
}

// RecalcResult is the report Recalculate returns, per spec §4.2/§4.8: the
// input perturbations, the ordered delta sequence, and three summary
// counters (PropagationRatio derives from the first two).
type RecalcResult struct {
	Perturbations     map[string]float64
	Deltas            []CellDelta
	TotalFormulaCells int
	PropagatedCells   int
	MaxDepth          int
}

// PropagationRatio is original_source's _protocol.RecalcResult.propagation_ratio
// computed property, ported verbatim as a method: propagated / total, or
// 0 when there are no formula cells at all.
func (r RecalcResult) PropagationRatio() float64 {
	if r.TotalFormulaCells == 0 {
		return 0
	}
	return float64(r.PropagatedCells) / float64(r.TotalFormulaCells)
}

// Engine is the workbook evaluator: value store, dependency graph,
// function registry, and named-range table combined into the single
// entry point spec §4.8 describes, adapted from the teacher's
// *Spreadsheet (sheet.go) but generalized from a uint32-ID/interning-table
// storage model to the spec's flat canonical-ref map model.
type Engine struct {
	id       uuid.UUID
	cfg      EngineConfig
	registry *Registry
	logger   zerolog.Logger

	loaded bool
	values map[string]Value
	texts  map[string]string // cellRef -> raw formula text, for formula cells only
	named  map[string]string // upper-cased name -> refers-to text
	graph  *Graph
}

// NewEngine constructs an Engine from the given options. WithDefaultSheet
// is required; NewEngine returns an error if EngineConfig fails
// validation.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := EngineConfig{Tolerance: 1e-10}
	registry := NewRegistry()
	logger := zerolog.Nop()

	for _, opt := range opts {
		opt(&cfg, registry, &logger)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	id := uuid.New()
	return &Engine{
		id:       id,
		cfg:      cfg,
		registry: registry,
		logger:   logger.With().Str("engine_id", id.String()).Logger(),
		values:   make(map[string]Value),
		texts:    make(map[string]string),
		named:    make(map[string]string),
		graph:    NewGraph(),
	}, nil
}

// ID returns this engine instance's uuid, useful as a log-correlation
// field across multiple concurrently-running (but never concurrently
// called) Engine instances.
func (e *Engine) ID() uuid.UUID { return e.id }

// RegisterFunction adds or replaces a builtin in the function registry,
// satisfying spec §6's register_function extension point.
func (e *Engine) RegisterFunction(name string, fn NormalFunc) {
	e.registry.Register(strings.ToUpper(name), fn)
}

func (e *Engine) lookupName(name string) (string, bool) {
	refersTo, ok := e.named[strings.ToUpper(name)]
	return refersTo, ok
}

func (e *Engine) getCell(ref string) Value {
	if v, ok := e.values[ref]; ok {
		return v
	}
	return Empty{}
}

// Load consumes a WorkbookView per spec §4.8: named ranges first (so
// formula registration can resolve identifiers against them), then every
// cell of every sheet, setting literal values directly and registering
// formula cells with the dependency graph.
func (e *Engine) Load(view WorkbookView) error {
	e.values = make(map[string]Value)
	e.texts = make(map[string]string)
	e.named = make(map[string]string)
	e.graph = NewGraph()

	for name, refersTo := range view.DefinedNames() {
		e.named[strings.ToUpper(name)] = refersTo
	}

	for _, sheet := range view.Sheets() {
		for pos, raw := range view.Cells(sheet) {
			ref := CanonicalRef(sheet, pos.Row, pos.Col)
			switch t := raw.(type) {
			case string:
				if IsFormula(t) {
					e.texts[ref] = t
					if err := e.graph.AddFormula(ref, t, sheet, e.named); err != nil {
						return err
					}
					e.values[ref] = Empty{}
					continue
				}
				e.values[ref] = FromWire(t)
			default:
				e.values[ref] = FromWire(t)
			}
		}
	}

	e.loaded = true
	return nil
}

// Calculate evaluates every formula cell in topological order and
// returns a copy of the formula-cell -> result mapping, per spec §4.8.
// Non-evaluable formulas resolve to Empty and do not abort the call.
func (e *Engine) Calculate() (map[string]Value, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	order, err := e.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	for _, ref := range order {
		e.evaluateCell(ref)
	}

	out := make(map[string]Value, len(order))
	for _, ref := range order {
		out[ref] = e.values[ref]
	}
	return out, nil
}

func (e *Engine) evaluateCell(ref string) {
	formula, ok := e.texts[ref]
	if !ok {
		return
	}
	sheet := SheetOfRef(ref)
	ctx := &evalContext{engine: e, sheet: sheet}
	body := strings.TrimPrefix(strings.TrimSpace(formula), "=")
	result := ctx.Eval(body)
	e.values[ref] = result
}

// Recalculate implements spec §4.8's perturbation/BFS-projection/diff
// cycle: snapshot old formula-cell values, overwrite the perturbed
// inputs, evaluate the BFS-projected affected set in topological order,
// and report which cells actually changed.
func (e *Engine) Recalculate(perturbations map[string]float64, tolerance ...float64) (*RecalcResult, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	tol := e.cfg.Tolerance
	if len(tolerance) > 0 {
		tol = tolerance[0]
	}

	old := make(map[string]Value, len(e.texts))
	for ref := range e.texts {
		old[ref] = e.values[ref]
	}

	perturbedRefs := make([]string, 0, len(perturbations))
	for ref, val := range perturbations {
		e.values[ref] = Float(val)
		perturbedRefs = append(perturbedRefs, ref)
	}
	sortStrings(perturbedRefs)

	affected := e.graph.AffectedCells(perturbedRefs)
	order, err := e.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	affectedSet := make(map[string]struct{}, len(affected))
	for _, ref := range affected {
		affectedSet[ref] = struct{}{}
	}

	var deltas []CellDelta
	for _, ref := range order {
		if _, inAffected := affectedSet[ref]; !inAffected {
			continue
		}
		e.evaluateCell(ref)
		newVal := e.values[ref]
		if ValuesDiffer(old[ref], newVal, tol) {
			deltas = append(deltas, CellDelta{
				Ref:     ref,
				Old:     old[ref],
				New:     newVal,
				Formula: e.texts[ref],
			})
		}
	}

	return &RecalcResult{
		Perturbations:     perturbations,
		Deltas:            deltas,
		TotalFormulaCells: len(e.texts),
		PropagatedCells:   len(deltas),
		MaxDepth:          e.graph.MaxDepth(perturbedRefs),
	}, nil
}
