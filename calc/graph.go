package calc

// Graph is the formula dependency graph: an edge cellRef -> dep means
// cellRef's formula reads dep. Adapted from original_source's
// wolfxl.calc._graph (dict-of-sets forward/reverse adjacency plus Kahn's
// algorithm) rather than the teacher's GetCalculationOrder (graph.go),
// which walks a uint32-indexed adjacency list with a DFS post-order and a
// separate visited/visiting bitset. Only formula cells are keys of
// forward and formulas; literal cells appear in forward[cell]'s value
// sets and as keys of reverse.
type Graph struct {
	forward  map[string]map[string]struct{} // cellRef -> set of refs it depends on
	reverse  map[string]map[string]struct{} // ref -> set of cellRefs that depend on it
	formulas map[string]string              // cellRef -> raw formula text (for re-derivation)
}

// NewGraph constructs an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		forward:  make(map[string]map[string]struct{}),
		reverse:  make(map[string]map[string]struct{}),
		formulas: make(map[string]string),
	}
}

// AddFormula records cellRef's dependencies, replacing any prior edges for
// cellRef. named resolves a bare identifier to its refers-to string so
// that named-range dependencies land on the same cell/range edges a
// literal reference would produce.
func (g *Graph) AddFormula(cellRef, formula, currentSheet string, named map[string]string) error {
	g.removeCell(cellRef)

	deps := AllReferences(formula, currentSheet)
	for ident, refersTo := range named {
		if !containsIdent(formula, ident) {
			continue
		}
		expanded, err := resolveNamedDeps(refersTo, currentSheet)
		if err != nil {
			continue
		}
		deps = append(deps, expanded...)
	}

	g.formulas[cellRef] = formula
	g.forward[cellRef] = make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		g.forward[cellRef][dep] = struct{}{}
		if g.reverse[dep] == nil {
			g.reverse[dep] = make(map[string]struct{})
		}
		g.reverse[dep][cellRef] = struct{}{}
	}
	return nil
}

// resolveNamedDeps expands a named range's refers-to text into the
// cell/range dependency edges it contributes.
func resolveNamedDeps(refersTo, currentSheet string) ([]string, error) {
	ref, err := CanonicalizeCellRef(refersTo, currentSheet)
	if err == nil {
		return []string{ref}, nil
	}
	rangeRef, err := CanonicalizeRangeRef(refersTo, currentSheet)
	if err != nil {
		return nil, err
	}
	return ExpandRange(rangeRef)
}

func containsIdent(formula, ident string) bool {
	for _, r := range ParseIdentifiers(formula) {
		if r == ident {
			return true
		}
	}
	return false
}

// RemoveCell drops cellRef's outgoing edges entirely (used when a cell is
// cleared or overwritten with a literal).
func (g *Graph) RemoveCell(cellRef string) {
	g.removeCell(cellRef)
	delete(g.formulas, cellRef)
}

func (g *Graph) removeCell(cellRef string) {
	for dep := range g.forward[cellRef] {
		if set := g.reverse[dep]; set != nil {
			delete(set, cellRef)
			if len(set) == 0 {
				delete(g.reverse, dep)
			}
		}
	}
	delete(g.forward, cellRef)
}

// Dependents returns the cells whose formulas directly reference cellRef.
func (g *Graph) Dependents(cellRef string) []string {
	out := make([]string, 0, len(g.reverse[cellRef]))
	for ref := range g.reverse[cellRef] {
		out = append(out, ref)
	}
	return out
}

// Dependencies returns the cells cellRef's formula directly references.
func (g *Graph) Dependencies(cellRef string) []string {
	out := make([]string, 0, len(g.forward[cellRef]))
	for ref := range g.forward[cellRef] {
		out = append(out, ref)
	}
	return out
}

// TopologicalOrder returns every formula cell in dependency order (a
// cell's dependencies precede it) via Kahn's algorithm, restricted to the
// subgraph of cells that have formulas. Returns a *CircularReferenceError
// naming the cells still unprocessed when no more zero-in-degree nodes
// remain.
func (g *Graph) TopologicalOrder() ([]string, error) {
	formulaCells := make(map[string]struct{}, len(g.formulas))
	for ref := range g.formulas {
		formulaCells[ref] = struct{}{}
	}

	inDegree := make(map[string]int, len(formulaCells))
	for ref := range formulaCells {
		inDegree[ref] = 0
	}
	for ref := range formulaCells {
		for dep := range g.forward[ref] {
			if _, isFormula := formulaCells[dep]; isFormula {
				inDegree[ref]++
			}
		}
	}

	queue := make([]string, 0, len(formulaCells))
	for ref, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, ref)
		}
	}
	sortStrings(queue)

	order := make([]string, 0, len(formulaCells))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)

		dependents := make([]string, 0, len(g.reverse[next]))
		for dep := range g.reverse[next] {
			if _, isFormula := formulaCells[dep]; isFormula {
				dependents = append(dependents, dep)
			}
		}
		sortStrings(dependents)
		for _, dep := range dependents {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
				sortStrings(queue)
			}
		}
	}

	if len(order) != len(formulaCells) {
		var remaining []string
		for ref, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, ref)
			}
		}
		sortStrings(remaining)
		return nil, &CircularReferenceError{Cells: remaining}
	}
	return order, nil
}

// AffectedCells returns every formula cell reachable by following
// dependents (reverse edges) from perturbed, breadth-first, excluding the
// perturbed cells themselves unless reached transitively through another
// perturbed cell.
func (g *Graph) AffectedCells(perturbed []string) []string {
	visited := make(map[string]struct{})
	var affected []string
	queue := append([]string{}, perturbed...)
	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++
		dependents := make([]string, 0, len(g.reverse[cur]))
		for dep := range g.reverse[cur] {
			dependents = append(dependents, dep)
		}
		sortStrings(dependents)
		for _, dep := range dependents {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			affected = append(affected, dep)
			queue = append(queue, dep)
		}
	}
	return affected
}

// MaxDepth returns the deepest breadth-first layer reached from roots
// over reverse edges, measured in edges (depth of a root is 0). Each cell
// keeps the depth at which BFS first reaches it, i.e. its shortest
// distance from a root. Engine reports it as RecalcResult.MaxDepth.
func (g *Graph) MaxDepth(roots []string) int {
	depth := make(map[string]int, len(roots))
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := depth[r]; !ok {
			depth[r] = 0
			queue = append(queue, r)
		}
	}
	maxD := 0
	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++
		for dep := range g.reverse[cur] {
			if _, seen := depth[dep]; seen {
				continue
			}
			depth[dep] = depth[cur] + 1
			if depth[dep] > maxD {
				maxD = depth[dep]
			}
			queue = append(queue, dep)
		}
	}
	return maxD
}

// sortStrings is a tiny insertion sort used to make queue processing
// order deterministic (and therefore TopologicalOrder/AffectedCells output
// reproducible across runs), without pulling in sort for a handful of
// short slices on the hot recalculation path.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
