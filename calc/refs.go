package calc

import (
	"regexp"
	"strings"
)

// Reference-extraction regexes, ported from original_source's
// wolfxl.calc._parser (regex-based reference extraction) into Go's RE2
// dialect. There is no third-party regex alternative in the example
// corpus for this job — Go's standard regexp package is the direct
// idiomatic analog of the Python standard library's `re` module that
// original_source itself uses, not a corpus dependency we're declining to
// wire.
var (
	reDoubleQuoted = regexp.MustCompile(`"[^"]*"`)
	reSheetPrefix  = `(?:'([^']+)'!|([A-Za-z0-9_.]+)!)?`
	reCellRef      = `\$?([A-Za-z]{1,3})\$?([0-9]+)`
	reSingleRef    = regexp.MustCompile(reSheetPrefix + reCellRef)
	reRangeRef     = regexp.MustCompile(reSheetPrefix + reCellRef + `\s*:\s*` + reCellRef)
	reFuncName     = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_.]*)\s*\(`)
)

// stripStringLiterals removes double-quoted string literal spans so that
// cell-ref-shaped substrings embedded in "..." data literals never become
// phantom dependencies, per spec §4.2. Single-quoted sheet names are not
// removed; reSheetPrefix matches them as part of the reference.
func stripStringLiterals(formula string) string {
	return reDoubleQuoted.ReplaceAllString(formula, "")
}

// ParseReferences extracts all single cell references from formula, in
// source order, deduplicated, canonicalized against currentSheet. Refs
// that are the start or end of a range are excluded — use
// ParseRangeReferences for those.
func ParseReferences(formula, currentSheet string) []string {
	clean := stripStringLiterals(formula)

	var rangeSpans [][2]int
	for _, m := range reRangeRef.FindAllStringIndex(clean, -1) {
		rangeSpans = append(rangeSpans, [2]int{m[0], m[1]})
	}

	var refs []string
	seen := make(map[string]struct{})
	for _, m := range reSingleRef.FindAllStringSubmatchIndex(clean, -1) {
		start := m[0]
		inRange := false
		for _, span := range rangeSpans {
			if start >= span[0] && start < span[1] {
				inRange = true
				break
			}
		}
		if inRange {
			continue
		}
		sheet := groupOrDefault(clean, m, 1, 2, currentSheet)
		col := strings.ToUpper(clean[m[6]:m[7]])
		row := clean[m[8]:m[9]]
		canonical := sheet + "!" + col + row
		if _, dup := seen[canonical]; !dup {
			refs = append(refs, canonical)
			seen[canonical] = struct{}{}
		}
	}
	return refs
}

// ParseRangeReferences extracts all range references (A1:B5) from formula,
// canonicalized as "Sheet!A1:B5", in source order, deduplicated.
func ParseRangeReferences(formula, currentSheet string) []string {
	clean := stripStringLiterals(formula)

	var ranges []string
	seen := make(map[string]struct{})
	for _, m := range reRangeRef.FindAllStringSubmatchIndex(clean, -1) {
		sheet := groupOrDefault(clean, m, 1, 2, currentSheet)
		startCol := strings.ToUpper(clean[m[6]:m[7]])
		startRow := clean[m[8]:m[9]]
		endCol := strings.ToUpper(clean[m[10]:m[11]])
		endRow := clean[m[12]:m[13]]
		canonical := sheet + "!" + startCol + startRow + ":" + endCol + endRow
		if _, dup := seen[canonical]; !dup {
			ranges = append(ranges, canonical)
			seen[canonical] = struct{}{}
		}
	}
	return ranges
}

// groupOrDefault reads submatch group g1 (single-quoted sheet) or g2
// (bare sheet) from a FindAllStringSubmatchIndex match, falling back to
// def when neither participated in the match.
func groupOrDefault(s string, m []int, g1, g2 int, def string) string {
	if m[g1*2] >= 0 {
		return s[m[g1*2]:m[g1*2+1]]
	}
	if m[g2*2] >= 0 {
		return s[m[g2*2]:m[g2*2+1]]
	}
	return def
}

// reIdentifier matches a bare word token that could be a named range: a
// leading letter or underscore followed by letters, digits, underscores,
// or dots, and not immediately followed by '(' (which would make it a
// function call instead).
var reIdentifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)

// ParseIdentifiers extracts every bare-word token in formula that isn't a
// cell/range reference, a function-call name, or a string literal body —
// i.e. every candidate named-range identifier, deduplicated.
func ParseIdentifiers(formula string) []string {
	clean := stripStringLiterals(formula)

	cellSpans := spansOf(reSingleRef, clean)
	rangeSpans := spansOf(reRangeRef, clean)
	funcSpans := spansOf(reFuncName, clean)

	var idents []string
	seen := make(map[string]struct{})
	for _, m := range reIdentifier.FindAllStringIndex(clean, -1) {
		if inAnySpan(m[0], m[1], cellSpans) || inAnySpan(m[0], m[1], rangeSpans) || inAnySpan(m[0], m[1], funcSpans) {
			continue
		}
		name := clean[m[0]:m[1]]
		if _, dup := seen[name]; !dup {
			idents = append(idents, name)
			seen[name] = struct{}{}
		}
	}
	return idents
}

func spansOf(re *regexp.Regexp, s string) [][2]int {
	var spans [][2]int
	for _, m := range re.FindAllStringIndex(s, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

func inAnySpan(start, end int, spans [][2]int) bool {
	for _, span := range spans {
		if start >= span[0] && start < span[1] {
			return true
		}
	}
	return false
}

// ParseFunctions extracts all uppercase function names invoked in formula.
func ParseFunctions(formula string) []string {
	clean := stripStringLiterals(formula)
	var funcs []string
	seen := make(map[string]struct{})
	for _, m := range reFuncName.FindAllStringSubmatch(clean, -1) {
		name := strings.ToUpper(m[1])
		if _, dup := seen[name]; !dup {
			funcs = append(funcs, name)
			seen[name] = struct{}{}
		}
	}
	return funcs
}

// ExpandRange expands a range reference (with or without a sheet prefix)
// into its constituent canonical cell refs, in row-major order, with
// min/max normalization so "A5:A1" and "A1:A5" yield the same list.
func ExpandRange(rangeRef string) ([]string, error) {
	sheet, rest := splitSheetPrefix(rangeRef)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, &InvalidReferenceError{Text: rangeRef}
	}
	startRow, startCol, err := ParseA1(stripDollars(parts[0]))
	if err != nil {
		return nil, err
	}
	endRow, endCol, err := ParseA1(stripDollars(parts[1]))
	if err != nil {
		return nil, err
	}

	rMin, rMax := minMax(startRow, endRow)
	cMin, cMax := minMax(startCol, endCol)

	cells := make([]string, 0, (rMax-rMin+1)*(cMax-cMin+1))
	for r := rMin; r <= rMax; r++ {
		for c := cMin; c <= cMax; c++ {
			ref := RowColToA1(r, c)
			if sheet != "" {
				cells = append(cells, sheet+"!"+ref)
			} else {
				cells = append(cells, ref)
			}
		}
	}
	return cells, nil
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// AllReferences returns the union of ParseReferences and the expansion of
// every ParseRangeReferences range, deduplicated while preserving
// first-seen order.
func AllReferences(formula, currentSheet string) []string {
	var refs []string
	seen := make(map[string]struct{})

	for _, ref := range ParseReferences(formula, currentSheet) {
		if _, dup := seen[ref]; !dup {
			refs = append(refs, ref)
			seen[ref] = struct{}{}
		}
	}

	for _, rng := range ParseRangeReferences(formula, currentSheet) {
		expanded, err := ExpandRange(rng)
		if err != nil {
			continue
		}
		for _, ref := range expanded {
			if _, dup := seen[ref]; !dup {
				refs = append(refs, ref)
				seen[ref] = struct{}{}
			}
		}
	}

	return refs
}
