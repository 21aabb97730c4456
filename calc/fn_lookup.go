package calc

import "strings"

// registerLookupFuncs wires VLOOKUP/HLOOKUP/INDEX/MATCH/XLOOKUP/OFFSET,
// grounded on original_source's wolfxl.calc._builtins lookup group
// (exact-match-only VLOOKUP/HLOOKUP per spec §5's Non-goal on approximate
// match, plus the XLOOKUP next-smaller-match extension SPEC_FULL adds).
// OFFSET is registered as a RawFunc since it must resolve its first
// argument to a reference, not a value, before shifting it.
func registerLookupFuncs(r *Registry) {
	r.Register("VLOOKUP", fnVlookup)
	r.Register("HLOOKUP", fnHlookup)
	r.Register("INDEX", fnIndex)
	r.Register("MATCH", fnMatch)
	r.Register("XLOOKUP", fnXlookup)
	r.RegisterRaw("OFFSET", fnOffset)
	r.Register("CHOOSE", fnChoose)
}

// fnChoose returns the argument at the 1-based index given by its first
// argument.
func fnChoose(args []Value) Value {
	idx, ok := ToNumber(arg(args, 0))
	if !ok || int(idx) < 1 || int(idx) >= len(args) {
		return ErrValue()
	}
	return args[int(idx)]
}

func fnVlookup(args []Value) Value {
	lookup := arg(args, 0)
	table, ok := arg(args, 1).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	colIdx, colOk := ToNumber(arg(args, 2))
	if !colOk || int(colIdx) < 1 || int(colIdx) > table.NCols {
		return ErrRef()
	}
	for row := 1; row <= table.NRows; row++ {
		if valuesEqual(table.Get(row, 1), lookup) {
			return table.Get(row, int(colIdx))
		}
	}
	return ErrNA()
}

func fnHlookup(args []Value) Value {
	lookup := arg(args, 0)
	table, ok := arg(args, 1).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	rowIdx, rowOk := ToNumber(arg(args, 2))
	if !rowOk || int(rowIdx) < 1 || int(rowIdx) > table.NRows {
		return ErrRef()
	}
	for col := 1; col <= table.NCols; col++ {
		if valuesEqual(table.Get(1, col), lookup) {
			return table.Get(int(rowIdx), col)
		}
	}
	return ErrNA()
}

func fnIndex(args []Value) Value {
	table, ok := arg(args, 0).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	rowNum, _ := ToNumber(arg(args, 1))
	colNum := 1.0
	if len(args) > 2 {
		colNum, _ = ToNumber(args[2])
	}

	if int(rowNum) == 0 && table.NCols >= int(colNum) {
		return NewRangeValue(table.NRows, 1, table.Column(int(colNum)))
	}
	if int(colNum) == 0 && table.NRows >= int(rowNum) {
		return NewRangeValue(1, table.NCols, table.Row(int(rowNum)))
	}
	if int(rowNum) < 1 || int(rowNum) > table.NRows || int(colNum) < 1 || int(colNum) > table.NCols {
		return ErrRef()
	}
	return table.Get(int(rowNum), int(colNum))
}

// fnMatch implements MATCH with match_type 0 (exact) and the default 1
// (largest value <= lookup, over an ascending-sorted range) per
// original_source's match semantics; match_type -1 mirrors 1 for
// descending ranges.
func fnMatch(args []Value) Value {
	lookup := arg(args, 0)
	table, ok := arg(args, 1).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	matchType := 1.0
	if len(args) > 2 {
		matchType, _ = ToNumber(args[2])
	}
	cells := table.Flatten()

	if int(matchType) == 0 {
		for i, c := range cells {
			if valuesEqual(c, lookup) {
				return Int(int64(i + 1))
			}
		}
		return ErrNA()
	}

	best := -1
	lf, lookupIsNum := ToNumber(lookup)
	for i, c := range cells {
		cf, ok := ToNumber(c)
		if !ok || !lookupIsNum {
			continue
		}
		if int(matchType) > 0 {
			if cf <= lf {
				best = i
			} else {
				break
			}
		} else {
			if cf >= lf {
				best = i
			} else {
				break
			}
		}
	}
	if best < 0 {
		return ErrNA()
	}
	return Int(int64(best + 1))
}

// fnXlookup implements the SPEC_FULL lookup extension: exact match by
// default, with an explicit if-not-found fallback argument and a
// next-smaller match_mode (-1) for approximate lookups, grounded on
// original_source's documented xlookup behavior.
func fnXlookup(args []Value) Value {
	lookup := arg(args, 0)
	lookupRange, ok := arg(args, 1).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	returnRange, ok := arg(args, 2).(*RangeValue)
	if !ok {
		return ErrValue()
	}
	ifNotFound := arg(args, 3)
	matchMode := 0.0
	if len(args) > 4 {
		matchMode, _ = ToNumber(args[4])
	}

	lookupCells := lookupRange.Flatten()
	returnCells := returnRange.Flatten()

	if int(matchMode) == 0 {
		for i, c := range lookupCells {
			if valuesEqual(c, lookup) && i < len(returnCells) {
				return returnCells[i]
			}
		}
	} else if int(matchMode) == -1 {
		lf, lookupIsNum := ToNumber(lookup)
		best := -1
		bestVal := 0.0
		for i, c := range lookupCells {
			cf, numOk := ToNumber(c)
			if !numOk || !lookupIsNum || cf > lf {
				continue
			}
			if best < 0 || cf > bestVal {
				best = i
				bestVal = cf
			}
		}
		if best >= 0 && best < len(returnCells) {
			return returnCells[best]
		}
	}

	if _, isEmpty := ifNotFound.(Empty); !isEmpty {
		return ifNotFound
	}
	return ErrNA()
}

// fnOffset shifts a base reference by (rows, cols) and, when height/width
// are given, returns a RangeValue of that shape; it must see the raw
// first argument text (not its resolved value) to recover the base cell.
func fnOffset(rawArgs []string, eval func(string) Value, ctx *evalContext) Value {
	if len(rawArgs) < 3 {
		return ErrValue()
	}
	baseRef := strings.TrimSpace(rawArgs[0])
	rowsV := eval(rawArgs[1])
	colsV := eval(rawArgs[2])
	rowsF, rOk := ToNumber(rowsV)
	colsF, cOk := ToNumber(colsV)
	if !rOk || !cOk {
		return ErrValue()
	}

	sheet, rest := splitSheetPrefix(baseRef)
	if sheet == "" {
		sheet = ctx.sheet
	}
	baseRow, baseCol, err := ParseA1(rest)
	if err != nil {
		return ErrRef()
	}
	newRow := baseRow + int(rowsF)
	newCol := baseCol + int(colsF)
	if newRow < 1 || newCol < 1 {
		return ErrRef()
	}

	height, width := 1, 1
	if len(rawArgs) > 3 {
		if h, ok := ToNumber(eval(rawArgs[3])); ok && h != 0 {
			height = int(h)
		}
	}
	if len(rawArgs) > 4 {
		if w, ok := ToNumber(eval(rawArgs[4])); ok && w != 0 {
			width = int(w)
		}
	}
	if height == 1 && width == 1 {
		return ctx.engine.getCell(CanonicalRef(sheet, newRow, newCol))
	}

	values := make([]Value, 0, height*width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			values = append(values, ctx.engine.getCell(CanonicalRef(sheet, newRow+r, newCol+c)))
		}
	}
	return NewRangeValue(height, width, values)
}
