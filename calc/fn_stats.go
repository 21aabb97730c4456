package calc

import (
	"math"
	"sort"
)

// registerStatsFuncs wires aggregate/statistical builtins, grounded on
// original_source's wolfxl.calc._builtins stats group plus the corpus's
// COUNTIF/SUMIF-family criteria grammar (criteria.go).
func registerStatsFuncs(r *Registry) {
	r.Register("AVERAGE", fnAverage)
	r.Register("COUNT", fnCount)
	r.Register("COUNTA", fnCountA)
	r.Register("COUNTBLANK", fnCountBlank)
	r.Register("MIN", fnMin)
	r.Register("MAX", fnMax)
	r.Register("MEDIAN", fnMedian)
	r.Register("MODE", fnMode)
	r.Register("COUNTIF", fnCountIf)
	r.Register("SUMIF", fnSumIf)
	r.Register("AVERAGEIF", fnAverageIf)
	r.Register("COUNTIFS", fnCountIfs)
	r.Register("SUMIFS", fnSumIfs)
	r.Register("AVERAGEIFS", fnAverageIfs)
	r.Register("MINIFS", fnMinIfs)
	r.Register("MAXIFS", fnMaxIfs)
	r.Register("STDEV", fnStdev)
	r.Register("VAR", fnVar)
}

func fnAverage(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		return ErrDiv0()
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return Float(total / float64(len(nums)))
}

func fnCount(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	return Int(int64(len(nums)))
}

func fnCountA(args []Value) Value {
	flat := flattenArgs(args)
	n := 0
	for _, v := range flat {
		if !isEmptyValue(v) {
			n++
		}
	}
	return Int(int64(n))
}

func fnCountBlank(args []Value) Value {
	flat := flattenArgs(args)
	n := 0
	for _, v := range flat {
		if isEmptyValue(v) || v == Text("") {
			n++
		}
	}
	return Int(int64(n))
}

func fnMin(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		return Int(0)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return Float(m)
}

func fnMax(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		return Int(0)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return Float(m)
}

func fnMedian(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		return ErrNum()
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return Float(sorted[mid])
	}
	return Float((sorted[mid-1] + sorted[mid]) / 2)
}

func fnMode(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	counts := make(map[float64]int)
	order := make([]float64, 0, len(nums))
	for _, n := range nums {
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	best := math.NaN()
	bestCount := 1
	for _, n := range order {
		if counts[n] > bestCount {
			bestCount = counts[n]
			best = n
		}
	}
	if math.IsNaN(best) {
		return ErrNA()
	}
	return Float(best)
}

func fnStdev(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) < 2 {
		return ErrDiv0()
	}
	return Float(math.Sqrt(sampleVariance(nums)))
}

func fnVar(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) < 2 {
		return ErrDiv0()
	}
	return Float(sampleVariance(nums))
}

func sampleVariance(nums []float64) float64 {
	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	sq := 0.0
	for _, n := range nums {
		d := n - mean
		sq += d * d
	}
	return sq / float64(len(nums)-1)
}

// rangeAndCriteria pulls a (range, criteria) pair out of args at the
// given offset, flattening the range into parallel scalars.
func rangeAndCriteria(args []Value, rangeIdx, critIdx int) ([]Value, Value) {
	rangeArg := arg(args, rangeIdx)
	var cells []Value
	if rv, ok := rangeArg.(*RangeValue); ok {
		cells = rv.Flatten()
	} else {
		cells = []Value{rangeArg}
	}
	return cells, arg(args, critIdx)
}

func fnCountIf(args []Value) Value {
	cells, criteria := rangeAndCriteria(args, 0, 1)
	n := 0
	for _, c := range cells {
		if matchesCriteria(c, criteria) {
			n++
		}
	}
	return Int(int64(n))
}

func fnSumIf(args []Value) Value {
	cells, criteria := rangeAndCriteria(args, 0, 1)
	sumRange := cells
	if len(args) > 2 {
		if rv, ok := args[2].(*RangeValue); ok {
			sumRange = rv.Flatten()
		}
	}
	total := 0.0
	for i, c := range cells {
		if !matchesCriteria(c, criteria) {
			continue
		}
		if i >= len(sumRange) {
			continue
		}
		if n, ok := ToNumber(sumRange[i]); ok {
			total += n
		}
	}
	return Float(total)
}

func fnAverageIf(args []Value) Value {
	cells, criteria := rangeAndCriteria(args, 0, 1)
	avgRange := cells
	if len(args) > 2 {
		if rv, ok := args[2].(*RangeValue); ok {
			avgRange = rv.Flatten()
		}
	}
	total, count := 0.0, 0
	for i, c := range cells {
		if !matchesCriteria(c, criteria) {
			continue
		}
		if i >= len(avgRange) {
			continue
		}
		if n, ok := ToNumber(avgRange[i]); ok {
			total += n
			count++
		}
	}
	if count == 0 {
		return ErrDiv0()
	}
	return Float(total / float64(count))
}

// multiCriteriaMask evaluates a run of (range, criteria) pairs starting
// at argOffset and returns the boolean mask of cells satisfying all of
// them. The mask has the length of the first range; a position missing
// from a shorter range is false.
func multiCriteriaMask(args []Value, argOffset int) []bool {
	var rangeCells [][]Value
	var criteria []Value
	for i := argOffset; i+1 < len(args); i += 2 {
		cells, crit := rangeAndCriteria(args, i, i+1)
		rangeCells = append(rangeCells, cells)
		criteria = append(criteria, crit)
	}
	if len(rangeCells) == 0 {
		return nil
	}
	n := len(rangeCells[0])
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
		for k, cells := range rangeCells {
			if i >= len(cells) || !matchesCriteria(cells[i], criteria[k]) {
				mask[i] = false
				break
			}
		}
	}
	return mask
}

func fnCountIfs(args []Value) Value {
	mask := multiCriteriaMask(args, 0)
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return Int(int64(n))
}

func fnSumIfs(args []Value) Value {
	if len(args) == 0 {
		return ErrValue()
	}
	var sumRange []Value
	if rv, ok := args[0].(*RangeValue); ok {
		sumRange = rv.Flatten()
	} else {
		sumRange = []Value{args[0]}
	}
	mask := multiCriteriaMask(args, 1)
	total := 0.0
	for i, m := range mask {
		if !m || i >= len(sumRange) {
			continue
		}
		if n, ok := ToNumber(sumRange[i]); ok {
			total += n
		}
	}
	return Float(total)
}

func firstRangeFlat(args []Value) []Value {
	if len(args) == 0 {
		return nil
	}
	if rv, ok := args[0].(*RangeValue); ok {
		return rv.Flatten()
	}
	return []Value{args[0]}
}

func fnAverageIfs(args []Value) Value {
	avgRange := firstRangeFlat(args)
	mask := multiCriteriaMask(args, 1)
	total, count := 0.0, 0
	for i, m := range mask {
		if !m || i >= len(avgRange) {
			continue
		}
		if n, ok := ToNumber(avgRange[i]); ok {
			total += n
			count++
		}
	}
	if count == 0 {
		return ErrDiv0()
	}
	return Float(total / float64(count))
}

func fnMinIfs(args []Value) Value {
	target := firstRangeFlat(args)
	mask := multiCriteriaMask(args, 1)
	best := math.Inf(1)
	found := false
	for i, m := range mask {
		if !m || i >= len(target) {
			continue
		}
		if n, ok := ToNumber(target[i]); ok {
			if n < best {
				best = n
			}
			found = true
		}
	}
	if !found {
		return Int(0)
	}
	return Float(best)
}

func fnMaxIfs(args []Value) Value {
	target := firstRangeFlat(args)
	mask := multiCriteriaMask(args, 1)
	best := math.Inf(-1)
	found := false
	for i, m := range mask {
		if !m || i >= len(target) {
			continue
		}
		if n, ok := ToNumber(target[i]); ok {
			if n > best {
				best = n
			}
			found = true
		}
	}
	if !found {
		return Int(0)
	}
	return Float(best)
}
