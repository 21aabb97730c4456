package calc

import "math"

// registerMathFuncs wires SUM/ROUND/ABS/etc., grounded on
// original_source's wolfxl.calc._builtins arithmetic group.
func registerMathFuncs(r *Registry) {
	r.Register("SUM", fnSum)
	r.Register("ROUND", fnRound)
	r.Register("ROUNDUP", fnRoundUp)
	r.Register("ROUNDDOWN", fnRoundDown)
	r.Register("ABS", fnAbs)
	r.Register("INT", fnInt)
	r.Register("MOD", fnMod)
	r.Register("POWER", fnPower)
	r.Register("SQRT", fnSqrt)
	r.Register("TRUNC", fnTrunc)
	r.Register("SIGN", fnSign)
	r.Register("PRODUCT", fnProduct)
	r.Register("CEILING", fnCeiling)
	r.Register("FLOOR", fnFloor)
}

// numericFlat flattens args and coerces every element to float64,
// skipping Empty/Text cells the way SUM/AVERAGE-family functions do
// (Excel ignores text and blanks rather than erroring), while still
// propagating any in-band ExcelError as the immediate result.
func numericFlat(args []Value) ([]float64, *ExcelError) {
	flat := flattenArgs(args)
	nums := make([]float64, 0, len(flat))
	for _, v := range flat {
		if e, ok := v.(*ExcelError); ok {
			return nil, e
		}
		switch t := v.(type) {
		case Number:
			nums = append(nums, t.F)
		case Bool:
			if t {
				nums = append(nums, 1)
			} else {
				nums = append(nums, 0)
			}
		case Empty, nil:
			// ignored
		case Text:
			// ignored: bare text arguments don't coerce in aggregate functions
		}
	}
	return nums, nil
}

func fnSum(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	total := 0.0
	allInt := true
	for _, n := range nums {
		total += n
		if n != math.Trunc(n) {
			allInt = false
		}
	}
	return Number{F: total, IsInt: allInt}
}

func fnProduct(args []Value) Value {
	nums, err := numericFlat(args)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		return Int(0)
	}
	total := 1.0
	for _, n := range nums {
		total *= n
	}
	return Float(total)
}

func fnRound(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	digits, dOk := ToNumber(arg(args, 1))
	if !nOk || !dOk {
		return ErrValue()
	}
	return Float(roundHalfAwayFromZero(n, int(digits)))
}

// roundHalfAwayFromZero implements Excel's ROUND: ties round away from
// zero (not banker's rounding), matching original_source's round_half_up.
func roundHalfAwayFromZero(n float64, digits int) float64 {
	mult := math.Pow(10, float64(digits))
	scaled := n * mult
	if scaled >= 0 {
		return math.Floor(scaled+0.5) / mult
	}
	return math.Ceil(scaled-0.5) / mult
}

func fnRoundUp(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	digits, dOk := ToNumber(arg(args, 1))
	if !nOk || !dOk {
		return ErrValue()
	}
	mult := math.Pow(10, float64(int(digits)))
	if n >= 0 {
		return Float(math.Ceil(n*mult) / mult)
	}
	return Float(math.Floor(n*mult) / mult)
}

func fnRoundDown(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	digits, dOk := ToNumber(arg(args, 1))
	if !nOk || !dOk {
		return ErrValue()
	}
	mult := math.Pow(10, float64(int(digits)))
	if n >= 0 {
		return Float(math.Floor(n*mult) / mult)
	}
	return Float(math.Ceil(n*mult) / mult)
}

func fnAbs(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	return Float(math.Abs(n))
}

func fnInt(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	return Number{F: math.Floor(n), IsInt: true}
}

func fnMod(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	d, dOk := ToNumber(arg(args, 1))
	if !nOk || !dOk {
		return ErrValue()
	}
	if d == 0 {
		return ErrDiv0()
	}
	m := math.Mod(n, d)
	if m != 0 && (m < 0) != (d < 0) {
		m += d
	}
	return Float(m)
}

func fnPower(args []Value) Value {
	base, bOk := ToNumber(arg(args, 0))
	exp, eOk := ToNumber(arg(args, 1))
	if !bOk || !eOk {
		return ErrValue()
	}
	result := math.Pow(base, exp)
	if math.IsNaN(result) {
		return ErrNum()
	}
	return Float(result)
}

func fnSqrt(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	if n < 0 {
		return ErrNum()
	}
	return Float(math.Sqrt(n))
}

func fnTrunc(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	digits := 0.0
	if len(args) > 1 {
		var dOk bool
		digits, dOk = ToNumber(args[1])
		if !dOk {
			return ErrValue()
		}
	}
	if !nOk {
		return ErrValue()
	}
	mult := math.Pow(10, digits)
	return Float(math.Trunc(n*mult) / mult)
}

func fnSign(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	switch {
	case n > 0:
		return Int(1)
	case n < 0:
		return Int(-1)
	default:
		return Int(0)
	}
}

func fnCeiling(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	sig, sOk := ToNumber(arg(args, 1))
	if !nOk || !sOk {
		return ErrValue()
	}
	if sig == 0 {
		return Int(0)
	}
	return Float(math.Ceil(n/sig) * sig)
}

func fnFloor(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	sig, sOk := ToNumber(arg(args, 1))
	if !nOk || !sOk {
		return ErrValue()
	}
	if sig == 0 {
		return Int(0)
	}
	return Float(math.Floor(n/sig) * sig)
}
