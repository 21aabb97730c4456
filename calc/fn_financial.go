package calc

import "math"

// registerFinancialFuncs wires PMT/NPV/IRR, the "financial" function
// category original_source's wolfxl.calc._functions catalogs (_functions.py
// FUNCTION_CATEGORIES) but whose bodies fell outside the retained
// excerpt; the standard annuity/cash-flow formulas below implement the
// same category.
func registerFinancialFuncs(r *Registry) {
	r.Register("PMT", fnPmt)
	r.Register("NPV", fnNpv)
	r.Register("IRR", fnIrr)
	r.Register("PV", fnPv)
	r.Register("FV", fnFv)
	r.Register("SLN", fnSln)
	r.Register("DB", fnDb)
}

// fnPv computes present value, the inverse of fnPmt.
func fnPv(args []Value) Value {
	rate, rOk := ToNumber(arg(args, 0))
	nper, nOk := ToNumber(arg(args, 1))
	pmt, pOk := ToNumber(arg(args, 2))
	if !rOk || !nOk || !pOk {
		return ErrValue()
	}
	fv := 0.0
	if len(args) > 3 {
		fv, _ = ToNumber(args[3])
	}
	if rate == 0 {
		return Float(-(pmt*nper + fv))
	}
	pow := math.Pow(1+rate, nper)
	return Float(-(pmt*(pow-1)/rate + fv) / pow)
}

// fnFv computes future value of a series of equal payments.
func fnFv(args []Value) Value {
	rate, rOk := ToNumber(arg(args, 0))
	nper, nOk := ToNumber(arg(args, 1))
	pmt, pOk := ToNumber(arg(args, 2))
	if !rOk || !nOk || !pOk {
		return ErrValue()
	}
	pv := 0.0
	if len(args) > 3 {
		pv, _ = ToNumber(args[3])
	}
	if rate == 0 {
		return Float(-(pv + pmt*nper))
	}
	pow := math.Pow(1+rate, nper)
	return Float(-(pv*pow + pmt*(pow-1)/rate))
}

// fnSln computes straight-line depreciation for one period.
func fnSln(args []Value) Value {
	cost, cOk := ToNumber(arg(args, 0))
	salvage, sOk := ToNumber(arg(args, 1))
	life, lOk := ToNumber(arg(args, 2))
	if !cOk || !sOk || !lOk || life == 0 {
		return ErrValue()
	}
	return Float((cost - salvage) / life)
}

// fnDb computes fixed-declining-balance depreciation for period, per
// Excel's documented DB formula (rate rounded to 3 decimal places).
func fnDb(args []Value) Value {
	cost, cOk := ToNumber(arg(args, 0))
	salvage, sOk := ToNumber(arg(args, 1))
	life, lOk := ToNumber(arg(args, 2))
	period, pOk := ToNumber(arg(args, 3))
	if !cOk || !sOk || !lOk || !pOk || cost == 0 || life == 0 {
		return ErrValue()
	}
	month := 12.0
	if len(args) > 4 {
		if m, ok := ToNumber(args[4]); ok {
			month = m
		}
	}
	if salvage < 0 || salvage >= cost {
		return ErrNum()
	}
	rate := 1 - math.Pow(salvage/cost, 1/life)
	rate = math.Round(rate*1000) / 1000

	totalDepreciation := 0.0
	depreciation := cost * rate * month / 12
	if period == 1 {
		return Float(depreciation)
	}
	totalDepreciation = depreciation
	remaining := cost - depreciation
	for p := 2.0; p <= period; p++ {
		if p == math.Trunc(life)+1 {
			depreciation = remaining * rate * (12 - month) / 12
		} else {
			depreciation = remaining * rate
		}
		remaining -= depreciation
		totalDepreciation += depreciation
	}
	return Float(depreciation)
}

// fnPmt computes the fixed payment for a loan/annuity: rate per period,
// number of periods, present value, with Excel's sign convention
// (payments are negative outflows relative to a positive pv).
func fnPmt(args []Value) Value {
	rate, rOk := ToNumber(arg(args, 0))
	nper, nOk := ToNumber(arg(args, 1))
	pv, pOk := ToNumber(arg(args, 2))
	if !rOk || !nOk || !pOk || nper == 0 {
		return ErrValue()
	}
	fv := 0.0
	if len(args) > 3 {
		fv, _ = ToNumber(args[3])
	}
	if rate == 0 {
		return Float(-(pv + fv) / nper)
	}
	pow := math.Pow(1+rate, nper)
	return Float(-(pv*pow + fv) * rate / (pow - 1))
}

// fnNpv discounts a series of cash flows at rate, treating the first
// flow as occurring one period from now (Excel's NPV convention; an
// up-front cost is added separately by the caller's formula).
func fnNpv(args []Value) Value {
	rate, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	flows, err := numericFlat(args[1:])
	if err != nil {
		return err
	}
	total := 0.0
	for i, cf := range flows {
		total += cf / math.Pow(1+rate, float64(i+1))
	}
	return Float(total)
}

// fnIrr solves for the discount rate that zeroes NPV via Newton-Raphson,
// starting from guess (default 0.1) and falling back to #NUM! if it
// fails to converge within 64 iterations — the same bound and default
// guess Excel itself documents for IRR.
func fnIrr(args []Value) Value {
	rangeArg := arg(args, 0)
	var cashFlows []float64
	if rv, ok := rangeArg.(*RangeValue); ok {
		for _, v := range rv.Flatten() {
			if n, ok := ToNumber(v); ok {
				cashFlows = append(cashFlows, n)
			}
		}
	} else if n, ok := ToNumber(rangeArg); ok {
		cashFlows = []float64{n}
	}
	if len(cashFlows) < 2 {
		return ErrValue()
	}

	guess := 0.1
	if len(args) > 1 {
		if g, ok := ToNumber(args[1]); ok {
			guess = g
		}
	}

	rate := guess
	for iter := 0; iter < 64; iter++ {
		npv, dNpv := 0.0, 0.0
		for t, cf := range cashFlows {
			factor := math.Pow(1+rate, float64(t))
			npv += cf / factor
			if t > 0 {
				dNpv -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
			}
		}
		if dNpv == 0 {
			return ErrNum()
		}
		next := rate - npv/dNpv
		if math.Abs(next-rate) < 1e-10 {
			return Float(next)
		}
		rate = next
	}
	return ErrNum()
}
