package calc

// registerLogicFuncs wires IF/AND/OR/NOT/IFERROR/IFNA/IFS, grounded on
// original_source's wolfxl.calc._builtins logic group and the teacher's
// builtin.go boolean-coercion helpers. IF/IFERROR/IFNA/IFS are registered
// as RawFuncs because Excel only evaluates the branch it takes — eagerly
// resolving both branches of IF(A1<>0, 1/A1, 0) would spuriously divide
// by zero even though the formula never actually does.
func registerLogicFuncs(r *Registry) {
	r.RegisterRaw("IF", fnIf)
	r.Register("AND", fnAnd)
	r.Register("OR", fnOr)
	r.Register("NOT", fnNot)
	r.RegisterRaw("IFERROR", fnIfError)
	r.RegisterRaw("IFNA", fnIfNA)
	r.RegisterRaw("IFS", fnIfs)
	r.Register("XOR", fnXor)
}

func fnIf(rawArgs []string, eval func(string) Value, ctx *evalContext) Value {
	if len(rawArgs) == 0 {
		return ErrValue()
	}
	cond := eval(rawArgs[0])
	if e, ok := cond.(*ExcelError); ok {
		return e
	}
	if Truthy(cond) {
		if len(rawArgs) < 2 {
			return Bool(true)
		}
		return eval(rawArgs[1])
	}
	if len(rawArgs) < 3 {
		return Bool(false)
	}
	return eval(rawArgs[2])
}

func fnAnd(args []Value) Value {
	flat := flattenArgs(args)
	if len(flat) == 0 {
		return ErrValue()
	}
	result := true
	for _, v := range flat {
		if e, ok := v.(*ExcelError); ok {
			return e
		}
		if !Truthy(v) {
			result = false
		}
	}
	return Bool(result)
}

func fnOr(args []Value) Value {
	flat := flattenArgs(args)
	if len(flat) == 0 {
		return ErrValue()
	}
	result := false
	for _, v := range flat {
		if e, ok := v.(*ExcelError); ok {
			return e
		}
		if Truthy(v) {
			result = true
		}
	}
	return Bool(result)
}

func fnXor(args []Value) Value {
	flat := flattenArgs(args)
	count := 0
	for _, v := range flat {
		if e, ok := v.(*ExcelError); ok {
			return e
		}
		if Truthy(v) {
			count++
		}
	}
	return Bool(count%2 == 1)
}

func fnNot(args []Value) Value {
	v := arg(args, 0)
	if e, ok := v.(*ExcelError); ok {
		return e
	}
	return Bool(!Truthy(v))
}

func fnIfError(rawArgs []string, eval func(string) Value, ctx *evalContext) Value {
	if len(rawArgs) == 0 {
		return ErrValue()
	}
	v := eval(rawArgs[0])
	if IsError(v) {
		if len(rawArgs) < 2 {
			return Empty{}
		}
		return eval(rawArgs[1])
	}
	return v
}

func fnIfNA(rawArgs []string, eval func(string) Value, ctx *evalContext) Value {
	if len(rawArgs) == 0 {
		return ErrValue()
	}
	v := eval(rawArgs[0])
	if e, ok := v.(*ExcelError); ok && e.Code == "#N/A" {
		if len(rawArgs) < 2 {
			return Empty{}
		}
		return eval(rawArgs[1])
	}
	return v
}

// fnIfs evaluates (condition, value) pairs in source order, stopping at
// the first truthy condition and evaluating only its paired value.
func fnIfs(rawArgs []string, eval func(string) Value, ctx *evalContext) Value {
	if len(rawArgs)%2 != 0 {
		return ErrValue()
	}
	for i := 0; i+1 < len(rawArgs); i += 2 {
		cond := eval(rawArgs[i])
		if e, ok := cond.(*ExcelError); ok {
			return e
		}
		if Truthy(cond) {
			return eval(rawArgs[i+1])
		}
	}
	return ErrNA()
}
