package calc

import (
	"strings"
)

// maxNamedRangeHops bounds named-range-refers-to-named-range recursion, per
// spec §9's Design Note ("implementations SHOULD detect a bounded
// recursion and yield #NAME? on exceeding, say, 16 hops" — the source
// itself does not support chained named ranges at all).
const maxNamedRangeHops = 16

// evalContext carries the per-evaluate-formula-call state: the engine and
// which sheet is "current" for unqualified refs. The named-range hop
// count is passed to resolveNamedRange as a parameter, not stored here.
// One evalContext is created per top-level formula evaluation by
// Engine.evaluateCell.
type evalContext struct {
	engine *Engine
	sheet  string
}

// Eval is the recursive-descent expression evaluator described in spec
// §4.3, ported from original_source's wolfxl.calc._evaluator._eval_expr
// (the rightmost-operator, paren-aware string dispatch) rather than the
// teacher's token-stream parser (parser.go/lexer.go), since the spec
// mandates this exact dispatch order and associativity.
func (ctx *evalContext) Eval(expr string) Value {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Empty{}
	}

	// 1. rightmost binary/comparison split at paren depth 0, outside strings.
	if left, op, right, ok := findTopLevelSplit(expr); ok {
		leftVal := ctx.Eval(left)
		rightVal := ctx.Eval(right)
		if isComparisonOp(op) {
			return compareValues(leftVal, rightVal, op)
		}
		return binaryOp(leftVal, op, rightVal)
	}

	// 2. a leading '(' whose matching ')' is the last character.
	if strings.HasPrefix(expr, "(") {
		if close := findMatchingParen(expr, 0); close == len(expr)-1 {
			return ctx.Eval(expr[1:close])
		}
	}

	// 3. exact NAME(balanced args) where ')' is the last character.
	if name, argsStr, ok := matchFunctionCall(expr); ok {
		return ctx.evalFunction(strings.ToUpper(name), argsStr)
	}

	// 4. leading unary +/- with no left operand.
	if strings.HasPrefix(expr, "-") {
		v := ctx.Eval(expr[1:])
		if e, isErr := v.(*ExcelError); isErr {
			return e
		}
		if n, ok := v.(Number); ok {
			return Number{F: -n.F, IsInt: n.IsInt}
		}
		return Empty{}
	}
	if strings.HasPrefix(expr, "+") {
		return ctx.Eval(expr[1:])
	}

	// 5. numeric literal.
	if n, ok := ParseNumericLiteral(expr); ok {
		return n
	}

	// 6. double-quoted string literal; doubled "" is an escaped quote.
	if len(expr) >= 2 && expr[0] == '"' && expr[len(expr)-1] == '"' {
		return Text(unescapeStringLiteral(expr[1 : len(expr)-1]))
	}

	// 7. TRUE/FALSE (case-insensitive).
	switch strings.ToUpper(expr) {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}

	// 8. named range, else a plain cell reference.
	if v, ok := ctx.resolveNamedRange(expr, 0); ok {
		return v
	}
	return ctx.resolveCellRef(expr)
}

// unescapeStringLiteral collapses a doubled "" escape sequence that
// survives inside an already-unquoted string body.
func unescapeStringLiteral(body string) string {
	return strings.ReplaceAll(body, `""`, `"`)
}

func (ctx *evalContext) resolveCellRef(expr string) Value {
	ref, err := CanonicalizeCellRef(expr, ctx.sheet)
	if err != nil {
		return Empty{}
	}
	return ctx.engine.getCell(ref)
}

func (ctx *evalContext) resolveRange(expr string) *RangeValue {
	canon, err := CanonicalizeRangeRef(expr, ctx.sheet)
	if err != nil {
		return NewRangeValue(0, 0, nil)
	}
	sheet, rest := splitSheetPrefix(canon)
	parts := strings.SplitN(rest, ":", 2)
	startRow, startCol, _ := ParseA1(parts[0])
	endRow, endCol, _ := ParseA1(parts[1])
	rMin, rMax := minMax(startRow, endRow)
	cMin, cMax := minMax(startCol, endCol)
	nRows, nCols := rMax-rMin+1, cMax-cMin+1

	values := make([]Value, 0, nRows*nCols)
	for r := rMin; r <= rMax; r++ {
		for c := cMin; c <= cMax; c++ {
			values = append(values, ctx.engine.getCell(CanonicalRef(sheet, r, c)))
		}
	}
	return NewRangeValue(nRows, nCols, values)
}

// resolveNamedRange resolves a bare identifier against the named-range
// table, producing a RangeValue for range refers-to strings and a scalar
// for single-cell refers-to strings. hops guards against the refers-to
// string itself naming another named range.
func (ctx *evalContext) resolveNamedRange(name string, hops int) (Value, bool) {
	refersTo, ok := ctx.engine.lookupName(name)
	if !ok {
		return nil, false
	}
	if hops > maxNamedRangeHops {
		return ErrName(), true
	}
	trimmed := strings.TrimSpace(refersTo)
	if hasTopLevelColon(trimmed) {
		return ctx.resolveRange(trimmed), true
	}
	if inner, ok := ctx.resolveNamedRange(strings.ToUpper(trimmed), hops+1); ok {
		return inner, true
	}
	return ctx.resolveCellRef(trimmed), true
}

// resolveArg resolves one already-split function argument string per spec
// §4.3: a range (contains ':' at depth 0, and is not itself a quoted
// string) resolves to a RangeValue; a named range resolves to its
// refers-to value; everything else recurses into Eval.
func (ctx *evalContext) resolveArg(arg string) Value {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Empty{}
	}
	if hasTopLevelColon(arg) && !(len(arg) >= 2 && arg[0] == '"') {
		return ctx.resolveRange(arg)
	}
	if v, ok := ctx.resolveNamedRange(strings.ToUpper(arg), 0); ok {
		return v
	}
	return ctx.Eval(arg)
}

func (ctx *evalContext) evalFunction(name, argsStr string) Value {
	callable, ok := ctx.engine.registry.Get(name)
	if !ok {
		ctx.engine.logger.Debug().Str("function", name).Msg("unsupported function, cannot evaluate")
		return Empty{}
	}

	if callable.Raw {
		rawArgs := splitArgs(argsStr)
		return callable.RawFn(rawArgs, ctx.Eval, ctx)
	}

	rawArgs := splitArgs(argsStr)
	args := make([]Value, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = ctx.resolveArg(a)
	}
	return callable.Fn(args)
}

// --- string-scanning helpers -------------------------------------------------
//
// These mirror the character classes the teacher's lexer.go defines
// (charQuote, charLParen, ...) but operate directly on the formula
// substring rather than producing a token stream, since spec §4.3 is
// specified as a direct recursive-descent-over-the-string dispatch.

const (
	charQuote  = '"'
	charLParen = '('
	charRParen = ')'
	charColon  = ':'
	charComma  = ','
)

// findMatchingParen returns the index of the ')' matching the '(' at
// expr[start], or -1 if unbalanced.
func findMatchingParen(expr string, start int) int {
	depth := 1
	inString := false
	for i := start + 1; i < len(expr); i++ {
		ch := expr[i]
		if ch == charQuote {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case charLParen:
			depth++
		case charRParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchFunctionCall reports whether expr is exactly "NAME(balanced args)"
// with the matching ')' as the very last character.
func matchFunctionCall(expr string) (name, args string, ok bool) {
	stripped := strings.TrimSpace(expr)
	i := 0
	if i >= len(stripped) || !isFuncNameStart(stripped[i]) {
		return "", "", false
	}
	i++
	for i < len(stripped) && isFuncNameRune(stripped[i]) {
		i++
	}
	nameEnd := i
	for i < len(stripped) && stripped[i] == ' ' {
		i++
	}
	if i >= len(stripped) || stripped[i] != charLParen {
		return "", "", false
	}
	openIdx := i
	closeIdx := findMatchingParen(stripped, openIdx)
	if closeIdx < 0 || closeIdx != len(stripped)-1 {
		return "", "", false
	}
	return stripped[:nameEnd], stripped[openIdx+1 : closeIdx], true
}

func isFuncNameStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isFuncNameRune(c byte) bool {
	return isFuncNameStart(c) || (c >= '0' && c <= '9') || c == '_' || c == '.'
}

// hasTopLevelColon reports whether expr contains ':' at paren depth 0 —
// the signal that an argument is a range reference rather than a scalar.
func hasTopLevelColon(expr string) bool {
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case charLParen:
			depth++
		case charRParen:
			depth--
		case charColon:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// splitArgs splits a function-call argument string at top-level commas,
// preserving commas inside parens and inside string literals (including a
// doubled "" escape inside a string literal, which must not toggle the
// in-string state).
func splitArgs(argsStr string) []string {
	if strings.TrimSpace(argsStr) == "" {
		return nil
	}
	var args []string
	depth := 0
	inString := false
	start := 0
	i := 0
	for i < len(argsStr) {
		ch := argsStr[i]
		switch {
		case ch == charQuote:
			if inString && i+1 < len(argsStr) && argsStr[i+1] == charQuote {
				i += 2
				continue
			}
			inString = !inString
		case inString:
			// inside a string literal, everything is literal content
		case ch == charLParen:
			depth++
		case ch == charRParen:
			depth--
		case ch == charComma && depth == 0:
			args = append(args, argsStr[start:i])
			start = i + 1
		}
		i++
	}
	args = append(args, argsStr[start:])
	return args
}

// findTopLevelSplit finds the rightmost lowest-precedence binary operator
// at paren depth 0, outside string literals: comparison, then additive
// (+, -, &), then multiplicative (*, /). A right-to-left scan yields
// left-to-right associativity. Returns ok=false if no operator applies.
func findTopLevelSplit(expr string) (left, op, right string, ok bool) {
	for _, pass := range []string{"cmp", "add", "mul"} {
		if l, o, r, found := scanPass(expr, pass); found {
			return l, o, r, true
		}
	}
	return "", "", "", false
}

func isComparisonOp(op string) bool {
	switch op {
	case ">", "<", ">=", "<=", "=", "<>":
		return true
	default:
		return false
	}
}

func scanPass(expr, pass string) (left, op, right string, ok bool) {
	depth := 0
	inString := false
	for i := len(expr) - 1; i > 0; i-- {
		ch := expr[i]

		if ch == charQuote {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if ch == charRParen {
			depth++
			continue
		}
		if ch == charLParen {
			depth--
			continue
		}
		if depth != 0 {
			continue
		}

		var matched string
		opStart := i

		switch pass {
		case "cmp":
			if i >= 1 && (expr[i-1:i+1] == ">=" || expr[i-1:i+1] == "<=" || expr[i-1:i+1] == "<>") {
				matched = expr[i-1 : i+1]
				opStart = i - 1
			} else if ch == '>' || ch == '<' {
				matched = string(ch)
			} else if ch == '=' && !(i >= 1 && (expr[i-1] == '>' || expr[i-1] == '<' || expr[i-1] == '!')) {
				matched = string(ch)
			}
		case "add":
			if ch == '+' || ch == '-' || ch == '&' {
				matched = string(ch)
			}
		case "mul":
			if ch == '*' || ch == '/' {
				matched = string(ch)
			}
		}

		if matched == "" {
			continue
		}

		if opStart <= 0 {
			continue
		}
		if isUnaryPosition(expr, opStart, matched) {
			continue
		}

		l := strings.TrimSpace(expr[:opStart])
		r := strings.TrimSpace(expr[opStart+len(matched):])
		if l != "" && r != "" {
			return l, matched, r, true
		}
	}
	return "", "", "", false
}

// isUnaryPosition decides whether a +/- at opStart is a unary prefix
// (and therefore not a binary-operator split point) by inspecting the
// nearest non-space preceding character, and by guarding against
// scientific notation ("1e-3").
func isUnaryPosition(expr string, opStart int, op string) bool {
	if op != "+" && op != "-" {
		j := opStart - 1
		for j >= 0 && expr[j] == ' ' {
			j--
		}
		if j < 0 {
			return true
		}
		switch expr[j] {
		case '(', ',', '+', '-', '*', '/', '>', '<', '=', '&':
			return true
		}
		return false
	}

	// scientific notation: "...eN" or "...EN" preceded by a digit means
	// this +/- is part of the exponent, not a binary operator.
	if opStart >= 2 && (expr[opStart-1] == 'e' || expr[opStart-1] == 'E') {
		if d := expr[opStart-2]; d >= '0' && d <= '9' {
			return true
		}
	}

	j := opStart - 1
	for j >= 0 && expr[j] == ' ' {
		j--
	}
	if j < 0 {
		return true
	}
	switch expr[j] {
	case '(', ',', '+', '-', '*', '/', '>', '<', '=', '&':
		return true
	}
	return false
}

func binaryOp(left Value, op string, right Value) Value {
	if e, ok := FirstError(left, right); ok {
		return e
	}
	if op == "&" {
		return Text(ToText(left) + ToText(right))
	}
	lf, lok := numericOperand(left)
	rf, rok := numericOperand(right)
	if !lok || !rok {
		return Empty{}
	}
	switch op {
	case "+":
		return Float(lf + rf)
	case "-":
		return Float(lf - rf)
	case "*":
		return Float(lf * rf)
	case "/":
		if rf == 0 {
			return ErrDiv0()
		}
		return Float(lf / rf)
	}
	return Empty{}
}

// numericOperand accepts Number and Bool (true/false as 1/0) as
// arithmetic operands, matching Excel; strings and ranges are not
// coerced in arithmetic context and instead degrade to Empty.
func numericOperand(v Value) (float64, bool) {
	switch t := v.(type) {
	case Number:
		return t.F, true
	case Bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func compareValues(left, right Value, op string) Value {
	if e, ok := FirstError(left, right); ok {
		return e
	}
	lf, lok := ToNumber(left)
	rf, rok := ToNumber(right)
	if lok && rok {
		return Bool(compareNumbers(lf, rf, op))
	}
	return Bool(compareStrings(strings.ToLower(ToText(left)), strings.ToLower(ToText(right)), op))
}

func compareNumbers(l, r float64, op string) bool {
	switch op {
	case ">":
		return l > r
	case "<":
		return l < r
	case ">=":
		return l >= r
	case "<=":
		return l <= r
	case "=":
		return l == r
	case "<>":
		return l != r
	}
	return false
}

func compareStrings(l, r, op string) bool {
	switch op {
	case ">":
		return l > r
	case "<":
		return l < r
	case ">=":
		return l >= r
	case "<=":
		return l <= r
	case "=":
		return l == r
	case "<>":
		return l != r
	}
	return false
}
