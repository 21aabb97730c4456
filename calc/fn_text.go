package calc

import (
	"strconv"
	"strings"
)

// registerTextFuncs wires string builtins, grounded on original_source's
// wolfxl.calc._builtins text group and the SPEC_FULL extension list
// (UPPER/LOWER/SUBSTITUTE/TEXT/REPT/EXACT/FIND).
func registerTextFuncs(r *Registry) {
	r.Register("CONCATENATE", fnConcatenate)
	r.Register("LEN", fnLen)
	r.Register("LEFT", fnLeft)
	r.Register("RIGHT", fnRight)
	r.Register("MID", fnMid)
	r.Register("TRIM", fnTrim)
	r.Register("UPPER", fnUpper)
	r.Register("LOWER", fnLower)
	r.Register("SUBSTITUTE", fnSubstitute)
	r.Register("TEXT", fnText)
	r.Register("REPT", fnRept)
	r.Register("EXACT", fnExact)
	r.Register("FIND", fnFind)
}

func fnConcatenate(args []Value) Value {
	var b strings.Builder
	for _, v := range flattenArgs(args) {
		if e, ok := v.(*ExcelError); ok {
			return e
		}
		b.WriteString(ToText(v))
	}
	return Text(b.String())
}

func fnLen(args []Value) Value {
	v := arg(args, 0)
	if e, ok := v.(*ExcelError); ok {
		return e
	}
	return Int(int64(len([]rune(ToText(v)))))
}

func fnLeft(args []Value) Value {
	s := []rune(ToText(arg(args, 0)))
	n := 1
	if len(args) > 1 {
		if f, ok := ToNumber(args[1]); ok {
			n = int(f)
		}
	}
	if n < 0 {
		return ErrValue()
	}
	if n > len(s) {
		n = len(s)
	}
	return Text(string(s[:n]))
}

func fnRight(args []Value) Value {
	s := []rune(ToText(arg(args, 0)))
	n := 1
	if len(args) > 1 {
		if f, ok := ToNumber(args[1]); ok {
			n = int(f)
		}
	}
	if n < 0 {
		return ErrValue()
	}
	if n > len(s) {
		n = len(s)
	}
	return Text(string(s[len(s)-n:]))
}

func fnMid(args []Value) Value {
	s := []rune(ToText(arg(args, 0)))
	start, sOk := ToNumber(arg(args, 1))
	length, lOk := ToNumber(arg(args, 2))
	if !sOk || !lOk || start < 1 || length < 0 {
		return ErrValue()
	}
	begin := int(start) - 1
	if begin >= len(s) {
		return Text("")
	}
	end := begin + int(length)
	if end > len(s) {
		end = len(s)
	}
	return Text(string(s[begin:end]))
}

func fnTrim(args []Value) Value {
	s := ToText(arg(args, 0))
	fields := strings.Fields(s)
	return Text(strings.Join(fields, " "))
}

func fnUpper(args []Value) Value {
	return Text(strings.ToUpper(ToText(arg(args, 0))))
}

func fnLower(args []Value) Value {
	return Text(strings.ToLower(ToText(arg(args, 0))))
}

// fnSubstitute replaces occurrences of old with new in text; with a
// fourth argument it replaces only that 1-based occurrence.
func fnSubstitute(args []Value) Value {
	text := ToText(arg(args, 0))
	old := ToText(arg(args, 1))
	newText := ToText(arg(args, 2))
	if old == "" {
		return Text(text)
	}
	if len(args) < 4 {
		return Text(strings.ReplaceAll(text, old, newText))
	}
	occurrence, ok := ToNumber(args[3])
	if !ok || occurrence < 1 {
		return ErrValue()
	}
	target := int(occurrence)
	count := 0
	var b strings.Builder
	rest := text
	for {
		idx := strings.Index(rest, old)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		count++
		b.WriteString(rest[:idx])
		if count == target {
			b.WriteString(newText)
		} else {
			b.WriteString(old)
		}
		rest = rest[idx+len(old):]
	}
	return Text(b.String())
}

// fnText formats a number per a small subset of Excel's format codes:
// formats built only from '0', '#', ',' and '.', where the characters
// after '.' set the number of decimal places and a ',' turns on
// thousands grouping. Any other format string (percent, currency,
// dates, ...) falls back to the plain rendering of the value.
func fnText(args []Value) Value {
	v := arg(args, 0)
	format := ToText(arg(args, 1))
	n, ok := ToNumber(v)
	if !ok {
		return Text(ToText(v))
	}
	if format == "" || strings.Trim(format, "#0,.") != "" {
		return Text(ToText(v))
	}

	grouped := strings.Contains(format, ",")
	decimals := strings.Count(strings.TrimPrefix(format, "#,##0"), "0")
	if idx := strings.Index(format, "."); idx >= 0 {
		decimals = len(format) - idx - 1
	} else {
		decimals = 0
	}

	out := formatFixed(n, decimals)
	if grouped {
		out = groupThousands(out)
	}
	return Text(out)
}

func formatFixed(n float64, decimals int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	scaled := roundHalfAwayFromZero(n, decimals)
	s := strconv.FormatFloat(scaled, 'f', decimals, 64)
	if neg {
		s = "-" + s
	}
	return s
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	out := strings.Join(groups, ",")
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func fnRept(args []Value) Value {
	text := ToText(arg(args, 0))
	n, ok := ToNumber(arg(args, 1))
	if !ok || n < 0 {
		return ErrValue()
	}
	return Text(strings.Repeat(text, int(n)))
}

func fnExact(args []Value) Value {
	return Bool(ToText(arg(args, 0)) == ToText(arg(args, 1)))
}

func fnFind(args []Value) Value {
	needle := ToText(arg(args, 0))
	haystack := ToText(arg(args, 1))
	start := 1
	if len(args) > 2 {
		if f, ok := ToNumber(args[2]); ok {
			start = int(f)
		}
	}
	if start < 1 || start > len(haystack)+1 {
		return ErrValue()
	}
	idx := strings.Index(haystack[start-1:], needle)
	if idx < 0 {
		return ErrValue()
	}
	return Int(int64(start + idx))
}
