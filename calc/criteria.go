package calc

import "strings"

// matchesCriteria implements the COUNTIF/SUMIF/AVERAGEIF comparison
// grammar: a bare value means equality; a string prefixed with
// >, <, >=, <=, <> applies that comparison; everything else is a
// case-insensitive equality (or "*"/"?" wildcard, handled by wildcardMatch)
// against the cell's text form. Grounded on original_source's
// wolfxl.calc._criteria module.
func matchesCriteria(cell Value, criteria Value) bool {
	critText := strings.TrimSpace(ToText(criteria))

	if op, rest := splitComparisonOp(critText); op != "" {
		cellNum, cellOk := ToNumber(cell)
		critNum, critOk := ParseNumericLiteral(rest)
		if cellOk && critOk {
			return compareNumbers(cellNum, critNum.F, op)
		}
		return compareStrings(strings.ToLower(ToText(cell)), strings.ToLower(rest), op)
	}

	if n, ok := criteria.(Number); ok {
		cellNum, cellOk := ToNumber(cell)
		return cellOk && cellNum == n.F
	}

	if strings.ContainsAny(critText, "*?") {
		return wildcardMatch(strings.ToLower(ToText(cell)), strings.ToLower(critText))
	}

	return strings.EqualFold(ToText(cell), critText)
}

func splitComparisonOp(s string) (op, rest string) {
	switch {
	case strings.HasPrefix(s, ">="):
		return ">=", strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "<="):
		return "<=", strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "<>"):
		return "<>", strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, ">"):
		return ">", strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "<"):
		return "<", strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "="):
		return "=", strings.TrimSpace(s[1:])
	default:
		return "", s
	}
}

// wildcardMatch matches pattern (with '*' = any run, '?' = any single
// char) against s, both already lowercased.
func wildcardMatch(s, pattern string) bool {
	return wildcardMatchRec(s, pattern)
}

func wildcardMatchRec(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}
	if pattern[0] == '*' {
		if wildcardMatchRec(s, pattern[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if wildcardMatchRec(s[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	}
	if s == "" {
		return false
	}
	if pattern[0] == '?' || pattern[0] == s[0] {
		return wildcardMatchRec(s[1:], pattern[1:])
	}
	return false
}
