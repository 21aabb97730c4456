// Package calc implements the deterministic spreadsheet formula evaluation
// engine: reference parsing, a recursive-descent expression evaluator, a
// ~70-function builtin registry, a dependency graph, and the workbook-level
// load/calculate/recalculate orchestration.
package calc

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidReferenceError is raised when a string that is supposed to be a
// cell reference does not match the canonical reference grammar.
type InvalidReferenceError struct {
	Text string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference: %q", e.Text)
}

// ColumnLetter converts a 1-based column number to its base-26 letter
// representation: 1 -> "A", 26 -> "Z", 27 -> "AA", ...
func ColumnLetter(n int) string {
	if n <= 0 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// ColumnIndex converts a column letter string ("A", "AA", ...) to its
// 1-based column number. The input must already be uppercase letters only.
func ColumnIndex(s string) (int, error) {
	if s == "" {
		return 0, &InvalidReferenceError{Text: s}
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return 0, &InvalidReferenceError{Text: s}
		}
		n = n*26 + int(c-'A'+1)
	}
	return n, nil
}

// ParseA1 parses an unqualified reference like "A1" or "XFD1048576" into
// 1-based (row, col). It fails with InvalidReferenceError if text is not
// [A-Z]+[0-9]+.
func ParseA1(text string) (row, col int, err error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	i := 0
	for i < len(text) && text[i] >= 'A' && text[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(text) {
		return 0, 0, &InvalidReferenceError{Text: text}
	}
	letters, digits := text[:i], text[i:]
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return 0, 0, &InvalidReferenceError{Text: text}
		}
	}
	rowNum, convErr := strconv.Atoi(digits)
	if convErr != nil || rowNum <= 0 {
		return 0, 0, &InvalidReferenceError{Text: text}
	}
	colNum, colErr := ColumnIndex(letters)
	if colErr != nil {
		return 0, 0, &InvalidReferenceError{Text: text}
	}
	return rowNum, colNum, nil
}

// RowColToA1 formats a 1-based (row, col) pair as an unqualified A1 string.
func RowColToA1(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// stripDollars removes the informational absolute-reference '$' markers
// from either axis of a reference token.
func stripDollars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return strings.ReplaceAll(s, "$", "")
}

// splitSheetPrefix splits "Sheet!A1" (or "'My Sheet'!A1") into the sheet
// name (quotes stripped) and the remainder. When there is no "!" it returns
// ("", text) so the caller can substitute a default sheet.
func splitSheetPrefix(text string) (sheet, rest string) {
	idx := strings.LastIndex(text, "!")
	if idx < 0 {
		return "", text
	}
	sheet = strings.Trim(strings.TrimSpace(text[:idx]), "'")
	rest = text[idx+1:]
	return sheet, rest
}

// CanonicalRef builds the canonical "Sheet!A1" form from parts.
func CanonicalRef(sheet string, row, col int) string {
	return sheet + "!" + RowColToA1(row, col)
}

// CanonicalizeCellRef normalizes a raw reference token (with or without a
// sheet prefix, optional quotes, optional '$' markers) into canonical
// "Sheet!A1" form, substituting defaultSheet when no sheet prefix is
// present. It fails with InvalidReferenceError when the cell portion isn't
// a valid A1 address.
func CanonicalizeCellRef(raw string, defaultSheet string) (string, error) {
	sheet, rest := splitSheetPrefix(strings.TrimSpace(raw))
	if sheet == "" {
		sheet = defaultSheet
	}
	rest = stripDollars(rest)
	row, col, err := ParseA1(rest)
	if err != nil {
		return "", err
	}
	return CanonicalRef(sheet, row, col), nil
}

// CanonicalizeRangeRef normalizes a raw range token ("A1:B5",
// "Sheet!A1:B5", with optional '$' markers) into canonical
// "Sheet!A1:B5" form (start/end are NOT min/max normalized here; see
// ExpandRange for that).
func CanonicalizeRangeRef(raw string, defaultSheet string) (string, error) {
	sheet, rest := splitSheetPrefix(strings.TrimSpace(raw))
	if sheet == "" {
		sheet = defaultSheet
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return "", &InvalidReferenceError{Text: raw}
	}
	startRow, startCol, err := ParseA1(stripDollars(parts[0]))
	if err != nil {
		return "", err
	}
	endRow, endCol, err := ParseA1(stripDollars(parts[1]))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", sheet, RowColToA1(startRow, startCol), RowColToA1(endRow, endCol)), nil
}

// SheetOfRef extracts the sheet name from a canonical "Sheet!A1" reference.
func SheetOfRef(ref string) string {
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		return ref[:idx]
	}
	return ref
}
