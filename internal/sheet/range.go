package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxColumn is the widest grid the hosted spreadsheet backend accepts (column ZZZ).
const MaxColumn = 18278

// Range selects a rectangle of a table. Rows and columns are 1-based and inclusive;
// zero leaves that side open.
type Range struct {
	Table   string
	FromRow int
	ToRow   int
	FromCol int
	ToCol   int
}

// Row selects row n, columns 1 through width.
func Row(table string, n, width int) Range {
	return Range{Table: table, FromRow: n, ToRow: n, FromCol: 1, ToCol: width}
}

// Rows selects every row from row `from` downwards, columns 1 through width.
func Rows(table string, from, width int) Range {
	return Range{Table: table, FromRow: from, FromCol: 1, ToCol: width}
}

func (r Range) IsWholeTable() bool {
	return r.FromRow == 0 && r.ToRow == 0 && r.FromCol == 0 && r.ToCol == 0
}

// Contains reports whether the 1-based cell (row, col) falls inside r.
func (r Range) Contains(row, col int) bool {
	if r.FromRow > 0 && row < r.FromRow {
		return false
	}
	if r.ToRow > 0 && row > r.ToRow {
		return false
	}
	if r.FromCol > 0 && col < r.FromCol {
		return false
	}
	if r.ToCol > 0 && col > r.ToCol {
		return false
	}
	return true
}

// A1 renders r in spreadsheet A1 notation, e.g. 'Escuela 1'!A2:J.
func (r Range) A1() string {
	name := QuoteTable(r.Table)
	if r.IsWholeTable() {
		return name
	}

	fromCol := r.FromCol
	if fromCol == 0 {
		fromCol = 1
	}
	toCol := r.ToCol
	if toCol == 0 {
		toCol = MaxColumn
	}

	start := ColumnName(fromCol)
	if r.FromRow > 0 {
		start += strconv.Itoa(r.FromRow)
	}
	end := ColumnName(toCol)
	if r.ToRow > 0 {
		end += strconv.Itoa(r.ToRow)
	}
	return name + "!" + start + ":" + end
}

func (r Range) String() string {
	return r.A1()
}

// QuoteTable wraps a table name in single quotes, doubling embedded quotes.
func QuoteTable(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnName converts a 1-based column number to letters: 1 → A, 27 → AA.
func ColumnName(n int) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ParseRowNumber extracts the first row number of an A1 range such as
// 'logs'!A17:F17 or Sheet1!B4.
func ParseRowNumber(a1 string) (int, error) {
	ref := a1
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$")
	digits = strings.TrimPrefix(digits, "$")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("sheet: no row number in range %q", a1)
	}
	return n, nil
}
