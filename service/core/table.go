package core

import (
	"slices"
	"time"
)

// Table is a date keyed set of float columns, Values[column][row].
// Tables are treated as immutable once a stage returns them, Head and Tail share storage with the source.
type Table struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

func (t Table) Rows() int {
	return len(t.Dates)
}

// IsEmpty is true for a table without columns, the result of an empty selection
func (t Table) IsEmpty() bool {
	return len(t.Columns) == 0
}

func (t Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

func (t Table) Column(name string) ([]float64, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	return t.Values[idx], true
}

// Row returns the values of every column at row r, in column order
func (t Table) Row(r int) []float64 {
	row := make([]float64, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Values[c][r]
	}
	return row
}

func (t Table) Head(n int) Table {
	return t.slice(0, min(n, t.Rows()))
}

func (t Table) Tail(n int) Table {
	return t.slice(max(t.Rows()-n, 0), t.Rows())
}

func (t Table) slice(from, to int) Table {
	res := Table{
		Dates:   t.Dates[from:to],
		Columns: t.Columns,
		Values:  make([][]float64, len(t.Values)),
	}
	for c, col := range t.Values {
		res.Values[c] = col[from:to]
	}
	return res
}

// emptyLike returns a table with the same columns and no rows
func emptyLike(t Table) Table {
	return Table{
		Dates:   []time.Time{},
		Columns: slices.Clone(t.Columns),
		Values:  make([][]float64, len(t.Columns)),
	}
}
