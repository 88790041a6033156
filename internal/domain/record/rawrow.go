package record

// Cell is a single column/value pair of a RawRow.
type Cell struct {
	Column string
	Value  any
}

// RawRow is one spreadsheet row as handed over by the tabular reader: an
// ordered list of column names to untyped scalar values.
type RawRow []Cell

// Get returns the value of the first cell whose column equals name exactly.
func (r RawRow) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Column == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in row order.
func (r RawRow) Columns() []string {
	cols := make([]string, 0, len(r))
	for _, c := range r {
		cols = append(cols, c.Column)
	}
	return cols
}

// RowFromMap builds a RawRow with cells in the order given by columns.
// Columns missing from values get a nil value.
func RowFromMap(columns []string, values map[string]any) RawRow {
	row := make(RawRow, 0, len(columns))
	for _, col := range columns {
		row = append(row, Cell{Column: col, Value: values[col]})
	}
	return row
}
