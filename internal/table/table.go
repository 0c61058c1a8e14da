package table

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned when a referenced column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNotNumeric is returned when a column holds non-numeric values where numbers are required.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrDuplicateColumn is returned when a table would contain the same column twice.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is an ordered set of rows over named columns. Any cell may be null.
// Transformations return new tables and never modify the receiver.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// Row is a read-only view of one table row.
type Row struct {
	t    *Table
	vals []Value
}

// Get returns the cell in the named column, or null when the column is unknown.
func (r Row) Get(name string) Value {
	if i, ok := r.t.index[name]; ok {
		return r.vals[i]
	}
	return Null()
}

// At returns the cell at column position i.
func (r Row) At(i int) Value { return r.vals[i] }

// Values returns a copy of the row cells in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.vals))
	copy(out, r.vals)
	return out
}

// NonNull counts the non-null cells in the row.
func (r Row) NonNull() int {
	n := 0
	for _, v := range r.vals {
		if !v.IsNull() {
			n++
		}
	}
	return n
}

// New creates an empty table with the given columns.
func New(columns ...string) (*Table, error) {
	t := &Table{cols: make([]string, len(columns)), index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.cols[i] = c
		t.index[c] = i
	}
	return t, nil
}

// MustNew is like New but panics on duplicate columns. Intended for fixtures.
func MustNew(columns ...string) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// AppendRow adds a row. The number of values must match the column count.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.cols))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) Len() int   { return len(t.rows) }
func (t *Table) Width() int { return len(t.cols) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return len(t.rows), len(t.cols) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return Row{t: t, vals: t.rows[i]} }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex resolves a column name to its position.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return i, nil
}

// Column returns a copy of all cells in the named column.
func (t *Table) Column(name string) ([]Value, error) {
	j, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Floats returns the non-null numeric values of a column in row order.
// A non-null cell that is not a number yields ErrNotNumeric.
func (t *Table) Floats(name string) ([]float64, error) {
	j, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(t.rows))
	for i, row := range t.rows {
		v := row[j]
		if v.IsNull() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %q has %s value %q at row %d", ErrNotNumeric, name, v.Kind(), v.String(), i)
		}
		out = append(out, f)
	}
	return out, nil
}

// NonNullCount counts non-null cells in the named column.
func (t *Table) NonNullCount(name string) (int, error) {
	j, err := t.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range t.rows {
		if !row[j].IsNull() {
			n++
		}
	}
	return n, nil
}

// NumericColumns lists columns that hold at least one value and only numbers.
func (t *Table) NumericColumns() []string {
	var out []string
	for j, name := range t.cols {
		seen := false
		numeric := true
		for _, row := range t.rows {
			v := row[j]
			if v.IsNull() {
				continue
			}
			seen = true
			if !v.IsNumber() {
				numeric = false
				break
			}
		}
		if seen && numeric {
			out = append(out, name)
		}
	}
	return out
}

// Filter returns the rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := t.emptyLike()
	for _, row := range t.rows {
		if keep(Row{t: t, vals: row}) {
			out.rows = append(out.rows, cloneRow(row))
		}
	}
	return out
}

// Take returns the rows at the given positions, in the given order.
func (t *Table) Take(indices []int) *Table {
	out := t.emptyLike()
	out.rows = make([][]Value, 0, len(indices))
	for _, i := range indices {
		out.rows = append(out.rows, cloneRow(t.rows[i]))
	}
	return out
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Take(idx)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := t.emptyLike()
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = cloneRow(row)
	}
	return out
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	pos := make([]int, len(names))
	for i, n := range names {
		j, err := t.ColumnIndex(n)
		if err != nil {
			return nil, err
		}
		pos[i] = j
	}
	out, err := New(names...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		nr := make([]Value, len(pos))
		for k, j := range pos {
			nr[k] = row[j]
		}
		out.rows[i] = nr
	}
	return out, nil
}

// Drop returns a table without the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, err := t.ColumnIndex(n); err != nil {
			return nil, err
		}
		drop[n] = struct{}{}
	}
	keep := make([]string, 0, len(t.cols))
	for _, c := range t.cols {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

// SetColumn returns a table with the named column replaced, or appended when
// it does not exist yet. len(values) must equal the row count.
func (t *Table) SetColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	out := t.Clone()
	j, ok := out.index[name]
	if !ok {
		j = len(out.cols)
		out.cols = append(out.cols, name)
		out.index[name] = j
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], Null())
		}
	}
	for i := range out.rows {
		out.rows[i][j] = values[i]
	}
	return out, nil
}

func (t *Table) emptyLike() *Table {
	out := &Table{cols: t.Columns(), index: make(map[string]int, len(t.cols))}
	for i, c := range out.cols {
		out.index[c] = i
	}
	return out
}

func cloneRow(row []Value) []Value {
	out := make([]Value, len(row))
	copy(out, row)
	return out
}
