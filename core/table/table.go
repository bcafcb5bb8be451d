// Package table provides EventTable, an ordered set of events with named
// float64 columns. Columns are stored as separate slices; Dense exports the
// table as a row-major gonum matrix for serialization.
//
// Missing values are NaN in memory. Row order is preserved by every
// operation because fold assignment depends on it.
package table

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// EventTable is a rows × columns table of float64 values with unique
// column names.
type EventTable struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// New creates an empty table with the given number of rows.
func New(rows int) *EventTable {
	return &EventTable{
		index: make(map[string]int),
		rows:  rows,
	}
}

// FromColumns builds a table from named columns. All columns must have the
// same length. The slices are used directly, not copied.
func FromColumns(names []string, cols [][]float64) (*EventTable, error) {
	if len(names) != len(cols) {
		return nil, errors.NewDimensionError("table.FromColumns", len(names), len(cols), 1)
	}
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0])
	}
	t := New(rows)
	for i, name := range names {
		if err := t.Set(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Dims returns the number of rows and columns.
func (t *EventTable) Dims() (int, int) {
	return t.rows, len(t.names)
}

// Len returns the number of rows.
func (t *EventTable) Len() int {
	return t.rows
}

// Names returns a copy of the column names in order.
func (t *EventTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the table has a column called name.
func (t *EventTable) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the column called name. The returned slice aliases the table.
func (t *EventTable) Col(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, errors.NewMissingColumnError("EventTable.Col", name)
	}
	return t.cols[j], nil
}

// MustCol is Col for callers that have already validated the schema.
func (t *EventTable) MustCol(name string) []float64 {
	c, err := t.Col(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Set adds a column, or replaces an existing column of the same name in
// place.
func (t *EventTable) Set(name string, values []float64) error {
	if len(t.names) > 0 || t.rows > 0 {
		if len(values) != t.rows {
			return errors.NewDimensionError("EventTable.Set", t.rows, len(values), 0)
		}
	} else {
		t.rows = len(values)
	}
	if j, ok := t.index[name]; ok {
		t.cols[j] = values
		return nil
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, values)
	return nil
}

// Drop removes the named columns. Names that are not present are ignored.
func (t *EventTable) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	t.Keep(func(name string) bool { return !drop[name] })
}

// Keep retains only the columns for which keep returns true.
func (t *EventTable) Keep(keep func(name string) bool) {
	names := t.names[:0:0]
	cols := t.cols[:0:0]
	for j, n := range t.names {
		if keep(n) {
			names = append(names, n)
			cols = append(cols, t.cols[j])
		}
	}
	t.names = names
	t.cols = cols
	t.reindex()
}

func (t *EventTable) reindex() {
	t.index = make(map[string]int, len(t.names))
	for j, n := range t.names {
		t.index[n] = j
	}
}

// Clone returns a deep copy.
func (t *EventTable) Clone() *EventTable {
	out := New(t.rows)
	for j, n := range t.names {
		c := make([]float64, t.rows)
		copy(c, t.cols[j])
		_ = out.Set(n, c)
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *EventTable) Filter(keep func(row int) bool) *EventTable {
	idx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out, _ := t.Rows(idx)
	return out
}

// Rows returns a new table containing the given rows in the given order.
func (t *EventTable) Rows(idx []int) (out *EventTable, err error) {
	defer errors.Recover(&err, "EventTable.Rows")

	out = New(len(idx))
	for j, n := range t.names {
		src := t.cols[j]
		c := make([]float64, len(idx))
		for k, i := range idx {
			c[k] = src[i]
		}
		if err := out.Set(n, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Concat appends the rows of other below t. Both tables must have the same
// columns in the same order.
func Concat(a, b *EventTable) (*EventTable, error) {
	_, ca := a.Dims()
	_, cb := b.Dims()
	if ca != cb {
		return nil, errors.NewDimensionError("table.Concat", ca, cb, 1)
	}
	out := New(a.rows + b.rows)
	for j, n := range a.names {
		if b.names[j] != n {
			return nil, errors.NewMissingColumnError("table.Concat", n)
		}
		c := make([]float64, 0, a.rows+b.rows)
		c = append(c, a.cols[j]...)
		c = append(c, b.cols[j]...)
		if err := out.Set(n, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Fill replaces every missing value (NaN or ±Inf) with v.
func (t *EventTable) Fill(v float64) {
	for _, c := range t.cols {
		for i, x := range c {
			c[i] = errors.ToSentinel(x, v)
		}
	}
}

// Dense returns the table as a row-major gonum matrix.
func (t *EventTable) Dense() *mat.Dense {
	r, c := t.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(r, c, nil)
	for j, col := range t.cols {
		m.SetCol(j, col)
	}
	return m
}
