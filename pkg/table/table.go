package table

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Row maps column names to cells.
type Row map[string]Value

// Get returns the cell for col, or Null if absent.
func (r Row) Get(col string) Value { return r[col] }

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of rows sharing one column list.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col if it is new and fills it with Null in every row.
func (t *Table) AddColumn(col string) {
	if t.HasColumn(col) {
		return
	}
	t.Columns = append(t.Columns, col)
	for _, r := range t.Rows {
		if _, ok := r[col]; !ok {
			r[col] = Null()
		}
	}
}

// Append adds r. Keys not yet known become new columns in sorted order;
// columns r lacks are filled with Null.
func (t *Table) Append(r Row) {
	var fresh []string
	for k := range r {
		if !t.HasColumn(k) {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		t.AddColumn(k)
	}
	for _, c := range t.Columns {
		if _, ok := r[c]; !ok {
			r[c] = Null()
		}
	}
	t.Rows = append(t.Rows, r)
}

// AppendValues adds a row whose cells follow the column order.
// Missing trailing cells are Null.
func (t *Table) AppendValues(vals ...Value) {
	r := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		if i < len(vals) {
			r[c] = vals[i]
		} else {
			r[c] = Null()
		}
	}
	t.Rows = append(t.Rows, r)
}

// Column returns every cell of col in row order.
func (t *Table) Column(col string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// Numbers returns the numeric cells of col, coercing strings and dropping
// everything that does not parse.
func (t *Table) Numbers(col string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if f, ok := r[col].Numeric(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Strings returns row i's cells as strings in column order.
func (t *Table) Strings(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = t.Rows[i][c].String()
	}
	return out
}

// MarshalJSON encodes the rows as an array of objects whose keys follow the
// column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRow(&buf, t.Columns, r); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// RowJSON encodes one row with keys in column order.
func (t *Table) RowJSON(i int) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRow(&buf, t.Columns, t.Rows[i]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cols []string, r Row) error {
	buf.WriteByte('{')
	for j, c := range cols {
		if j > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := r[c].MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}
