// Package transform reshapes uniform tables before export, statistics or
// charting.
//
// [Apply] runs the requested steps in a fixed order: filter, sort,
// time-series projection, pivot. Each step is also exported on its own.
package transform

import (
	"sort"

	"github.com/matzehuels/statbridge/pkg/table"
)

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// SortKey orders rows by one column.
type SortKey struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// TimeSeries projects rows onto date, value and an optional group.
type TimeSeries struct {
	DateColumn  string `json:"dateColumn"`
	ValueColumn string `json:"valueColumn"`
	GroupColumn string `json:"groupColumn,omitempty"`
}

// Pivot spreads the values of one column across new columns.
type Pivot struct {
	IndexColumn   string `json:"indexColumn"`
	ColumnsColumn string `json:"columnsColumn"`
	ValuesColumn  string `json:"valuesColumn"`
}

// Options selects the steps to run. Zero fields are skipped.
type Options struct {
	Filter       map[string]table.Value `json:"filter,omitempty"`
	Sort         []SortKey              `json:"sort,omitempty"`
	AsTimeSeries *TimeSeries            `json:"asTimeSeries,omitempty"`
	AsPivot      *Pivot                 `json:"asPivot,omitempty"`
}

// IsZero reports whether o requests no step.
func (o Options) IsZero() bool {
	return len(o.Filter) == 0 && len(o.Sort) == 0 && o.AsTimeSeries == nil && o.AsPivot == nil
}

// Apply runs filter → sort → time series → pivot. The input is not modified.
func Apply(t *table.Table, o Options) *table.Table {
	out := t
	if len(o.Filter) > 0 {
		out = Filter(out, o.Filter)
	}
	if len(o.Sort) > 0 {
		out = Sort(out, o.Sort)
	}
	if o.AsTimeSeries != nil {
		out = ToTimeSeries(out, *o.AsTimeSeries)
	}
	if o.AsPivot != nil {
		out = ToPivot(out, *o.AsPivot)
	}
	return out
}

// Filter keeps rows whose cells equal every predicate value. Equality is
// exact: the variant and payload must match.
func Filter(t *table.Table, preds map[string]table.Value) *table.Table {
	out := table.New(t.Columns...)
	for _, r := range t.Rows {
		keep := true
		for col, want := range preds {
			if !r[col].Equal(want) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Sort orders rows by keys, falling through to the next key on ties.
// Rows equal on every key keep their relative order.
func Sort(t *table.Table, keys []SortKey) *table.Table {
	out := table.New(t.Columns...)
	out.Rows = append(out.Rows, t.Rows...)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		for _, k := range keys {
			c := table.Compare(out.Rows[i][k.Column], out.Rows[j][k.Column])
			if c == 0 {
				continue
			}
			if k.Order == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

// ToTimeSeries projects each row to date, value and, when set, group,
// followed by every other column unchanged.
func ToTimeSeries(t *table.Table, ts TimeSeries) *table.Table {
	cols := []string{"date", "value"}
	if ts.GroupColumn != "" {
		cols = append(cols, "group")
	}
	var rest []string
	for _, c := range t.Columns {
		if c == ts.DateColumn || c == ts.ValueColumn || (ts.GroupColumn != "" && c == ts.GroupColumn) {
			continue
		}
		if c == "date" || c == "value" || (ts.GroupColumn != "" && c == "group") {
			continue
		}
		rest = append(rest, c)
	}
	out := table.New(append(cols, rest...)...)
	for _, r := range t.Rows {
		nr := table.Row{"date": r[ts.DateColumn], "value": r[ts.ValueColumn]}
		if ts.GroupColumn != "" {
			nr["group"] = r[ts.GroupColumn]
		}
		for _, c := range rest {
			nr[c] = r[c]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// ToPivot builds one row per distinct index value and one column per
// distinct columns value, both in first-seen order by string form. A cell
// holds the value of the first matching row, or Null.
func ToPivot(t *table.Table, p Pivot) *table.Table {
	type cellKey struct{ index, column string }

	var (
		indexOrder []string
		indexVals  = map[string]table.Value{}
		colOrder   []string
		seenCols   = map[string]bool{}
		cells      = map[cellKey]table.Value{}
	)
	for _, r := range t.Rows {
		iv := r[p.IndexColumn]
		ik := iv.String()
		if _, ok := indexVals[ik]; !ok {
			indexOrder = append(indexOrder, ik)
			indexVals[ik] = iv
		}
		ck := r[p.ColumnsColumn].String()
		if !seenCols[ck] {
			seenCols[ck] = true
			if ck != p.IndexColumn {
				colOrder = append(colOrder, ck)
			}
		}
		key := cellKey{ik, ck}
		if _, ok := cells[key]; !ok {
			cells[key] = r[p.ValuesColumn]
		}
	}

	out := table.New(append([]string{p.IndexColumn}, colOrder...)...)
	for _, ik := range indexOrder {
		nr := table.Row{p.IndexColumn: indexVals[ik]}
		for _, ck := range colOrder {
			nr[ck] = cells[cellKey{ik, ck}]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}
