package normalize

import (
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/table"
)

// ColStatus holds JSON-stat status flags.
const ColStatus = "status"

// JSONStat expands a dataset into rows over the row-major product of its
// dimension categories. Cells with neither a value nor a status are
// skipped. Each dimension contributes a column holding the category label,
// plus an "<id>_code" column when labels and ids differ.
func JSONStat(ds *eurostat.Dataset) *table.Table {
	dims := make([]eurostat.Dimension, len(ds.ID))
	cols := make([]string, 0, len(ds.ID)*2+2)
	withCode := make([]bool, len(ds.ID))
	for i, id := range ds.ID {
		dims[i] = ds.Dimensions[id]
		cols = append(cols, id)
		for _, c := range dims[i].Categories {
			if c.Label != c.ID {
				withCode[i] = true
				break
			}
		}
		if withCode[i] {
			cols = append(cols, id+"_code")
		}
	}
	cols = append(cols, ColValue)
	hasStatus := len(ds.Status) > 0
	if hasStatus {
		cols = append(cols, ColStatus)
	}
	t := table.New(cols...)

	n := ds.Len()
	for pos := 0; pos < n; pos++ {
		v, hasValue := ds.Values[pos]
		status := ds.StatusAt(pos)
		if !hasValue && status == "" {
			continue
		}
		r := table.Row{}
		for i, ci := range ds.Coords(pos) {
			if i >= len(ds.ID) {
				break
			}
			id := ds.ID[i]
			cats := dims[i].Categories
			if ci < 0 || ci >= len(cats) {
				r[id] = table.Null()
				continue
			}
			r[id] = table.String(cats[ci].Label)
			if withCode[i] {
				r[id+"_code"] = table.String(cats[ci].ID)
			}
		}
		if hasValue {
			r[ColValue] = table.Number(v)
		} else {
			r[ColValue] = table.Null()
		}
		if hasStatus {
			r[ColStatus] = code(status)
		}
		t.Append(r)
	}
	return t
}
