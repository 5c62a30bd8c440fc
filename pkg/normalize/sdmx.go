package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/statbridge/pkg/integrations/oecd"
	"github.com/matzehuels/statbridge/pkg/table"
)

// SDMX flattens every observation of every data set into one row. Each
// dimension contributes a column holding the value's name, plus an
// "<id>_code" column when names and ids differ. Null observations are kept
// as rows with a Null value.
func SDMX(msg *oecd.Message) *table.Table {
	seriesDims := msg.Structure.Dimensions.Series
	obsDims := msg.Structure.Dimensions.Observation
	all := append(append([]oecd.Dimension(nil), seriesDims...), obsDims...)

	codes := map[string]bool{}
	cols := make([]string, 0, len(all)*2+1)
	for _, d := range all {
		cols = append(cols, d.Label())
		for _, v := range d.Values {
			if n := string(v.Name); n != "" && n != v.ID {
				codes[d.Label()] = true
				cols = append(cols, d.Label()+"_code")
				break
			}
		}
	}
	t := table.New(append(cols, ColValue)...)

	for _, ds := range msg.DataSets {
		for _, sk := range sortedKeys(ds.Series) {
			prefix := keyIndexes(sk)
			series := ds.Series[sk]
			for _, obsKey := range sortedKeys(series.Observations) {
				idx := append(append([]int(nil), prefix...), keyIndexes(obsKey)...)
				t.Append(sdmxRow(all, codes, idx, series.Observations[obsKey]))
			}
		}
		for _, obsKey := range sortedKeys(ds.Observations) {
			t.Append(sdmxRow(obsDims, codes, keyIndexes(obsKey), ds.Observations[obsKey]))
		}
	}
	return t
}

func sdmxRow(dims []oecd.Dimension, codes map[string]bool, idx []int, obs oecd.Observation) table.Row {
	r := table.Row{}
	for i, d := range dims {
		if i >= len(idx) {
			break
		}
		id, name, ok := d.ValueAt(idx[i])
		if !ok {
			r[d.Label()] = table.String(strconv.Itoa(idx[i]))
			continue
		}
		r[d.Label()] = table.String(name)
		if codes[d.Label()] {
			r[d.Label()+"_code"] = table.String(id)
		}
	}
	if v, ok := obs.Value(); ok {
		r[ColValue] = table.Number(v)
	} else {
		r[ColValue] = table.Null()
	}
	return r
}

// keyIndexes parses "0:3:1" into [0 3 1]. Empty segments are -1.
func keyIndexes(key string) []int {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, ":")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = -1
		}
		out[i] = n
	}
	return out
}

// sortedKeys orders SDMX keys by their numeric components.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keyIndexes(keys[i]), keyIndexes(keys[j])
		for n := 0; n < len(a) && n < len(b); n++ {
			if a[n] != b[n] {
				return a[n] < b[n]
			}
		}
		return len(a) < len(b)
	})
	return keys
}
