// Package stats computes descriptive statistics over numeric columns.
//
// [Calculate] always reports count and sum, plus each requested [Kind].
// Over zero values every requested kind is NaN, which encodes as JSON null.
// Variance and standard deviation are population statistics (divide by N).
// Quartiles split the sorted values into halves around the median, leaving
// the midpoint out when N is odd; with a single value q1 and q3 equal it.
// The mode is the most frequent value, ties going to the smallest.
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"github.com/matzehuels/statbridge/pkg/table"
)

// Kind names one statistic.
type Kind string

const (
	Mean     Kind = "mean"
	Median   Kind = "median"
	Mode     Kind = "mode"
	Std      Kind = "std"
	Variance Kind = "variance"
	Min      Kind = "min"
	Max      Kind = "max"
	Range    Kind = "range"
	Q1       Kind = "q1"
	Q3       Kind = "q3"
	IQR      Kind = "iqr"
)

// Kinds lists every statistic in output order.
var Kinds = []Kind{Mean, Median, Mode, Std, Variance, Min, Max, Range, Q1, Q3, IQR}

// ParseKind resolves a statistic name.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Result holds count, sum and the requested statistics.
type Result struct {
	Count  int
	Sum    float64
	Values map[Kind]float64
}

// Get returns the value of k and whether it was requested.
func (r Result) Get(k Kind) (float64, bool) {
	v, ok := r.Values[k]
	return v, ok
}

// MarshalJSON writes count, sum and the requested kinds in canonical order.
// NaN and infinities encode as null.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	r.writeFields(&buf)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Result) writeFields(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `"count":%d,"sum":%s`, r.Count, number(r.Sum))
	for _, k := range Kinds {
		if v, ok := r.Values[k]; ok {
			fmt.Fprintf(buf, `,%q:%s`, k, number(v))
		}
	}
}

func number(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Calculate computes count, sum and each requested kind over values.
func Calculate(values []float64, kinds []Kind) Result {
	res := Result{Count: len(values), Values: make(map[Kind]float64, len(kinds))}
	if len(values) == 0 {
		for _, k := range kinds {
			res.Values[k] = math.NaN()
		}
		return res
	}

	data := mstats.Float64Data(values)
	res.Sum, _ = mstats.Sum(data)

	var quartiles *mstats.Quartiles
	quart := func() mstats.Quartiles {
		if quartiles == nil {
			q := quartilesOf(data)
			quartiles = &q
		}
		return *quartiles
	}

	for _, k := range kinds {
		var v float64
		switch k {
		case Mean:
			v, _ = mstats.Mean(data)
		case Median:
			v, _ = mstats.Median(data)
		case Mode:
			v = mode(values)
		case Std:
			v, _ = mstats.StandardDeviationPopulation(data)
		case Variance:
			v, _ = mstats.PopulationVariance(data)
		case Min:
			v, _ = mstats.Min(data)
		case Max:
			v, _ = mstats.Max(data)
		case Range:
			lo, _ := mstats.Min(data)
			hi, _ := mstats.Max(data)
			v = hi - lo
		case Q1:
			v = quart().Q1
		case Q3:
			v = quart().Q3
		case IQR:
			q := quart()
			v = q.Q3 - q.Q1
		default:
			v = math.NaN()
		}
		res.Values[k] = v
	}
	return res
}

// quartilesOf splits around the median; a single value is its own q1 and q3.
func quartilesOf(data mstats.Float64Data) mstats.Quartiles {
	if len(data) == 1 {
		return mstats.Quartiles{Q1: data[0], Q2: data[0], Q3: data[0]}
	}
	q, err := mstats.Quartile(data)
	if err != nil {
		return mstats.Quartiles{Q1: math.NaN(), Q2: math.NaN(), Q3: math.NaN()}
	}
	return q
}

// mode returns the most frequent value, preferring the smallest on ties.
func mode(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

// Group is the result for one group key.
type Group struct {
	Column string
	Key    string
	Result
}

// MarshalJSON writes the group column and key followed by the result fields.
func (g Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	col, err := json.Marshal(g.Column)
	if err != nil {
		return nil, err
	}
	key, err := json.Marshal(g.Key)
	if err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	buf.Write(col)
	buf.WriteByte(':')
	buf.Write(key)
	buf.WriteByte(',')
	g.writeFields(&buf)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CalculateGrouped partitions t by the string form of groupBy, coerces
// valueColumn to numbers dropping non-numeric cells, and computes the
// statistics per group. Groups appear in first-seen order; rows without a
// numeric value do not create a group.
func CalculateGrouped(t *table.Table, groupBy, valueColumn string, kinds []Kind) []Group {
	var order []string
	values := map[string][]float64{}
	for _, r := range t.Rows {
		v, ok := r[valueColumn].Numeric()
		if !ok {
			continue
		}
		key := r[groupBy].Key()
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], v)
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		out = append(out, Group{Column: groupBy, Key: key, Result: Calculate(values[key], kinds)})
	}
	return out
}
