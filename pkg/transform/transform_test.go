package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/statbridge/pkg/table"
)

func pivotFixture() *table.Table {
	t := table.New("c", "r", "v")
	t.AppendValues(table.String("A"), table.String("x"), table.Number(1))
	t.AppendValues(table.String("A"), table.String("y"), table.Number(2))
	t.AppendValues(table.String("B"), table.String("x"), table.Number(3))
	return t
}

func TestPivot(t *testing.T) {
	out := ToPivot(pivotFixture(), Pivot{IndexColumn: "r", ColumnsColumn: "c", ValuesColumn: "v"})

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"r":"x","A":1,"B":3},{"r":"y","A":2,"B":null}]`, string(b))
	assert.Equal(t, []string{"r", "A", "B"}, out.Columns)
}

func TestPivotDuplicatesTakeFirstMatch(t *testing.T) {
	in := pivotFixture()
	in.AppendValues(table.String("A"), table.String("x"), table.Number(99))

	out := ToPivot(in, Pivot{IndexColumn: "r", ColumnsColumn: "c", ValuesColumn: "v"})
	v, ok := out.Rows[0]["A"].Float()
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestFilterIsExactAndConjunctive(t *testing.T) {
	in := pivotFixture()
	out := Filter(in, map[string]table.Value{"c": table.String("A"), "r": table.String("y")})
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "2", out.Rows[0]["v"].String())

	none := Filter(in, map[string]table.Value{"v": table.String("1")})
	assert.Equal(t, 0, none.Len(), "string predicate must not match a number")

	assert.Equal(t, 3, in.Len(), "input must not be modified")
}

func TestSortMultiKeyStable(t *testing.T) {
	in := table.New("g", "n", "id")
	in.AppendValues(table.String("b"), table.Number(10), table.String("1"))
	in.AppendValues(table.String("a"), table.Number(9), table.String("2"))
	in.AppendValues(table.String("b"), table.Number(2), table.String("3"))
	in.AppendValues(table.String("a"), table.Number(9), table.String("4"))

	out := Sort(in, []SortKey{{Column: "g", Order: Asc}, {Column: "n", Order: Desc}})
	var ids []string
	for _, r := range out.Rows {
		ids = append(ids, r["id"].String())
	}
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids)
}

func TestSortNumericVersusLexicographic(t *testing.T) {
	in := table.New("n")
	in.AppendValues(table.Number(10))
	in.AppendValues(table.Number(9))
	out := Sort(in, []SortKey{{Column: "n"}})
	assert.Equal(t, "9", out.Rows[0]["n"].String())

	in = table.New("n")
	in.AppendValues(table.String("10"))
	in.AppendValues(table.String("9"))
	out = Sort(in, []SortKey{{Column: "n"}})
	assert.Equal(t, "10", out.Rows[0]["n"].String(), "strings compare lexicographically")
}

func TestTimeSeries(t *testing.T) {
	in := table.New("country_code", "year", "value", "indicator_id")
	in.AppendValues(table.String("JPN"), table.String("2020"), table.Number(1), table.String("X"))

	out := ToTimeSeries(in, TimeSeries{DateColumn: "year", ValueColumn: "value", GroupColumn: "country_code"})
	assert.Equal(t, []string{"date", "value", "group", "indicator_id"}, out.Columns)
	assert.Equal(t, "2020", out.Rows[0]["date"].String())
	assert.Equal(t, "JPN", out.Rows[0]["group"].String())
	assert.Equal(t, "X", out.Rows[0]["indicator_id"].String())
}

func TestApplyOrder(t *testing.T) {
	in := table.New("country", "year", "value")
	in.AppendValues(table.String("JP"), table.String("2021"), table.Number(2))
	in.AppendValues(table.String("US"), table.String("2020"), table.Number(5))
	in.AppendValues(table.String("JP"), table.String("2020"), table.Number(1))

	out := Apply(in, Options{
		Filter:  map[string]table.Value{"country": table.String("JP")},
		Sort:    []SortKey{{Column: "year", Order: Asc}},
		AsPivot: &Pivot{IndexColumn: "country", ColumnsColumn: "year", ValuesColumn: "value"},
	})
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"country", "2020", "2021"}, out.Columns)
	assert.True(t, Options{}.IsZero())
}
