package normalize

import (
	"sort"

	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
	"github.com/matzehuels/statbridge/pkg/table"
)

// Column names shared by the normalized tables.
const (
	ColIndex         = "index"
	ColValue         = "value"
	ColCountryCode   = "country_code"
	ColCountryName   = "country_name"
	ColYear          = "year"
	ColIndicatorID   = "indicator_id"
	ColIndicatorName = "indicator_name"
)

// ParseValue parses upstream numeric text. See [table.ParseValue].
func ParseValue(s string) table.Value { return table.ParseValue(s) }

// Indicators builds one row per point with a value; points whose value is
// null are dropped.
func Indicators(points []worldbank.Point) *table.Table {
	t := table.New(ColCountryCode, ColCountryName, ColYear, ColValue, ColIndicatorID, ColIndicatorName)
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		name := p.CountryName
		if name == "" {
			name = p.CountryCode
		}
		t.AppendValues(
			table.String(p.CountryCode),
			table.String(name),
			table.String(p.Date),
			table.Number(*p.Value),
			table.String(p.IndicatorID),
			table.String(p.IndicatorName),
		)
	}
	return t
}

// StatsData builds one row per observation, tagged with its position.
// Category columns appear only when some observation carries them; each is
// followed by its resolved label.
func StatsData(d *estat.StatsData) *table.Table {
	cats := d.CategoryMap()
	var present []string
	for _, id := range estat.CategoryIDs {
		for _, o := range d.Observations {
			if o.Category(id) != "" {
				present = append(present, id)
				break
			}
		}
	}

	cols := []string{ColIndex, "tab"}
	for _, id := range present {
		cols = append(cols, id, id+"_label")
	}
	cols = append(cols, "area", "area_label", "time", "time_label", "unit", ColValue)
	t := table.New(cols...)

	for i, o := range d.Observations {
		r := table.Row{
			ColIndex:     table.Number(float64(i)),
			"tab":        code(o.Tab),
			"area":       code(o.Area),
			"area_label": label(cats, "area", o.Area),
			"time":       code(o.Time),
			"time_label": label(cats, "time", o.Time),
			"unit":       code(o.Unit),
			ColValue:     o.Value,
		}
		for _, id := range present {
			c := o.Category(id)
			r[id] = code(c)
			r[id+"_label"] = label(cats, id, c)
		}
		t.Append(r)
	}
	return t
}

func code(s string) table.Value {
	if s == "" {
		return table.Null()
	}
	return table.String(s)
}

func label(m estat.CategoryMap, class, c string) table.Value {
	if c == "" {
		return table.Null()
	}
	return table.String(m.Label(class, c))
}

// Tables lists e-Stat search results as rows.
func Tables(infos []estat.TableInfo) *table.Table {
	t := table.New("id", "title", "stat_name", "gov_org", "survey_date", "open_date")
	for _, in := range infos {
		t.AppendValues(
			table.String(in.ID),
			table.String(in.Title),
			table.String(in.StatName),
			table.String(in.GovOrg),
			table.String(in.SurveyDate),
			table.String(in.OpenDate),
		)
	}
	return t
}

// IndicatorCatalog lists World Bank indicator search results as rows.
func IndicatorCatalog(infos []worldbank.IndicatorInfo) *table.Table {
	t := table.New("id", "name", "source_organization")
	for _, in := range infos {
		t.AppendValues(table.String(in.ID), table.String(in.Name), table.String(in.SourceOrganization))
	}
	return t
}

// Category is the total of one classification code.
type Category struct {
	Code  string  `json:"code"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Breakdown holds per-code totals for one classification, in first-seen
// order.
type Breakdown struct {
	Class      string     `json:"class"`
	Name       string     `json:"name,omitempty"`
	Categories []Category `json:"categories"`
}

// ByTotal returns the categories ordered by descending total; ties keep
// first-seen order.
func (b Breakdown) ByTotal() []Category {
	out := append([]Category(nil), b.Categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Summary aggregates the observations of an e-Stat table.
type Summary struct {
	Total      float64     `json:"total"`
	Counted    int         `json:"counted"`
	Skipped    int         `json:"skipped"`
	Breakdowns []Breakdown `json:"breakdowns"`
}

// Summarize totals every observation with a value, overall and per
// category classification. Suppressed cells are counted as skipped.
func Summarize(d *estat.StatsData) Summary {
	cats := d.CategoryMap()
	names := make(map[string]string, len(d.Classes))
	for _, c := range d.Classes {
		names[c.ID] = c.Name
	}

	type acc struct {
		order []string
		sums  map[string]float64
	}
	per := make(map[string]*acc, len(estat.CategoryIDs))
	var s Summary
	for _, o := range d.Observations {
		v, ok := o.Value.Float()
		if !ok {
			s.Skipped++
			continue
		}
		s.Total += v
		s.Counted++
		for _, id := range estat.CategoryIDs {
			c := o.Category(id)
			if c == "" {
				continue
			}
			a := per[id]
			if a == nil {
				a = &acc{sums: map[string]float64{}}
				per[id] = a
			}
			if _, seen := a.sums[c]; !seen {
				a.order = append(a.order, c)
			}
			a.sums[c] += v
		}
	}

	for _, id := range estat.CategoryIDs {
		a := per[id]
		if a == nil {
			continue
		}
		b := Breakdown{Class: id, Name: names[id]}
		for _, c := range a.order {
			b.Categories = append(b.Categories, Category{Code: c, Label: cats.Label(id, c), Total: a.sums[c]})
		}
		s.Breakdowns = append(s.Breakdowns, b)
	}
	return s
}
