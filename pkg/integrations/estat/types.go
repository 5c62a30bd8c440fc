package estat

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/table"
)

// Result statuses reported in RESULT.STATUS.
const (
	StatusOK      = 0
	StatusNoData  = 1
	StatusPartial = 2
	StatusError   = 100
)

// TableInfo describes one statistics table returned by a search.
type TableInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StatName    string `json:"statName,omitempty"`
	GovOrg      string `json:"govOrg,omitempty"`
	SurveyDate  string `json:"surveyDate,omitempty"`
	OpenDate    string `json:"openDate,omitempty"`
	TotalNumber int    `json:"totalNumber,omitempty"`
}

// ClassItem is one code within a classification.
type ClassItem struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Level      string `json:"level,omitempty"`
	Unit       string `json:"unit,omitempty"`
	ParentCode string `json:"parentCode,omitempty"`
}

// ClassObj is one classification axis (tab, cat01..cat15, area, time).
type ClassObj struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Items []ClassItem `json:"items"`
}

// Observation is one cell of a statistics table.
type Observation struct {
	Tab   string      `json:"tab,omitempty"`
	Cat01 string      `json:"cat01,omitempty"`
	Cat02 string      `json:"cat02,omitempty"`
	Cat03 string      `json:"cat03,omitempty"`
	Cat04 string      `json:"cat04,omitempty"`
	Area  string      `json:"area,omitempty"`
	Time  string      `json:"time,omitempty"`
	Unit  string      `json:"unit,omitempty"`
	Raw   string      `json:"raw"`
	Value table.Value `json:"value"`
}

// Category returns the code for the classification id ("tab", "cat01".."cat04",
// "area", "time").
func (o Observation) Category(id string) string {
	switch id {
	case "tab":
		return o.Tab
	case "cat01":
		return o.Cat01
	case "cat02":
		return o.Cat02
	case "cat03":
		return o.Cat03
	case "cat04":
		return o.Cat04
	case "area":
		return o.Area
	case "time":
		return o.Time
	}
	return ""
}

// CategoryIDs lists the category classifications an observation can carry.
var CategoryIDs = []string{"cat01", "cat02", "cat03", "cat04"}

// StatsData is the decoded body of getStatsData.
type StatsData struct {
	Table        TableInfo     `json:"table"`
	Classes      []ClassObj    `json:"classes"`
	Observations []Observation `json:"observations"`
	Total        int           `json:"total"`
	From         int           `json:"from,omitempty"`
	To           int           `json:"to,omitempty"`
	NextKey      int           `json:"nextKey,omitempty"`
}

// CategoryMap resolves classification codes to labels.
type CategoryMap map[string]map[string]string

// CategoryMap indexes the classifications of d.
func (d *StatsData) CategoryMap() CategoryMap {
	m := make(CategoryMap, len(d.Classes))
	for _, c := range d.Classes {
		codes := make(map[string]string, len(c.Items))
		for _, it := range c.Items {
			codes[it.Code] = it.Name
		}
		m[c.ID] = codes
	}
	return m
}

// Label returns the label for code within class, or code itself when the
// mapping has no entry.
func (m CategoryMap) Label(class, code string) string {
	if name := m[class][code]; name != "" {
		return name
	}
	return code
}

// Has reports whether class is a known classification.
func (m CategoryMap) Has(class string) bool {
	_, ok := m[class]
	return ok
}

// =============================================================================
// Wire envelopes
// =============================================================================

type result struct {
	Status   int    `json:"STATUS"`
	ErrorMsg string `json:"ERROR_MSG"`
}

type statsListResponse struct {
	GetStatsList *struct {
		Result      result `json:"RESULT"`
		DatalistInf struct {
			Number   number                              `json:"NUMBER"`
			TableInf integrations.OneOrMany[tableInfWire] `json:"TABLE_INF"`
		} `json:"DATALIST_INF"`
	} `json:"GET_STATS_LIST"`
}

type statsDataResponse struct {
	GetStatsData *struct {
		Result          result `json:"RESULT"`
		StatisticalData struct {
			ResultInf struct {
				TotalNumber number `json:"TOTAL_NUMBER"`
				FromNumber  number `json:"FROM_NUMBER"`
				ToNumber    number `json:"TO_NUMBER"`
				NextKey     number `json:"NEXT_KEY"`
			} `json:"RESULT_INF"`
			TableInf tableInfWire `json:"TABLE_INF"`
			ClassInf struct {
				ClassObj integrations.OneOrMany[classObjWire] `json:"CLASS_OBJ"`
			} `json:"CLASS_INF"`
			DataInf struct {
				Value integrations.OneOrMany[valueWire] `json:"VALUE"`
			} `json:"DATA_INF"`
		} `json:"STATISTICAL_DATA"`
	} `json:"GET_STATS_DATA"`
}

type tableInfWire struct {
	ID          string `json:"@id"`
	StatName    text   `json:"STAT_NAME"`
	GovOrg      text   `json:"GOV_ORG"`
	Title       text   `json:"TITLE"`
	SurveyDate  text   `json:"SURVEY_DATE"`
	OpenDate    text   `json:"OPEN_DATE"`
	TotalNumber number `json:"OVERALL_TOTAL_NUMBER"`
}

func (w tableInfWire) info() TableInfo {
	return TableInfo{
		ID:          w.ID,
		Title:       string(w.Title),
		StatName:    string(w.StatName),
		GovOrg:      string(w.GovOrg),
		SurveyDate:  string(w.SurveyDate),
		OpenDate:    string(w.OpenDate),
		TotalNumber: int(w.TotalNumber),
	}
}

type classObjWire struct {
	ID    string                               `json:"@id"`
	Name  string                               `json:"@name"`
	Class integrations.OneOrMany[classItemWire] `json:"CLASS"`
}

type classItemWire struct {
	Code       string `json:"@code"`
	Name       string `json:"@name"`
	Text       string `json:"$"`
	Level      string `json:"@level"`
	Unit       string `json:"@unit"`
	ParentCode string `json:"@parentCode"`
}

func (w classObjWire) class() ClassObj {
	c := ClassObj{ID: w.ID, Name: w.Name, Items: make([]ClassItem, 0, len(w.Class))}
	for _, it := range w.Class {
		name := it.Name
		if name == "" {
			name = it.Text
		}
		c.Items = append(c.Items, ClassItem{
			Code:       it.Code,
			Name:       name,
			Level:      it.Level,
			Unit:       it.Unit,
			ParentCode: it.ParentCode,
		})
	}
	return c
}

// valueWire is one VALUE element: either a bare string or an object whose
// "$" holds the raw value and whose @-attributes hold the codes.
type valueWire struct {
	Tab   string `json:"@tab"`
	Cat01 string `json:"@cat01"`
	Cat02 string `json:"@cat02"`
	Cat03 string `json:"@cat03"`
	Cat04 string `json:"@cat04"`
	Area  string `json:"@area"`
	Time  string `json:"@time"`
	Unit  string `json:"@unit"`
	Raw   text   `json:"$"`
}

func (w *valueWire) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var t text
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*w = valueWire{Raw: t}
		return nil
	}
	type plain valueWire
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = valueWire(p)
	return nil
}

func (w valueWire) observation() Observation {
	return Observation{
		Tab:   w.Tab,
		Cat01: w.Cat01,
		Cat02: w.Cat02,
		Cat03: w.Cat03,
		Cat04: w.Cat04,
		Area:  w.Area,
		Time:  w.Time,
		Unit:  w.Unit,
		Raw:   string(w.Raw),
		Value: table.ParseValue(string(w.Raw)),
	}
}

// text decodes a JSON string, number or {"$": ...} object into its text.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	case data[0] == '{':
		var obj struct {
			Text text `json:"$"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = obj.Text
	default:
		*t = text(strings.Trim(string(data), `"`))
	}
	return nil
}

// number decodes a JSON number or numeric string.
type number int

func (n *number) UnmarshalJSON(data []byte) error {
	var t text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	if t == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(t))
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}
