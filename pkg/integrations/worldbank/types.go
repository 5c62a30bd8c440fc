package worldbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Point is one indicator observation for one country and year.
type Point struct {
	CountryCode   string   `json:"countryCode"`
	CountryName   string   `json:"countryName"`
	Date          string   `json:"date"`
	Value         *float64 `json:"value"`
	IndicatorID   string   `json:"indicatorId"`
	IndicatorName string   `json:"indicatorName"`
	Unit          string   `json:"unit,omitempty"`
}

// IndicatorInfo describes one indicator from the catalogue.
type IndicatorInfo struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	SourceNote         string `json:"sourceNote,omitempty"`
	SourceOrganization string `json:"sourceOrganization,omitempty"`
}

// Country describes one economy from the country list.
type Country struct {
	ID          string `json:"id"`
	ISO2Code    string `json:"iso2Code"`
	Name        string `json:"name"`
	Region      string `json:"region,omitempty"`
	IncomeLevel string `json:"incomeLevel,omitempty"`
	CapitalCity string `json:"capitalCity,omitempty"`
}

// Meta is the paging element of the envelope.
type Meta struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
}

// flexInt decodes integers the API sometimes emits as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

type idValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type pointWire struct {
	Indicator       idValue  `json:"indicator"`
	Country         idValue  `json:"country"`
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
	Unit            string   `json:"unit"`
}

func (w pointWire) point() Point {
	code := w.CountryISO3Code
	if code == "" {
		code = w.Country.ID
	}
	name := w.Country.Value
	if name == "" {
		name = code
	}
	return Point{
		CountryCode:   code,
		CountryName:   name,
		Date:          w.Date,
		Value:         w.Value,
		IndicatorID:   w.Indicator.ID,
		IndicatorName: w.Indicator.Value,
		Unit:          w.Unit,
	}
}

type indicatorWire struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	SourceNote         string `json:"sourceNote"`
	SourceOrganization string `json:"sourceOrganization"`
}

type countryWire struct {
	ID          string  `json:"id"`
	ISO2Code    string  `json:"iso2Code"`
	Name        string  `json:"name"`
	Region      idValue `json:"region"`
	IncomeLevel idValue `json:"incomeLevel"`
	CapitalCity string  `json:"capitalCity"`
}

type messageWire struct {
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

func (m messageWire) text() string {
	parts := make([]string, 0, len(m.Message))
	for _, msg := range m.Message {
		s := strings.TrimSpace(msg.Value)
		if msg.Key != "" {
			s = fmt.Sprintf("%s: %s", msg.Key, s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// errEnvelope reports a body that is not the expected array.
type errEnvelope string

func (e errEnvelope) Error() string { return string(e) }

// decodeEnvelope splits a [meta, data] body. A message-only array is
// returned as msg; data is nil when the second element is absent or null.
func decodeEnvelope(body []byte) (meta Meta, data json.RawMessage, msg string, err error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return meta, nil, "", errEnvelope("body is not a JSON array")
	}
	if len(parts) == 0 {
		return meta, nil, "", errEnvelope("empty envelope array")
	}
	if len(parts) == 1 {
		var m messageWire
		if err := json.Unmarshal(parts[0], &m); err == nil && len(m.Message) > 0 {
			return meta, nil, m.text(), nil
		}
	}
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return meta, nil, "", errEnvelope("malformed metadata element")
	}
	if len(parts) > 1 && !bytes.Equal(bytes.TrimSpace(parts[1]), []byte("null")) {
		data = parts[1]
	}
	return meta, data, "", nil
}
