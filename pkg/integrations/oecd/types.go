package oecd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Message is a decoded SDMX-JSON data message.
type Message struct {
	Raw       json.RawMessage `json:"-"`
	DataSets  []DataSet       `json:"dataSets"`
	Structure Structure       `json:"structure"`
}

// DataSet holds observations either grouped by series key or keyed by the
// full observation key.
type DataSet struct {
	Series       map[string]Series      `json:"series,omitempty"`
	Observations map[string]Observation `json:"observations,omitempty"`
}

// Series holds the observations of one series key.
type Series struct {
	Observations map[string]Observation `json:"observations"`
}

// Observation is [value, attribute indexes...]. The value may be null.
type Observation []json.RawMessage

// Value returns the observation value, or false when it is null or
// non-numeric.
func (o Observation) Value() (float64, bool) {
	if len(o) == 0 {
		return 0, false
	}
	var f *float64
	if err := json.Unmarshal(o[0], &f); err != nil || f == nil {
		var s string
		if json.Unmarshal(o[0], &s) == nil {
			var g float64
			if json.Unmarshal([]byte(s), &g) == nil {
				return g, true
			}
		}
		return 0, false
	}
	return *f, true
}

// Structure describes the dimensions referenced by observation keys.
type Structure struct {
	Name       Text       `json:"name"`
	Dimensions Dimensions `json:"dimensions"`
}

// Dimensions splits dimensions between series keys and observation keys.
type Dimensions struct {
	Series      []Dimension `json:"series"`
	Observation []Dimension `json:"observation"`
}

// Dimension is one axis of the key space.
type Dimension struct {
	ID          string     `json:"id"`
	Name        Text       `json:"name"`
	KeyPosition int        `json:"keyPosition"`
	Values      []DimValue `json:"values"`
}

// DimValue is one position on a dimension.
type DimValue struct {
	ID   string `json:"id"`
	Name Text   `json:"name"`
}

// Label returns the column name for d: its id, or its name when the id is empty.
func (d Dimension) Label() string {
	if d.ID != "" {
		return d.ID
	}
	return string(d.Name)
}

// ValueAt resolves a key index to the value's name, falling back to its id
// and then to the index itself.
func (d Dimension) ValueAt(idx int) (id, name string, ok bool) {
	if idx < 0 || idx >= len(d.Values) {
		return "", "", false
	}
	v := d.Values[idx]
	name = string(v.Name)
	if name == "" {
		name = v.ID
	}
	return v.ID, name, true
}

// checkKeys verifies that every series and observation key has one
// component per dimension and that each component indexes a listed value.
func (m *Message) checkKeys() error {
	series := m.Structure.Dimensions.Series
	obs := m.Structure.Dimensions.Observation
	for _, ds := range m.DataSets {
		for sk, s := range ds.Series {
			if err := checkKey(sk, series); err != nil {
				return fmt.Errorf("series %w", err)
			}
			for key := range s.Observations {
				if err := checkKey(key, obs); err != nil {
					return fmt.Errorf("observation %w", err)
				}
			}
		}
		for key := range ds.Observations {
			if err := checkKey(key, obs); err != nil {
				return fmt.Errorf("observation %w", err)
			}
		}
	}
	return nil
}

func checkKey(key string, dims []Dimension) error {
	var parts []string
	if key != "" {
		parts = strings.Split(key, ":")
	}
	if len(parts) != len(dims) {
		return fmt.Errorf("key %q has %d components for %d dimensions", key, len(parts), len(dims))
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= len(dims[i].Values) {
			return fmt.Errorf("key %q: %q is not a value of %s", key, p, dims[i].Label())
		}
	}
	return nil
}

// Text decodes either a plain string or a localized map, preferring "en".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if s, ok := m["en"]; ok {
		*t = Text(s)
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		*t = Text(m[keys[0]])
	}
	return nil
}

// envelope accepts both the 1.0 layout and the 2.0 layout nested in "data".
type envelope struct {
	DataSets  []DataSet  `json:"dataSets"`
	Structure *Structure `json:"structure"`
	Data      *struct {
		DataSets   []DataSet   `json:"dataSets"`
		Structure  *Structure  `json:"structure"`
		Structures []Structure `json:"structures"`
	} `json:"data"`
}

func (e envelope) message() (*Message, bool) {
	m := &Message{DataSets: e.DataSets}
	if e.Structure != nil {
		m.Structure = *e.Structure
	}
	if e.Data != nil {
		m.DataSets = e.Data.DataSets
		switch {
		case e.Data.Structure != nil:
			m.Structure = *e.Data.Structure
		case len(e.Data.Structures) > 0:
			m.Structure = e.Data.Structures[0]
		}
	}
	return m, m.DataSets != nil
}
