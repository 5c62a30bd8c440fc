package eurostat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Languages accepted by the API.
var Languages = []string{"EN", "DE", "FR", "IT", "ES", "PL", "PT"}

// DefaultLang is used when no language is requested.
const DefaultLang = "EN"

// MaxCells bounds the cartesian product of a dataset's dimension sizes.
const MaxCells = 1 << 24

// CommonDatasets lists frequently used dataset codes.
var CommonDatasets = []string{
	"nama_10_gdp",
	"une_rt_m",
	"prc_hicp_midx",
	"demo_pjan",
	"lfsi_emp_a",
	"gov_10dd_edpt1",
}

// Dataset is a decoded JSON-stat 2.0 dataset.
type Dataset struct {
	Raw        json.RawMessage      `json:"-"`
	Label      string               `json:"label,omitempty"`
	Source     string               `json:"source,omitempty"`
	Updated    string               `json:"updated,omitempty"`
	ID         []string             `json:"id"`
	Size       []int                `json:"size"`
	Dimensions map[string]Dimension `json:"dimension"`
	Values     map[int]float64      `json:"-"`
	Status     map[int]string       `json:"-"`
}

// Len returns the number of cells in the full cartesian product.
func (d *Dataset) Len() int {
	if len(d.Size) == 0 {
		return 0
	}
	n := 1
	for _, s := range d.Size {
		n *= s
	}
	return n
}

// Coords converts a row-major position into per-dimension category indexes.
func (d *Dataset) Coords(pos int) []int {
	out := make([]int, len(d.Size))
	for i := len(d.Size) - 1; i >= 0; i-- {
		if d.Size[i] == 0 {
			return out
		}
		out[i] = pos % d.Size[i]
		pos /= d.Size[i]
	}
	return out
}

// Dimension is one axis of a dataset.
type Dimension struct {
	Label      string     `json:"label"`
	Categories []Category `json:"categories"`
}

// Category is one position on a dimension.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// =============================================================================
// Wire format
// =============================================================================

type datasetWire struct {
	Label     string                   `json:"label"`
	Source    string                   `json:"source"`
	Updated   string                   `json:"updated"`
	ID        []string                 `json:"id"`
	Size      []int                    `json:"size"`
	Dimension map[string]dimensionWire `json:"dimension"`
	Value     json.RawMessage          `json:"value"`
	Status    json.RawMessage          `json:"status"`
}

type dimensionWire struct {
	Label    string `json:"label"`
	Category struct {
		Index json.RawMessage   `json:"index"`
		Label map[string]string `json:"label"`
	} `json:"category"`
}

func (w dimensionWire) dimension() (Dimension, error) {
	ids, err := categoryOrder(w.Category.Index)
	if err != nil {
		return Dimension{}, err
	}
	if len(ids) == 0 {
		for id := range w.Category.Label {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}
	d := Dimension{Label: w.Label, Categories: make([]Category, len(ids))}
	for i, id := range ids {
		label := w.Category.Label[id]
		if label == "" {
			label = id
		}
		d.Categories[i] = Category{ID: id, Label: label}
	}
	return d, nil
}

// categoryOrder decodes "index" as either an ordered id array or an
// id → position object.
func categoryOrder(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var ids []string
		err := json.Unmarshal(raw, &ids)
		return ids, err
	}
	var pos map[string]int
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, err
	}
	ids := make([]string, len(pos))
	for id, p := range pos {
		if p >= 0 && p < len(ids) {
			ids[p] = id
		}
	}
	return ids, nil
}

// decodeValues reads "value" as a dense array (nulls allowed) or a sparse
// position → number object.
func decodeValues(raw json.RawMessage) (map[int]float64, error) {
	out := map[int]float64{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if raw[0] == '[' {
		var dense []*float64
		if err := json.Unmarshal(raw, &dense); err != nil {
			return nil, err
		}
		for i, v := range dense {
			if v != nil {
				out[i] = *v
			}
		}
		return out, nil
	}
	var sparse map[string]*float64
	if err := json.Unmarshal(raw, &sparse); err != nil {
		return nil, err
	}
	for k, v := range sparse {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[i] = *v
		}
	}
	return out, nil
}

// decodeStatus reads "status" as a dense array, a sparse object, or a single
// string applied to every cell (stored under position -1).
func decodeStatus(raw json.RawMessage) (map[int]string, error) {
	out := map[int]string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		out[-1] = s
	case '[':
		var dense []*string
		if err := json.Unmarshal(raw, &dense); err != nil {
			return nil, err
		}
		for i, s := range dense {
			if s != nil {
				out[i] = *s
			}
		}
	default:
		var sparse map[string]string
		if err := json.Unmarshal(raw, &sparse); err != nil {
			return nil, err
		}
		for k, s := range sparse {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
	}
	return out, nil
}

// StatusAt returns the status flag of the cell at pos.
func (d *Dataset) StatusAt(pos int) string {
	if s, ok := d.Status[pos]; ok {
		return s
	}
	return d.Status[-1]
}

func (w datasetWire) dataset() (*Dataset, error) {
	ds := &Dataset{
		Label:      w.Label,
		Source:     w.Source,
		Updated:    w.Updated,
		ID:         w.ID,
		Size:       w.Size,
		Dimensions: make(map[string]Dimension, len(w.Dimension)),
	}
	for id, dw := range w.Dimension {
		d, err := dw.dimension()
		if err != nil {
			return nil, err
		}
		ds.Dimensions[id] = d
	}
	if len(ds.ID) == 0 {
		for id := range ds.Dimensions {
			ds.ID = append(ds.ID, id)
		}
		sort.Strings(ds.ID)
	}
	if len(ds.Size) == 0 {
		for _, id := range ds.ID {
			ds.Size = append(ds.Size, len(ds.Dimensions[id].Categories))
		}
	}
	if err := ds.checkShape(); err != nil {
		return nil, err
	}
	var err error
	if ds.Values, err = decodeValues(w.Value); err != nil {
		return nil, err
	}
	if ds.Status, err = decodeStatus(w.Status); err != nil {
		return nil, err
	}
	return ds, nil
}

// checkShape verifies that id and size describe the same dimensions, that
// every dimension is defined, and that the cell count is within MaxCells.
func (d *Dataset) checkShape() error {
	if len(d.Size) != len(d.ID) {
		return fmt.Errorf("%d dimension ids but %d sizes", len(d.ID), len(d.Size))
	}
	n := 1
	for i, s := range d.Size {
		id := d.ID[i]
		if _, ok := d.Dimensions[id]; !ok {
			return fmt.Errorf("dimension %q is not described", id)
		}
		if s < 0 {
			return fmt.Errorf("dimension %q has negative size %d", id, s)
		}
		if s > 0 && n > math.MaxInt/s {
			return fmt.Errorf("dimension sizes overflow")
		}
		n *= s
	}
	if n > MaxCells {
		return fmt.Errorf("%d cells exceed the limit of %d", n, MaxCells)
	}
	return nil
}

// topLevel reports which top-level keys a body carries.
type topLevel struct {
	Dataset   json.RawMessage `json:"dataset"`
	Dimension json.RawMessage `json:"dimension"`
}
