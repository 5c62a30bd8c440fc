package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/statbridge/pkg/table"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV            Format = "csv"
	FormatJSON           Format = "json"
	FormatJSONStructured Format = "json-structured"
	FormatXLSX           Format = "xlsx"
)

// Formats lists the accepted formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatJSONStructured, FormatXLSX}

// SheetName is the worksheet xlsx exports write to.
const SheetName = "data"

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Metadata describes an exported payload.
type Metadata struct {
	Source   string   `json:"source"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`
}

// Result is an encoded table with its metadata. Binary formats set
// Encoding to "base64".
type Result struct {
	Format   Format   `json:"format"`
	Data     string   `json:"data"`
	Encoding string   `json:"encoding,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Bytes returns the payload, decoding base64 data.
func (r Result) Bytes() ([]byte, error) {
	if r.Encoding == "base64" {
		return base64.StdEncoding.DecodeString(r.Data)
	}
	return []byte(r.Data), nil
}

// Encode renders t in format f. source is recorded in the metadata.
func Encode(t *table.Table, f Format, source string) (Result, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(t, &buf)
	case FormatJSON:
		err = WriteJSON(t, &buf)
	case FormatJSONStructured:
		err = WriteJSONStructured(t, source, time.Now().UTC(), &buf)
	case FormatXLSX:
		err = WriteXLSX(t, &buf)
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Format:   f,
		Data:     buf.String(),
		Metadata: Metadata{Source: source, Columns: columns(t), RowCount: t.Len()},
	}
	if f == FormatXLSX {
		res.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
		res.Encoding = "base64"
	}
	return res, nil
}

// WriteCSV writes t as CSV with a header row. Null cells are empty fields.
// A table with columns but no rows writes just the header; a table without
// columns writes nothing.
func WriteCSV(t *table.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(t.Columns) > 0 {
		if err := cw.Write(t.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i := range t.Rows {
		if err := cw.Write(t.Strings(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows of t as a JSON array of objects.
func WriteJSON(t *table.Table, w io.Writer) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

type structured struct {
	Metadata struct {
		Source     string `json:"source"`
		ExportedAt string `json:"exportedAt"`
	} `json:"metadata"`
	Data    *table.Table `json:"data"`
	Count   int          `json:"count"`
	Columns []string     `json:"columns"`
}

// WriteJSONStructured writes {metadata, data, count, columns}.
func WriteJSONStructured(t *table.Table, source string, at time.Time, w io.Writer) error {
	var out structured
	out.Metadata.Source = source
	out.Metadata.ExportedAt = at.Format(time.RFC3339)
	out.Data = t
	out.Count = t.Len()
	out.Columns = columns(t)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteXLSX writes t as a workbook with one sheet: a header row followed by
// one row per table row. Numbers become numeric cells and Null cells stay
// empty.
func WriteXLSX(t *table.Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v := row.Get(col)
			var x any
			switch v.Kind() {
			case table.KindNull:
				continue
			case table.KindNumber:
				x, _ = v.Float()
			default:
				x = v.String()
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, x); err != nil {
				return fmt.Errorf("write row %d: %w", r, err)
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportFile writes t to path. The extension picks the format: .csv for
// CSV, .xlsx for a workbook and anything else for JSON.
func ExportFile(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV(t, f)
	case ".xlsx":
		return WriteXLSX(t, f)
	}
	return WriteJSON(t, f)
}

// ReadCSV parses CSV with a header row into a table. Every cell is a
// string; empty fields are Null.
func ReadCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(records) == 0 {
		return table.New(), nil
	}
	t := table.New(records[0]...)
	for _, rec := range records[1:] {
		vals := make([]table.Value, len(rec))
		for i, s := range rec {
			if s == "" {
				vals[i] = table.Null()
				continue
			}
			vals[i] = table.String(s)
		}
		t.AppendValues(vals...)
	}
	return t, nil
}

func columns(t *table.Table) []string {
	if t.Columns == nil {
		return []string{}
	}
	return t.Columns
}
