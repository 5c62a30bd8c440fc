// Package export serializes tables as CSV, JSON or xlsx workbooks.
//
// # Formats
//
//   - csv: header row in column order, one record per row, Null as an
//     empty field, RFC 4180 quoting
//   - json: the rows as an array of objects with keys in column order
//   - json-structured: the rows wrapped with metadata, count and columns
//   - xlsx: a one-sheet workbook; [Encode] returns it base64 encoded
//
// # Writing
//
// Use [Encode] to render a table in a named format together with the
// [Metadata] callers report alongside the payload, or the Write functions to
// stream to any io.Writer:
//
//	res, err := export.Encode(t, export.FormatCSV, "worldbank")
//	err = export.WriteCSV(t, os.Stdout)
//
// [ExportFile] writes to a path, choosing the format from the extension.
//
// # Reading
//
// [ReadCSV] parses CSV back into a table of strings. Together with
// [WriteCSV] it round-trips every field's string form, including embedded
// commas, quotes and newlines.
package export
