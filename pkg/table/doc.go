// Package table defines the uniform tabular model shared by every stage
// after a source fetch.
//
// A [Table] is an ordered list of column names plus rows. Every [Row] carries
// every column; missing cells are [Null], never absent keys. Column order is
// the order of first appearance and drives CSV headers, JSON key order and
// terminal rendering.
//
// Cells are tagged [Value]s: Null, Number or String. Upstream text is parsed
// once with [ParseValue], which maps the suppression sentinels
// ("-", "...", "X", "") to Null so that no later stage ever compares a raw
// string against a sentinel list.
package table
