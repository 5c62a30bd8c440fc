// Package chart renders series into self-contained SVG documents.
//
// Three kinds are supported:
//
//   - [Line]: one path per series over evenly spaced labels
//   - [Bar]: grouped bars per label against a zero baseline
//   - [Pie]: slices in input order, clockwise from 12 o'clock
//
// Series may be sparse. A label missing from a series is skipped for that
// series, never drawn as zero.
//
// # Layout
//
// Padding adapts to content: the left margin grows with the widest y-axis
// label, the bottom margin grows for rotated x labels (more than 10 labels)
// and for the attribution block, and the right margin grows with the legend
// when there are more than 3 series. The legend sits top-right for up to 3
// short series names and wraps along the bottom otherwise.
//
// Values on axes and labels go through [FormatValue], which abbreviates with
// T/B/M/K suffixes. Output needs no external stylesheet or font.
package chart
