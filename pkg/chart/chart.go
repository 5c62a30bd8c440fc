package chart

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Default canvas size.
const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// DefaultColors is the palette applied in series order.
var DefaultColors = []string{
	"#000000",
	"#22c55e",
	"#86efac",
	"#eab308",
	"#ec4899",
	"#06b6d4",
	"#6b7280",
	"#d97706",
	"#f87171",
	"#a78bfa",
	"#d1d5db",
	"#3b82f6",
	"#10b981",
	"#8b5cf6",
}

// Point is one labeled value. Color overrides the palette when set.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Series is a named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"data"`
	Color  string  `json:"color,omitempty"`
}

// Lookup returns the first point with label.
func (s Series) Lookup(label string) (Point, bool) {
	for _, p := range s.Points {
		if p.Label == label {
			return p, true
		}
	}
	return Point{}, false
}

// Attribution credits the data source below the plot.
type Attribution struct {
	Source  string `json:"source"`
	URL     string `json:"url,omitempty"`
	License string `json:"license,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Config controls rendering. Zero sizes use the defaults.
type Config struct {
	Title       string
	XLabel      string
	YLabel      string
	Width       int
	Height      int
	HideLegend  bool
	Colors      []string
	Attribution *Attribution
}

func (c Config) normalized() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Attribution != nil {
		c.Height += attributionHeight
	}
	if len(c.Colors) == 0 {
		c.Colors = DefaultColors
	}
	return c
}

func (c Config) color(i int, overrides ...string) string {
	for _, o := range overrides {
		if o != "" {
			return o
		}
	}
	return c.Colors[i%len(c.Colors)]
}

// FormatValue abbreviates v at the 1e12, 1e9, 1e6 and 1e3 thresholds and
// otherwise prints two decimals.
func FormatValue(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e12:
		return strconv.FormatFloat(v/1e12, 'f', 2, 64) + "T"
	case a >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "B"
	case a >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
	case a >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 2, 64) + "K"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// DataURI encodes an SVG document as a base64 data URI.
func DataURI(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

// Labels returns the union of labels across series. When every label is a
// number they are sorted numerically; otherwise first-seen order is kept.
func Labels(series []Series) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range series {
		for _, p := range s.Points {
			if !seen[p.Label] {
				seen[p.Label] = true
				out = append(out, p.Label)
			}
		}
	}
	nums := make(map[string]float64, len(out))
	for _, l := range out {
		f, err := strconv.ParseFloat(l, 64)
		if err != nil {
			return out
		}
		nums[l] = f
	}
	sort.SliceStable(out, func(i, j int) bool { return nums[out[i]] < nums[out[j]] })
	return out
}

func extent(series []Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func header(buf *bytes.Buffer, c Config) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		c.Width, c.Height, c.Width, c.Height)
	buf.WriteString(`  <rect width="100%" height="100%" fill="#ffffff"/>` + "\n")
	if c.Title != "" {
		fmt.Fprintf(buf, `  <text x="%s" y="28" text-anchor="middle" font-size="16" font-weight="600" font-family="%s" fill="#1f2937">%s</text>`+"\n",
			num(float64(c.Width)/2), fontFamily, escape(c.Title))
	}
}

const fontFamily = "system-ui, -apple-system, sans-serif"
