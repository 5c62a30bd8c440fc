package chart

import (
	"bytes"
	"fmt"
	"math"
)

// Bar renders grouped bars, one group per label and one bar per series.
// The value axis always includes zero.
func Bar(series []Series, cfg Config) []byte {
	cfg = cfg.normalized()
	lo, hi := extent(series)
	lo = math.Min(0, lo)
	f := newFrame(cfg, series, lo, hi)

	n := len(f.labels)
	slot := f.width() / float64(max(n, 1))
	barWidth := f.width() / float64(max(n, 1)*(len(series)+1))
	groupWidth := barWidth * float64(len(series))
	center := func(i int) float64 { return f.pad.left + (float64(i)+0.5)*slot }

	var buf bytes.Buffer
	header(&buf, cfg)
	f.grid(&buf)
	f.axes(&buf)
	f.xLabels(&buf, center)

	base := f.y(math.Max(f.min, 0))
	for si, s := range series {
		color := cfg.color(si, s.Color)
		fmt.Fprintf(&buf, `  <g class="series" data-name="%s">`+"\n", escape(s.Name))
		for i, l := range f.labels {
			p, ok := s.Lookup(l)
			if !ok {
				continue
			}
			x := center(i) - groupWidth/2 + float64(si)*barWidth
			y := f.y(p.Value)
			top, h := y, base-y
			if h < 0 {
				top, h = base, -h
			}
			fmt.Fprintf(&buf, `    <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
				num(x), num(top), num(barWidth*0.8), num(h), cfg.color(si, p.Color, color))
			fmt.Fprintf(&buf, `    <text x="%s" y="%s" text-anchor="middle" font-size="10" font-family="%s" fill="#374151">%s</text>`+"\n",
				num(x+barWidth*0.4), num(top-5), fontFamily, escape(FormatValue(p.Value)))
		}
		buf.WriteString("  </g>\n")
	}

	f.legend(&buf)
	attribution(&buf, cfg)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
