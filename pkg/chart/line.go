package chart

import (
	"bytes"
	"fmt"
	"strings"
)

// Line renders one polyline per series over the union of labels.
func Line(series []Series, cfg Config) []byte {
	cfg = cfg.normalized()
	lo, hi := extent(series)
	f := newFrame(cfg, series, lo, hi)

	step := float64(len(f.labels) - 1)
	if step < 1 {
		step = 1
	}
	x := func(i int) float64 { return f.pad.left + float64(i)/step*f.width() }

	var buf bytes.Buffer
	header(&buf, cfg)
	f.grid(&buf)
	f.axes(&buf)
	f.xLabels(&buf, x)

	for si, s := range series {
		color := cfg.color(si, s.Color)
		var (
			d   strings.Builder
			pts [][2]float64
		)
		for i, l := range f.labels {
			p, ok := s.Lookup(l)
			if !ok {
				continue
			}
			px, py := x(i), f.y(p.Value)
			if len(pts) == 0 {
				fmt.Fprintf(&d, "M %s %s", num(px), num(py))
			} else {
				fmt.Fprintf(&d, " L %s %s", num(px), num(py))
			}
			pts = append(pts, [2]float64{px, py})
		}
		if len(pts) == 0 {
			continue
		}
		fmt.Fprintf(&buf, `  <g class="series" data-name="%s">`+"\n", escape(s.Name))
		fmt.Fprintf(&buf, `    <path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round"/>`+"\n",
			d.String(), color)
		for _, pt := range pts {
			fmt.Fprintf(&buf, `    <circle cx="%s" cy="%s" r="3" fill="%s"/>`+"\n", num(pt[0]), num(pt[1]), color)
		}
		buf.WriteString("  </g>\n")
	}

	f.legend(&buf)
	attribution(&buf, cfg)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
