package chart

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Slice is one pie wedge. Angles are in degrees, with -90 at 12 o'clock and
// increasing clockwise.
type Slice struct {
	Point
	Start float64
	Sweep float64
}

// Percent returns the slice's share of the whole, in percent.
func (s Slice) Percent() float64 { return s.Sweep / 360 * 100 }

// Slices lays out points as wedges in input order. Points with a
// non-positive value are left out.
func Slices(points []Point) []Slice {
	total := 0.0
	for _, p := range points {
		if p.Value > 0 {
			total += p.Value
		}
	}
	if total == 0 {
		return nil
	}
	var out []Slice
	angle := -90.0
	for _, p := range points {
		if p.Value <= 0 {
			continue
		}
		sweep := p.Value / total * 360
		out = append(out, Slice{Point: p, Start: angle, Sweep: sweep})
		angle += sweep
	}
	return out
}

// Pie renders points as a pie with a label legend on the left.
func Pie(points []Point, cfg Config) []byte {
	cfg = cfg.normalized()
	attrH := 0.0
	if cfg.Attribution != nil {
		attrH = attributionHeight
	}
	w, h := float64(cfg.Width), float64(cfg.Height)
	cx, cy := w/2, (h-attrH)/2
	r := math.Max(math.Min(w, h-attrH)/2-80, 10)

	var buf bytes.Buffer
	header(&buf, cfg)

	slices := Slices(points)
	buf.WriteString(`  <g class="slices">` + "\n")
	for i, s := range slices {
		color := cfg.color(i, s.Color)
		if s.Sweep >= 360 {
			fmt.Fprintf(&buf, `    <circle cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2"/>`+"\n",
				num(cx), num(cy), num(r), color)
		} else {
			start, end := rad(s.Start), rad(s.Start+s.Sweep)
			large := 0
			if s.Sweep > 180 {
				large = 1
			}
			fmt.Fprintf(&buf, `    <path d="M %s %s L %s %s A %s %s 0 %d 1 %s %s Z" fill="%s" stroke="#ffffff" stroke-width="2"/>`+"\n",
				num(cx), num(cy),
				num(cx+r*math.Cos(start)), num(cy+r*math.Sin(start)),
				num(r), num(r), large,
				num(cx+r*math.Cos(end)), num(cy+r*math.Sin(end)),
				color)
		}

		mid := rad(s.Start + s.Sweep/2)
		lx, ly := cx+0.7*r*math.Cos(mid), cy+0.7*r*math.Sin(mid)
		fmt.Fprintf(&buf, `    <text x="%s" y="%s" text-anchor="middle" font-size="11" font-family="%s" fill="#ffffff">%s</text>`+"\n",
			num(lx), num(ly), fontFamily, escape(s.Label))
		fmt.Fprintf(&buf, `    <text x="%s" y="%s" text-anchor="middle" font-size="10" font-family="%s" fill="#ffffff">%s%%</text>`+"\n",
			num(lx), num(ly+15), fontFamily, strconv.FormatFloat(s.Percent(), 'f', 1, 64))
	}
	buf.WriteString("  </g>\n")

	if !cfg.HideLegend && len(slices) > 0 {
		buf.WriteString(`  <g class="legend" transform="translate(20,60)">` + "\n")
		for i, s := range slices {
			y := float64(i) * 25
			fmt.Fprintf(&buf, `    <rect x="0" y="%s" width="16" height="12" rx="2" fill="%s"/>`+"\n",
				num(y), cfg.color(i, s.Color))
			fmt.Fprintf(&buf, `    <text x="22" y="%s" font-size="11" font-family="%s" fill="#374151">%s: %s</text>`+"\n",
				num(y+10), fontFamily, escape(s.Label), escape(FormatValue(s.Value)))
		}
		buf.WriteString("  </g>\n")
	}

	attribution(&buf, cfg)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
