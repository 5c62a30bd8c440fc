package chart

import (
	"bytes"
	"fmt"
	"math"
)

const (
	gridLines = 5

	// legendMaxWidth is the widest legend kept at the top-right.
	legendMaxWidth = 180

	// attributionHeight is the band added to the canvas and reserved at the
	// bottom when an attribution block is drawn.
	attributionHeight = 50
)

type padding struct {
	top, right, bottom, left float64
}

// frame holds the resolved plot geometry for axis charts.
type frame struct {
	cfg      Config
	pad      padding
	labels   []string
	series   []Series
	min, max float64

	legendWidth  float64
	legendBottom bool
}

func (f *frame) width() float64  { return float64(f.cfg.Width) - f.pad.left - f.pad.right }
func (f *frame) height() float64 { return float64(f.cfg.Height) - f.pad.top - f.pad.bottom }

func (f *frame) valueRange() float64 {
	if r := f.max - f.min; r != 0 {
		return r
	}
	return 1
}

func (f *frame) y(v float64) float64 {
	return f.pad.top + f.height() - (v-f.min)/f.valueRange()*f.height()
}

func (f *frame) tick(i int) float64 {
	return f.max - (f.max-f.min)/gridLines*float64(i)
}

func newFrame(cfg Config, series []Series, lo, hi float64) *frame {
	f := &frame{cfg: cfg, labels: Labels(series), series: series, min: lo, max: hi}

	maxName := 0
	for _, s := range series {
		maxName = max(maxName, len([]rune(s.Name)))
	}
	f.legendWidth = 16 + 6 + float64(maxName)*6.5
	f.legendBottom = len(series) > 3 || f.legendWidth > legendMaxWidth

	tickWidth := 0
	for i := 0; i <= gridLines; i++ {
		tickWidth = max(tickWidth, len(FormatValue(f.tick(i))))
	}

	f.pad.top = 60
	f.pad.left = math.Max(80, float64(tickWidth)*7+20)
	f.pad.bottom = 80
	if len(f.labels) > 10 {
		f.pad.bottom = 100
	}
	if cfg.Attribution != nil {
		f.pad.bottom += attributionHeight
	}
	if f.legendBottom && !cfg.HideLegend {
		f.pad.bottom += float64(f.legendRows()) * 20
	}
	// A wide legend always wraps at the bottom, so right padding stays fixed.
	f.pad.right = 60
	return f
}

// legendRows counts the rows a wrapped bottom legend occupies.
func (f *frame) legendRows() int {
	if len(f.series) == 0 {
		return 0
	}
	rows, x := 1, 0.0
	limit := float64(f.cfg.Width) - 40
	for _, s := range f.series {
		w := legendItemWidth(s.Name)
		if x > 0 && x+w > limit {
			rows++
			x = 0
		}
		x += w + 25
	}
	return rows
}

func legendItemWidth(name string) float64 {
	return 22 + float64(len([]rune(name)))*7
}

func (f *frame) rotateLabels() bool {
	if len(f.labels) > 10 {
		return true
	}
	if len(f.labels) == 0 {
		return false
	}
	total := 0
	for _, l := range f.labels {
		total += len([]rune(l))
	}
	return float64(total)/float64(len(f.labels)) > 6
}

func (f *frame) grid(buf *bytes.Buffer) {
	buf.WriteString(`  <g class="grid">` + "\n")
	for i := 0; i <= gridLines; i++ {
		y := f.pad.top + f.height()/gridLines*float64(i)
		fmt.Fprintf(buf, `    <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#e5e7eb" stroke-width="1"/>`+"\n",
			num(f.pad.left), num(y), num(f.pad.left+f.width()), num(y))
		fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="end" font-size="11" font-family="%s" fill="#6b7280">%s</text>`+"\n",
			num(f.pad.left-10), num(y+4), fontFamily, escape(FormatValue(f.tick(i))))
	}
	buf.WriteString("  </g>\n")
}

func (f *frame) axes(buf *bytes.Buffer) {
	bottom := f.pad.top + f.height()
	fmt.Fprintf(buf, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#374151" stroke-width="1"/>`+"\n",
		num(f.pad.left), num(f.pad.top), num(f.pad.left), num(bottom))
	fmt.Fprintf(buf, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#374151" stroke-width="1"/>`+"\n",
		num(f.pad.left), num(bottom), num(f.pad.left+f.width()), num(bottom))
	if f.cfg.XLabel != "" {
		y := bottom + 45
		if f.rotateLabels() {
			y = bottom + 70
		}
		fmt.Fprintf(buf, `  <text x="%s" y="%s" text-anchor="middle" font-size="12" font-family="%s" fill="#374151">%s</text>`+"\n",
			num(f.pad.left+f.width()/2), num(y), fontFamily, escape(f.cfg.XLabel))
	}
	if f.cfg.YLabel != "" {
		x, y := 18.0, f.pad.top+f.height()/2
		fmt.Fprintf(buf, `  <text x="%s" y="%s" text-anchor="middle" font-size="12" font-family="%s" fill="#374151" transform="rotate(-90 %s %s)">%s</text>`+"\n",
			num(x), num(y), fontFamily, num(x), num(y), escape(f.cfg.YLabel))
	}
}

// xLabels draws the category labels with x(i) giving each label's center.
func (f *frame) xLabels(buf *bytes.Buffer, x func(i int) float64) {
	rotate := f.rotateLabels()
	y := f.pad.top + f.height() + 20
	buf.WriteString(`  <g class="x-labels">` + "\n")
	for i, l := range f.labels {
		if rotate {
			fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="end" font-size="11" font-family="%s" fill="#6b7280" transform="rotate(-45 %s %s)">%s</text>`+"\n",
				num(x(i)), num(y), fontFamily, num(x(i)), num(y), escape(l))
			continue
		}
		fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle" font-size="11" font-family="%s" fill="#6b7280">%s</text>`+"\n",
			num(x(i)), num(y), fontFamily, escape(l))
	}
	buf.WriteString("  </g>\n")
}

func (f *frame) legend(buf *bytes.Buffer) {
	if f.cfg.HideLegend || len(f.series) == 0 {
		return
	}
	buf.WriteString(`  <g class="legend">` + "\n")
	if !f.legendBottom {
		x := float64(f.cfg.Width) - f.legendWidth - 20
		for i, s := range f.series {
			y := f.pad.top + float64(i)*20
			legendItem(buf, x, y, f.cfg.color(i, s.Color), s.Name)
		}
		buf.WriteString("  </g>\n")
		return
	}

	attrH := 0.0
	if f.cfg.Attribution != nil {
		attrH = attributionHeight
	}
	rows := float64(f.legendRows())
	x, y := 20.0, float64(f.cfg.Height)-attrH-20*rows-20
	limit := float64(f.cfg.Width) - 40
	for i, s := range f.series {
		w := legendItemWidth(s.Name)
		if x > 20 && x+w > limit {
			x = 20
			y += 20
		}
		legendItem(buf, x, y, f.cfg.color(i, s.Color), s.Name)
		x += w + 25
	}
	buf.WriteString("  </g>\n")
}

func legendItem(buf *bytes.Buffer, x, y float64, color, name string) {
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="16" height="12" rx="2" fill="%s"/>`+"\n",
		num(x), num(y), color)
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="11" font-family="%s" fill="#374151">%s</text>`+"\n",
		num(x+22), num(y+10), fontFamily, escape(name))
}

// attribution draws the source credit block along the bottom edge.
func attribution(buf *bytes.Buffer, c Config) {
	a := c.Attribution
	if a == nil {
		return
	}
	top := float64(c.Height) - attributionHeight
	fmt.Fprintf(buf, `  <g class="attribution">`+"\n")
	fmt.Fprintf(buf, `    <line x1="20" y1="%s" x2="%d" y2="%s" stroke="#e5e7eb" stroke-width="1"/>`+"\n",
		num(top), c.Width-20, num(top))

	y := top + 15
	fmt.Fprintf(buf, `    <text x="20" y="%s" font-size="10" font-family="%s" fill="#4b5563">Source: %s</text>`+"\n",
		num(y), fontFamily, escape(a.Source))
	if a.Note != "" {
		y += 13
		fmt.Fprintf(buf, `    <text x="20" y="%s" font-size="9" font-family="%s" fill="#6b7280">%s</text>`+"\n",
			num(y), fontFamily, escape(a.Note))
	}
	var tail string
	switch {
	case a.License != "" && a.URL != "":
		tail = a.License + " | " + a.URL
	case a.License != "":
		tail = a.License
	default:
		tail = a.URL
	}
	if tail != "" {
		y += 13
		fmt.Fprintf(buf, `    <text x="20" y="%s" font-size="9" font-family="%s" fill="#6b7280">%s</text>`+"\n",
			num(y), fontFamily, escape(tail))
	}
	buf.WriteString("  </g>\n")
}
