package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger. Timestamps read "HH:MM:SS.ms" and the
// source of an upstream call stands out from the other fields.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	styles := log.DefaultStyles()
	styles.Keys["source"] = lipgloss.NewStyle().Foreground(colorCyan)
	styles.Values["source"] = lipgloss.NewStyle().Bold(true)
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(colorRed)
	l.SetStyles(styles)
	return l
}

// progress times one upstream operation.
type progress struct {
	logger *log.Logger
	source string
	start  time.Time
}

func newProgress(l *log.Logger, source string) *progress {
	return &progress{logger: l, source: source, start: time.Now()}
}

// done logs msg with the source, row count and elapsed time:
//
//	INFO fetched source=oecd rows=42 elapsed=1.234s
func (p *progress) done(msg string, rows int) {
	p.logger.Info(msg, "source", p.source, "rows", rows, "elapsed", time.Since(p.start).Round(time.Millisecond))
}
