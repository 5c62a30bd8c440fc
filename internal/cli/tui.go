package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/pipeline"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TableListModel - Interactive e-Stat table selection
// =============================================================================

// TableListModel is the bubbletea model for picking a statistics table.
type TableListModel struct {
	Tables   []estat.TableInfo
	Cursor   int
	Selected *estat.TableInfo
	Height   int
	Offset   int
}

// NewTableListModel creates a new table list model.
func NewTableListModel(tables []estat.TableInfo) TableListModel {
	return TableListModel{
		Tables: tables,
		Height: 15,
	}
}

func (m TableListModel) Init() tea.Cmd {
	return nil
}

func (m TableListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Tables)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Tables) == 0 {
				return m, nil
			}
			t := m.Tables[m.Cursor]
			m.Selected = &t
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TableListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Statistics Table"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Tables) {
		end = len(m.Tables)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		t := m.Tables[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		org := t.GovOrg
		if org == "" {
			org = "—"
		}
		rows = append(rows, []string{cursor, t.ID, truncate(t.Title, 48), truncate(org, 16), formatOpenDate(t.OpenDate)})
	}

	tbl := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Title", "Organization", "Published").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			base := lipgloss.NewStyle()
			if col >= 3 {
				base = base.Foreground(colorDim)
			}
			if m.Offset+row == m.Cursor {
				if col < 3 {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Tables))))

	return b.String()
}

// =============================================================================
// browse
// =============================================================================

func (c *CLI) browseCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "browse [keyword]",
		Short: "Pick an e-Stat table interactively and summarize it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p := pipeline.SearchStatisticsParams{Limit: limit}
			if len(args) > 0 {
				p.SearchWord = args[0]
			}
			tables, err := spin(cmd.Context(), "Searching e-Stat...", func(ctx context.Context) ([]estat.TableInfo, error) {
				return r.SearchStatistics(ctx, p)
			})
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				printWarning("No tables found")
				return nil
			}

			final, err := tea.NewProgram(NewTableListModel(tables)).Run()
			if err != nil {
				return fmt.Errorf("table picker: %w", err)
			}
			m, ok := final.(TableListModel)
			if !ok || m.Selected == nil {
				return nil
			}

			dp := pipeline.StatisticsDataParams{StatsDataID: m.Selected.ID}
			data, err := spin(cmd.Context(), "Fetching "+m.Selected.ID+"...", func(ctx context.Context) (*estat.StatsData, error) {
				return r.GetStatisticsData(ctx, dp)
			})
			if err != nil {
				return err
			}
			if err := printSummary(data); err != nil {
				return err
			}
			printNextStep("Full table", "statbridge data "+m.Selected.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of tables to list")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// formatOpenDate shortens e-Stat publication dates ("2024-01-31") and
// renders recent ones relative to now.
func formatOpenDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		if s == "" {
			return "—"
		}
		return s
	}

	diff := time.Since(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < 24*time.Hour:
		return "today"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
