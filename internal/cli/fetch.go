package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/chart"
	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/integrations/estat"
	"github.com/matzehuels/statbridge/pkg/integrations/worldbank"
	"github.com/matzehuels/statbridge/pkg/normalize"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/table"
)

// outputOpts holds the flags shared by every fetch command.
type outputOpts struct {
	json   bool   // print the JSON result instead of a table
	rows   int    // maximum table rows shown
	output string // output file path (stdout if empty)
}

func (o *outputOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON instead of a table")
	cmd.Flags().IntVar(&o.rows, "rows", 20, "maximum table rows shown (0 for all)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write to a file (.csv, .xlsx or .json) instead of stdout")
}

// emit prints a terminal table of t, or the JSON form of raw with --json.
// With -o the output goes to a file: raw JSON with --json, otherwise t in
// the format the file extension names (.csv, .xlsx, or JSON).
func (o *outputOpts) emit(source string, t *table.Table, raw any) error {
	switch {
	case o.output != "" && !o.json:
		if err := export.ExportFile(t, o.output); err != nil {
			return err
		}
		printFile(o.output)
	case o.json:
		w, closeFn, err := openOutput(o.output)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := writeJSON(w, raw); err != nil {
			return err
		}
	default:
		fmt.Println(renderTable(t, o.rows))
	}
	printShape(source, t.Len(), len(t.Columns))
	return nil
}

// writeRaw writes an upstream document as indented JSON to the output.
func (o *outputOpts) writeRaw(raw json.RawMessage) error {
	w, closeFn, err := openOutput(o.output)
	if err != nil {
		return err
	}
	defer closeFn()
	return writeJSON(w, raw)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			buf.WriteByte('\n')
			_, err := buf.WriteTo(w)
			return err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// e-Stat
// =============================================================================

func (c *CLI) searchCommand() *cobra.Command {
	var (
		out   outputOpts
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search e-Stat statistics tables",
		Long: `Search e-Stat statistics tables by keyword.

Requires an e-Stat application id (ESTAT_APP_ID or [estat] app_id).

Examples:
  statbridge search 人口
  statbridge search 住宅 --limit 50 --json`,
		Args: cobra.MaximumNArgs(1),
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
			if err := out.emit(integrations.SourceEStat, normalize.Tables(tables), tables); err != nil {
				return err
			}
			if len(tables) > 0 && !out.json {
				printNextStep("Fetch a table", "statbridge data "+tables[0].ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", pipeline.DefaultSearchLimit, "maximum number of tables (1-1000)")
	out.register(cmd)
	return cmd
}

func (c *CLI) dataCommand() *cobra.Command {
	var (
		out     outputOpts
		limit   int
		start   int
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "data <statsDataId>",
		Short: "Fetch an e-Stat statistics table",
		Long: `Fetch the observations of one e-Stat statistics table.

With --summary the observations are totalled per category classification;
suppressed cells ("-", "…", "X") are skipped, never counted as zero.

Examples:
  statbridge data 0003410379
  statbridge data 0003410379 --limit 1000 --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p := pipeline.StatisticsDataParams{StatsDataID: args[0], Limit: limit, StartPosition: start}
			data, err := spin(cmd.Context(), "Fetching e-Stat table...", func(ctx context.Context) (*estat.StatsData, error) {
				return r.GetStatisticsData(ctx, p)
			})
			if err != nil {
				return err
			}
			if summary {
				return printSummary(data)
			}
			if err := out.emit(integrations.SourceEStat, normalize.StatsData(data), data); err != nil {
				return err
			}
			if data.NextKey > 0 {
				printNextStep("Next page", fmt.Sprintf("statbridge data %s --start %d", args[0], data.NextKey))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", pipeline.DefaultDataLimit, "maximum number of observations (1-10000)")
	cmd.Flags().IntVar(&start, "start", 0, "position of the first observation")
	cmd.Flags().BoolVar(&summary, "summary", false, "print totals per classification instead of rows")
	out.register(cmd)
	return cmd
}

func printSummary(data *estat.StatsData) error {
	s := normalize.Summarize(data)
	fmt.Println(StyleTitle.Render(data.Table.Title))
	printKeyValue(os.Stdout, "Total", chart.FormatValue(s.Total))
	printKeyValue(os.Stdout, "Counted", fmt.Sprint(s.Counted))
	printKeyValue(os.Stdout, "Skipped", fmt.Sprint(s.Skipped))
	for _, b := range s.Breakdowns {
		t := table.New("code", "label", "total")
		for _, cat := range b.ByTotal() {
			t.AppendValues(table.String(cat.Code), table.String(cat.Label), table.Number(cat.Total))
		}
		fmt.Println()
		name := b.Class
		if b.Name != "" {
			name += " " + b.Name
		}
		fmt.Println(StyleTitle.Render(name))
		fmt.Println(renderTable(t, 0))
	}
	return nil
}

// =============================================================================
// World Bank
// =============================================================================

func (c *CLI) indicatorCommand() *cobra.Command {
	var (
		out        outputOpts
		start, end int
	)
	cmd := &cobra.Command{
		Use:   "indicator <country> <indicator>",
		Short: "Fetch World Bank indicator values",
		Long: `Fetch World Bank indicator values for one or more countries.

Countries are ISO codes, several joined by ';'.

Examples:
  statbridge indicator JP SP.POP.TOTL
  statbridge indicator "JP;US;DE" NY.GDP.MKTP.CD --start 2000 --end 2023`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p := pipeline.IndicatorDataParams{CountryCode: args[0], IndicatorCode: args[1], StartYear: start, EndYear: end}
			points, err := spin(cmd.Context(), "Fetching World Bank indicator...", func(ctx context.Context) ([]worldbank.Point, error) {
				return r.GetIndicatorData(ctx, p)
			})
			if err != nil {
				return err
			}
			return out.emit(integrations.SourceWorldBank, normalize.Indicators(points), points)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "first year (1960-2100)")
	cmd.Flags().IntVar(&end, "end", 0, "last year (1960-2100)")
	out.register(cmd)
	return cmd
}

func (c *CLI) indicatorsCommand() *cobra.Command {
	var out outputOpts
	cmd := &cobra.Command{
		Use:   "indicators [search]",
		Short: "Search the World Bank indicator catalogue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			var p pipeline.SearchIndicatorsParams
			if len(args) > 0 {
				p.Search = args[0]
			}
			infos, err := spin(cmd.Context(), "Searching World Bank indicators...", func(ctx context.Context) ([]worldbank.IndicatorInfo, error) {
				return r.SearchIndicators(ctx, p)
			})
			if err != nil {
				return err
			}
			return out.emit(integrations.SourceWorldBank, normalize.IndicatorCatalog(infos), infos)
		},
	}
	out.register(cmd)
	return cmd
}

// =============================================================================
// OECD and Eurostat
// =============================================================================

func (c *CLI) sdmxCommand() *cobra.Command {
	var (
		out        outputOpts
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "sdmx <datasetId> [filter]",
		Short: "Fetch an OECD dataset (SDMX-JSON)",
		Long: `Fetch an OECD dataset through the SDMX REST API.

The table view flattens the SDMX dimensions into columns; --json prints the
raw SDMX-JSON message.

Examples:
  statbridge sdmx "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA" Q.JPN.B1GQ --start 2020-Q1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p := pipeline.SDMXParams{DatasetID: args[0], StartPeriod: start, EndPeriod: end}
			if len(args) > 1 {
				p.Filter = args[1]
			}
			if out.json {
				raw, err := spin(cmd.Context(), "Fetching OECD data...", func(ctx context.Context) (json.RawMessage, error) {
					return r.GetSDMXData(ctx, p)
				})
				if err != nil {
					return err
				}
				return out.writeRaw(raw)
			}
			return c.fetchTable(cmd.Context(), r, &out, integrations.SourceOECD, p)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first period (e.g. 2020-Q1)")
	cmd.Flags().StringVar(&end, "end", "", "last period (e.g. 2024-Q4)")
	out.register(cmd)
	return cmd
}

func (c *CLI) jsonstatCommand() *cobra.Command {
	var (
		out     outputOpts
		filters []string
		lang    string
	)
	cmd := &cobra.Command{
		Use:   "jsonstat <datasetCode>",
		Short: "Fetch a Eurostat dataset (JSON-stat)",
		Long: `Fetch a Eurostat dataset through the JSON-stat dissemination API.

Filters are dimension=value pairs; repeat a flag or separate values by
commas to select several values.

Examples:
  statbridge jsonstat nama_10_gdp --filter geo=DE,FR --filter unit=CP_MEUR
  statbridge jsonstat demo_pjan --filter geo=EU27_2020 --lang DE --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			p := pipeline.JSONStatParams{DatasetCode: args[0], Filters: f, Lang: lang}
			if out.json {
				raw, err := spin(cmd.Context(), "Fetching Eurostat data...", func(ctx context.Context) (json.RawMessage, error) {
					return r.GetJSONStatData(ctx, p)
				})
				if err != nil {
					return err
				}
				return out.writeRaw(raw)
			}
			return c.fetchTable(cmd.Context(), r, &out, integrations.SourceEurostat, p)
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "dimension filter, dimension=value[,value...]")
	cmd.Flags().StringVar(&lang, "lang", "EN", "label language (EN, DE, FR, IT, ES, PL, PT)")
	out.register(cmd)
	return cmd
}

// parseFilters turns "geo=DE,FR" flags into JSON-stat filters.
func parseFilters(flags []string) (map[string]pipeline.StringList, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := map[string]pipeline.StringList{}
	for _, f := range flags {
		dim, vals, ok := strings.Cut(f, "=")
		if !ok || dim == "" || vals == "" {
			return nil, fmt.Errorf("invalid filter %q (expected dimension=value)", f)
		}
		for _, v := range strings.Split(vals, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[dim] = append(out[dim], v)
			}
		}
	}
	return out, nil
}

// fetchTable runs the normalized fetch path for source and prints the table.
func (c *CLI) fetchTable(ctx context.Context, r *pipeline.Runner, out *outputOpts, source string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger, source)
	t, err := spin(ctx, "Fetching "+source+"...", func(ctx context.Context) (*table.Table, error) {
		return r.Fetch(ctx, source, raw)
	})
	if err != nil {
		return err
	}
	prog.done("fetched", t.Len())
	return out.emit(source, t, t)
}
