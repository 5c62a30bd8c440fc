package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/chart"
	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/stats"
	"github.com/matzehuels/statbridge/pkg/table"
	"github.com/matzehuels/statbridge/pkg/transform"
)

// inputOpts holds the source selection flags shared by the analysis
// commands.
type inputOpts struct {
	source    string
	params    string
	transform string
	filters   []string
	sorts     []string
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.source, "source", "s", "", "data source (estat, worldbank, oecd, eurostat)")
	cmd.Flags().StringVarP(&o.params, "params", "p", "", "source query as JSON, e.g. '{\"countryCode\":\"JP\",\"indicatorCode\":\"SP.POP.TOTL\"}'")
	cmd.Flags().StringVar(&o.transform, "transform", "", "transform options as JSON")
	cmd.Flags().StringArrayVar(&o.filters, "where", nil, "keep rows whose text column equals value, column=value (repeatable; numeric filters go through --transform)")
	cmd.Flags().StringArrayVar(&o.sorts, "sort", nil, "sort by column, column:desc for descending (repeatable)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("params")
}

// input assembles the pipeline input. --where and --sort are merged into the
// --transform document.
func (o *inputOpts) input() (pipeline.Input, error) {
	in := pipeline.Input{DataSource: o.source, DataParams: json.RawMessage(o.params)}
	if !json.Valid(in.DataParams) {
		return in, fmt.Errorf("--params is not valid JSON")
	}

	var opts transform.Options
	if o.transform != "" {
		if err := json.Unmarshal([]byte(o.transform), &opts); err != nil {
			return in, fmt.Errorf("--transform: %w", err)
		}
	}
	for _, w := range o.filters {
		col, val, ok := strings.Cut(w, "=")
		if !ok || col == "" {
			return in, fmt.Errorf("invalid --where %q (expected column=value)", w)
		}
		if opts.Filter == nil {
			opts.Filter = map[string]table.Value{}
		}
		opts.Filter[col] = table.String(val)
	}
	for _, s := range o.sorts {
		col, order, _ := strings.Cut(s, ":")
		if order == "" {
			order = transform.Asc
		}
		if order != transform.Asc && order != transform.Desc {
			return in, fmt.Errorf("invalid --sort %q (order must be asc or desc)", s)
		}
		opts.Sort = append(opts.Sort, transform.SortKey{Column: col, Order: order})
	}
	if !opts.IsZero() {
		in.Transform = &opts
	}
	return in, nil
}

// =============================================================================
// export
// =============================================================================

func (c *CLI) exportCommand() *cobra.Command {
	var (
		in     inputOpts
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export source data as CSV or JSON",
		Long: `Fetch data from a source, normalize and transform it, and write it as
csv, json, json-structured (rows plus metadata) or xlsx.

Examples:
  statbridge export -s worldbank -p '{"countryCode":"JP;US","indicatorCode":"SP.POP.TOTL"}' --format csv -o pop.csv
  statbridge export -s eurostat -p '{"datasetCode":"demo_pjan","filters":{"geo":["DE","FR"]}}' --sort time:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := in.input()
			if err != nil {
				return err
			}
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			res, err := spin(cmd.Context(), "Exporting...", func(ctx context.Context) (*export.Result, error) {
				return r.ExportData(ctx, pipeline.ExportParams{Input: input, Format: format})
			})
			if err != nil {
				return err
			}
			data, err := res.Bytes()
			if err != nil {
				return err
			}
			if res.Encoding != "" && output == "" {
				return fmt.Errorf("%s output is binary; write it to a file with -o", res.Format)
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			printShape(res.Metadata.Source, res.Metadata.RowCount, len(res.Metadata.Columns))
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatCSV), "output format (csv, json, json-structured, xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// =============================================================================
// stats
// =============================================================================

func (c *CLI) statsCommand() *cobra.Command {
	var (
		in          inputOpts
		statistics  []string
		groupBy     string
		valueColumn string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Calculate descriptive statistics over source data",
		Long: `Calculate descriptive statistics over the numeric value column of a
source query, optionally per group.

Available statistics: mean, median, mode, std, variance, min, max, range,
q1, q3, iqr. Count and sum are always reported.

Examples:
  statbridge stats -s worldbank -p '{"countryCode":"JP;US","indicatorCode":"SP.POP.TOTL"}' --statistics mean,max --group-by country_name`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := in.input()
			if err != nil {
				return err
			}
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p := pipeline.StatisticsParams{Input: input, Statistics: statistics, GroupBy: groupBy, ValueColumn: valueColumn}
			rep, err := spin(cmd.Context(), "Calculating statistics...", func(ctx context.Context) (*pipeline.StatisticsReport, error) {
				return r.CalculateStatistics(ctx, p)
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, rep)
			}
			fmt.Println(renderTable(reportTable(rep, statistics), 0))
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringSliceVar(&statistics, "statistics", []string{"mean", "median", "min", "max"}, "statistics to calculate")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "column to group by")
	cmd.Flags().StringVar(&valueColumn, "value-column", "", "numeric column (default \"value\")")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// reportTable lays a report out with one row per group and one column per
// statistic.
func reportTable(rep *pipeline.StatisticsReport, names []string) *table.Table {
	kinds := make([]stats.Kind, 0, len(names))
	cols := []string{"count", "sum"}
	for _, n := range names {
		if k, ok := stats.ParseKind(n); ok {
			kinds = append(kinds, k)
			cols = append(cols, string(k))
		}
	}
	row := func(res stats.Result) []table.Value {
		vals := []table.Value{table.Number(float64(res.Count)), statValue(res.Sum)}
		for _, k := range kinds {
			v, _ := res.Get(k)
			vals = append(vals, statValue(v))
		}
		return vals
	}

	if rep.GroupBy == "" {
		t := table.New(cols...)
		if rep.Result != nil {
			t.AppendValues(row(*rep.Result)...)
		}
		return t
	}
	t := table.New(append([]string{rep.GroupBy}, cols...)...)
	for _, g := range rep.Groups {
		t.AppendValues(append([]table.Value{table.String(g.Key)}, row(g.Result)...)...)
	}
	return t
}

func statValue(v float64) table.Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return table.Null()
	}
	return table.Number(v)
}

// =============================================================================
// chart
// =============================================================================

func (c *CLI) chartCommand() *cobra.Command {
	var (
		in          inputOpts
		p           pipeline.ChartParams
		output      string
		noLegend    bool
		noAttribute bool
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render source data as an SVG chart",
		Long: `Render a source query as a line, bar or pie chart in SVG.

Label, series and value columns are chosen per source; override them with
--label-column, --series-column and --value-column.

Examples:
  statbridge chart -s worldbank -p '{"countryCode":"JP;DE","indicatorCode":"NY.GDP.MKTP.CD","startYear":2000}' -o gdp.svg
  statbridge chart -s eurostat -p '{"datasetCode":"demo_pjan","filters":{"time":"2023"}}' --type pie --series-column geo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := in.input()
			if err != nil {
				return err
			}
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			p.Input = input
			if noLegend {
				p.ShowLegend = boolPtr(false)
			}
			if noAttribute {
				p.Attribution = boolPtr(false)
			}
			res, err := spin(cmd.Context(), "Rendering chart...", func(ctx context.Context) (*pipeline.ChartResult, error) {
				return r.GenerateChart(ctx, p)
			})
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := fmt.Fprint(os.Stdout, res.SVG)
				return err
			}
			if err := writeOutput(output, []byte(res.SVG)); err != nil {
				return err
			}
			printSuccess("Rendered %s chart with %d series", res.ChartType, res.Series)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&p.ChartType, "type", "t", pipeline.ChartLine, "chart type (line, bar, pie)")
	cmd.Flags().StringVar(&p.Title, "title", "", "chart title")
	cmd.Flags().StringVar(&p.XLabel, "x-label", "", "x axis label")
	cmd.Flags().StringVar(&p.YLabel, "y-label", "", "y axis label")
	cmd.Flags().IntVar(&p.Width, "width", chart.DefaultWidth, "canvas width in pixels")
	cmd.Flags().IntVar(&p.Height, "height", chart.DefaultHeight, "canvas height in pixels")
	cmd.Flags().StringVar(&p.LabelColumn, "label-column", "", "column for x axis labels")
	cmd.Flags().StringVar(&p.SeriesColumn, "series-column", "", "column that splits series")
	cmd.Flags().StringVar(&p.ValueColumn, "value-column", "", "numeric column")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "omit the legend")
	cmd.Flags().BoolVar(&noAttribute, "no-attribution", false, "omit the source attribution line")
	cmd.Flags().StringVarP(&output, "output", "o", "chart.svg", "output file (- for stdout)")
	return cmd
}

func boolPtr(b bool) *bool { return &b }

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
