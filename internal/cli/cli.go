// Package cli implements the statbridge command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/buildinfo"
	"github.com/matzehuels/statbridge/pkg/config"
	"github.com/matzehuels/statbridge/pkg/dump"
	"github.com/matzehuels/statbridge/pkg/observability"
	"github.com/matzehuels/statbridge/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	dumpDir    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "statbridge",
		Short: "Statbridge queries public statistics APIs through one interface",
		Long: `Statbridge fetches data from e-Stat, the World Bank, the OECD and Eurostat,
normalizes it into one tabular model, and reshapes, summarizes, charts or
exports it. The same operations are served as tools over stdio (mcp) and HTTP
(serve).`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/statbridge/config.toml)")
	root.PersistentFlags().StringVar(&c.dumpDir, "dump", "", "write every raw upstream response under this directory")

	root.AddGroup(
		&cobra.Group{ID: groupFetch, Title: "Fetch Commands:"},
		&cobra.Group{ID: groupAnalyze, Title: "Analysis Commands:"},
		&cobra.Group{ID: groupServe, Title: "Server Commands:"},
	)

	// Register all subcommands
	for _, cmd := range []*cobra.Command{
		c.searchCommand(),
		c.dataCommand(),
		c.indicatorCommand(),
		c.indicatorsCommand(),
		c.sdmxCommand(),
		c.jsonstatCommand(),
		c.browseCommand(),
	} {
		cmd.GroupID = groupFetch
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		c.exportCommand(),
		c.statsCommand(),
		c.chartCommand(),
	} {
		cmd.GroupID = groupAnalyze
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		c.serveCommand(),
		c.mcpCommand(),
		c.toolsCommand(),
		c.sourcesCommand(),
	} {
		cmd.GroupID = groupServe
		root.AddCommand(cmd)
	}
	root.AddCommand(c.dumpCommand())
	root.AddCommand(c.completionCommand())
	registerFlagCompletions(root)

	return root
}

const (
	groupFetch   = "fetch"
	groupAnalyze = "analyze"
	groupServe   = "serve"
)

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the layered configuration and applies the global flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dumpDir != "" {
		cfg.DumpDir = c.dumpDir
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg *config.Config) (*pipeline.Runner, error) {
	opts := []pipeline.Option{pipeline.WithHooks(observability.NewLogHooks(c.Logger))}
	if cfg.DumpDir != "" {
		dir, err := dump.NewDir(cfg.DumpDir)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("dumping responses", "dir", dir.Root())
		opts = append(opts, pipeline.WithDump(dir))
	}
	return pipeline.NewRunner(cfg, c.Logger, opts...), nil
}

// runner loads the configuration and builds a runner in one step.
func (c *CLI) runner(_ context.Context) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newRunner(cfg)
}
