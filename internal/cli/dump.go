package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/dump"
)

// dumpCommand creates the dump management command.
func (c *CLI) dumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Manage dumped upstream responses",
		Long: `Manage the directory raw upstream responses are written to when --dump
(or dump_dir in the config file) is set.`,
	}

	cmd.AddCommand(c.dumpClearCommand())
	cmd.AddCommand(c.dumpPathCommand())

	return cmd
}

// dumpClearCommand creates the "dump clear" subcommand.
func (c *CLI) dumpClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all dumped responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.resolveDumpDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Dump directory is empty")
				return nil
			}

			d, err := dump.NewDir(dir)
			if err != nil {
				return err
			}
			count, err := d.Clear()
			if err != nil {
				return err
			}
			printSuccess("Removed %d dumped responses", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// dumpPathCommand creates the "dump path" subcommand.
func (c *CLI) dumpPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the dump directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.resolveDumpDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// resolveDumpDir returns the configured dump directory, falling back to
// [dump.DefaultDir].
func (c *CLI) resolveDumpDir() (string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.DumpDir != "" {
		return cfg.DumpDir, nil
	}
	dir, err := dump.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("get dump dir: %w", err)
	}
	return dir, nil
}
