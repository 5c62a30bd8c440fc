package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/server"
	"github.com/matzehuels/statbridge/pkg/table"
	"github.com/matzehuels/statbridge/pkg/tools"
)

// serveCommand starts the HTTP tool server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over HTTP",
		Long: `Serve every tool over HTTP until interrupted.

Routes:
  GET  /healthz        liveness probe
  GET  /tools          tool names, descriptions and input schemas
  POST /tools/{name}   call a tool with a JSON arguments body
  GET  /sources        configured data sources`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			r, err := c.newRunner(cfg)
			if err != nil {
				return err
			}
			h := server.NewHTTP(tools.NewRegistry(r), r, c.Logger, server.WithMaxInFlight(cfg.MaxInFlight))
			return h.ListenAndServe(cmd.Context(), cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

// mcpCommand serves the tools as JSON-RPC over stdin and stdout.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over stdio (JSON-RPC)",
		Long: `Serve every tool as newline-delimited JSON-RPC 2.0 on stdin and stdout,
for use by tool-calling clients. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Logger.SetOutput(os.Stderr)
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			s := server.NewStdio(tools.NewRegistry(r), r, c.Logger)
			return s.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

// toolsCommand lists the registered tools.
func (c *CLI) toolsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			list := tools.NewRegistry(r).List()
			if asJSON {
				return writeJSON(os.Stdout, list)
			}
			t := table.New("name", "description")
			for _, tool := range list {
				desc, _, _ := strings.Cut(tool.Description, ". ")
				t.AppendValues(table.String(tool.Name), table.String(desc))
			}
			fmt.Println(renderTable(t, 0))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print names, descriptions and input schemas as JSON")
	return cmd
}

// sourcesCommand lists the data sources and their configuration.
func (c *CLI) sourcesCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.runner(cmd.Context())
			if err != nil {
				return err
			}
			infos := r.Sources()
			if asJSON {
				return writeJSON(os.Stdout, infos)
			}
			for i, s := range infos {
				if i > 0 {
					fmt.Println()
				}
				status := StyleSuccess.Render("enabled")
				if !s.Enabled {
					status = StyleWarning.Render("disabled")
				}
				fmt.Println(StyleTitle.Render(s.Name) + " " + StyleDim.Render("("+s.ID+")") + " " + status)
				printKeyValue(os.Stdout, "Description", s.Description)
				printKeyValue(os.Stdout, "License", s.License)
				printKeyValue(os.Stdout, "Endpoint", StyleLink.Render(s.BaseURL))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
