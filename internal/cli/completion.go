package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statbridge/pkg/export"
	"github.com/matzehuels/statbridge/pkg/integrations"
	"github.com/matzehuels/statbridge/pkg/integrations/eurostat"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/stats"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for statbridge.

Besides commands and flags, the scripts complete source ids (--source),
export formats, chart types, statistics and Eurostat languages.

Bash:
  $ source <(statbridge completion bash)

Zsh:
  $ statbridge completion zsh > "${fpath[1]}/_statbridge"

Fish:
  $ statbridge completion fish > ~/.config/fish/completions/statbridge.fish

PowerShell:
  PS> statbridge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// flagValues lists the fixed values of enumerated flags, per flag name.
func flagValues() map[string][]string {
	formats := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		formats[i] = string(f)
	}
	kinds := make([]string, len(stats.Kinds))
	for i, k := range stats.Kinds {
		kinds[i] = string(k)
	}
	return map[string][]string{
		"source":     integrations.Sources,
		"format":     formats,
		"type":       pipeline.ChartTypes,
		"statistics": kinds,
		"lang":       eurostat.Languages,
	}
}

// registerFlagCompletions attaches value completion to every enumerated
// flag of root's subcommands. --statistics takes a comma-separated list, so
// its candidates extend what is already typed.
func registerFlagCompletions(root *cobra.Command) {
	values := flagValues()
	for _, cmd := range root.Commands() {
		for name, vals := range values {
			if cmd.Flags().Lookup(name) == nil {
				continue
			}
			fn := cobra.FixedCompletions(vals, cobra.ShellCompDirectiveNoFileComp)
			if name == "statistics" {
				fn = func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
					return listCompletions(vals, toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
				}
			}
			_ = cmd.RegisterFlagCompletionFunc(name, fn)
		}
	}
}

// listCompletions completes the last element of a comma-separated list,
// skipping values already present.
func listCompletions(vals []string, toComplete string) []string {
	prefix := ""
	last := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	used := map[string]bool{}
	for _, v := range strings.Split(prefix, ",") {
		used[v] = true
	}
	var out []string
	for _, v := range vals {
		if !used[v] && strings.HasPrefix(v, last) {
			out = append(out, prefix+v)
		}
	}
	return out
}
