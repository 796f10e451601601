// Package cli assembles the unigraph command tree.
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/unigraph/internal/app"
	"github.com/doeshing/unigraph/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}
	cobra.OnFinalize(func() {
		_ = container.Close()
	})

	queryCmd := commands.NewQueryCommand(container)

	root := &cobra.Command{
		Use:   "unigraph [sparql]",
		Short: "Query the university knowledge graph",
		Long: "unigraph runs SPARQL queries against the university knowledge graph,\n" +
			"caching results per normalized query and tracking execution history.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return queryCmd.RunE(cmd, []string{strings.Join(args, " ")})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.Verbose, "verbose", opts.Verbose, "Log debug output to stderr (also UNIGRAPH_DEBUG=1)")

	root.AddCommand(
		queryCmd,
		commands.NewTemplatesCommand(),
		commands.NewConsoleCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewMCPCommand(container),
		commands.NewVersionCommand(),
	)
	return root, nil
}
