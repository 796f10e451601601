package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/infrastructure/cli/helpers"
)

// NewTemplatesCommand lists the built-in query templates or prints one.
func NewTemplatesCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "templates [name]",
		Short: "List built-in query templates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				text, err := query.Template(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}
			helpers.RenderTemplates(out, query.TemplateNames(), query.CommonQueries(), verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print template text as well as names")
	return cmd
}
