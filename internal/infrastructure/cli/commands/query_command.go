package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/unigraph/internal/app"
	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/infrastructure/cli/helpers"
)

type queryFlags struct {
	template string
	file     string
	limit    int
	timeout  time.Duration
	format   string
	validate bool
}

// NewQueryCommand creates the query command
func NewQueryCommand(container *app.Container) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query [sparql]",
		Short: "Run a SPARQL query against the configured endpoint",
		Long: "Run a SPARQL query. Queries without a LIMIT clause get one appended; " +
			"repeated queries within a session are served from the result cache.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveQueryText(args, flags.template, flags.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runQuery(cmd, container, text, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.template, "template", "t", "", "Run a built-in query template (see 'unigraph templates')")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read query text from a file ('-' for stdin)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "LIMIT appended when the query has none (default from config)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Store timeout (default from config)")
	cmd.Flags().StringVarP(&flags.format, "format", "o", "", "Output format: table|json|csv (default from config)")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "Check query structure before sending it")

	return cmd
}

func resolveQueryText(args []string, template, file string, stdin io.Reader) (string, error) {
	switch {
	case template != "":
		return query.Template(template)
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	return "", errors.New(ErrQueryOrTemplateRequired)
}

func runQuery(cmd *cobra.Command, container *app.Container, text string, flags queryFlags) error {
	svc, err := container.RequireQueryService()
	if err != nil {
		return err
	}
	if flags.validate {
		if err := query.Validate(text); err != nil {
			return err
		}
	}
	format := flags.format
	if format == "" {
		format = container.Config.Query.OutputFormat
	}
	if !helpers.ValidFormat(format) {
		return fmt.Errorf("unknown output format %q (want table|json|csv)", format)
	}

	req := domain.QueryRequest{
		Text:           text,
		Limit:          container.Config.EffectiveLimit(flags.limit),
		TimeoutSeconds: timeoutSeconds(flags.timeout),
	}

	spinner := helpers.NewSpinner(cmd.ErrOrStderr())
	spinner.Start()
	resp, err := svc.ExecuteQuery(cmd.Context(), req)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return helpers.RenderResponse(cmd.OutOrStdout(), resp, format)
}

// timeoutSeconds rounds d up to whole seconds; 0 keeps the configured default.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
