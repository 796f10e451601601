package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/doeshing/unigraph/internal/app"
	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/domain"
	"github.com/doeshing/unigraph/internal/infrastructure/cli/helpers"
)

const consoleHelp = `Enter a SPARQL query on one line, or one of:
  :history [n]       show the last n executions (default 50)
  :rerun <n>         run history entry n again (1 is the newest)
  :clear-history     forget execution history
  :clear-cache       drop cached results
  :cache             show cache statistics and contents
  :templates         list built-in templates
  :template <name>   run a built-in template
  :limit <n>         set the LIMIT appended to queries without one
  :format <fmt>      set output format (table|json|csv)
  :quit              leave the console`

// NewConsoleCommand creates the interactive console command
func NewConsoleCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "console",
		Aliases: []string{"repl"},
		Short:   "Interactive query console sharing one cache and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.RequireQueryService()
			if err != nil {
				return err
			}
			session := NewConsoleSession(svc, container.Config, cmd.OutOrStdout())
			in := cmd.InOrStdin()
			if !helpers.IsTerminal(in) {
				return session.RunLines(cmd.Context(), in)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unigraph console. Type :help for commands, :quit to exit.")
			session.RunInteractive(cmd.Context())
			return nil
		},
	}
}

// ConsoleSession executes console input against one query service.
type ConsoleSession struct {
	service *query.Service
	cfg     domain.Config
	out     io.Writer
	limit   int
	format  string
}

// NewConsoleSession builds a session using cfg for limit and format defaults.
func NewConsoleSession(service *query.Service, cfg domain.Config, out io.Writer) *ConsoleSession {
	format := cfg.Query.OutputFormat
	if format == "" {
		format = domain.FormatTable
	}
	return &ConsoleSession{
		service: service,
		cfg:     cfg,
		out:     out,
		limit:   cfg.EffectiveLimit(0),
		format:  format,
	}
}

// RunLines executes one query or command per input line until EOF or :quit.
func (s *ConsoleSession) RunLines(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if s.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// RunInteractive starts a go-prompt loop.
func (s *ConsoleSession) RunInteractive(ctx context.Context) {
	p := prompt.New(
		func(in string) { s.Execute(ctx, in) },
		s.complete,
		prompt.OptionPrefix("sparql> "),
		prompt.OptionTitle("unigraph"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && isQuitCommand(strings.TrimSpace(in))
		}),
	)
	p.Run()
}

// Execute handles one line of input and reports whether the session should end.
func (s *ConsoleSession) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		s.runQuery(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch {
	case isQuitCommand(name):
		return true
	case name == ":help":
		fmt.Fprintln(s.out, consoleHelp)
	case name == ":history":
		limit := domain.DefaultHistoryListLimit
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				fmt.Fprintf(s.out, "error: invalid history count %q\n", args[0])
				return false
			}
			limit = n
		}
		helpers.RenderHistory(s.out, s.service.QueryHistory(limit))
	case name == ":rerun":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: :rerun <n>")
			return false
		}
		entries := s.service.QueryHistory(0)
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 || n > len(entries) {
			fmt.Fprintf(s.out, "error: no history entry %q (have %d)\n", args[0], len(entries))
			return false
		}
		text := entries[len(entries)-n].Query
		fmt.Fprintln(s.out, helpers.PreviewQuery(text, domain.HistoryPreviewWidth))
		s.runQuery(ctx, text)
	case name == ":clear-history":
		s.service.ClearHistory()
		fmt.Fprintln(s.out, MsgHistoryCleared)
	case name == ":clear-cache":
		s.service.ClearCache()
		fmt.Fprintln(s.out, MsgCacheCleared)
	case name == ":cache":
		helpers.RenderStats(s.out, s.service.Stats())
		helpers.RenderCachedResults(s.out, s.service.CachedResults())
	case name == ":templates":
		helpers.RenderTemplates(s.out, query.TemplateNames(), nil, false)
	case name == ":template":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: :template <name>")
			return false
		}
		text, err := query.Template(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		s.runQuery(ctx, text)
	case name == ":limit":
		if len(args) != 1 {
			fmt.Fprintf(s.out, "limit: %d\n", s.limit)
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(s.out, "error: invalid limit %q\n", args[0])
			return false
		}
		s.limit = s.cfg.EffectiveLimit(n)
		fmt.Fprintf(s.out, "limit: %d\n", s.limit)
	case name == ":format":
		if len(args) != 1 {
			fmt.Fprintf(s.out, "format: %s\n", s.format)
			return false
		}
		if !helpers.ValidFormat(args[0]) {
			fmt.Fprintf(s.out, "error: unknown format %q (want table|json|csv)\n", args[0])
			return false
		}
		s.format = strings.ToLower(args[0])
		fmt.Fprintf(s.out, "format: %s\n", s.format)
	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", name)
	}
	return false
}

func (s *ConsoleSession) runQuery(ctx context.Context, text string) {
	resp, err := s.service.ExecuteQuery(ctx, domain.QueryRequest{Text: text, Limit: s.limit})
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if err := helpers.RenderResponse(s.out, resp, s.format); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func isQuitCommand(in string) bool {
	switch in {
	case ":quit", ":q", ":exit":
		return true
	}
	return false
}

var consoleSuggestions = []prompt.Suggest{
	{Text: ":history", Description: ":history [n] Show recent executions"},
	{Text: ":rerun", Description: ":rerun <n> Run history entry n again"},
	{Text: ":clear-history", Description: "Forget execution history"},
	{Text: ":clear-cache", Description: "Drop cached results"},
	{Text: ":cache", Description: "Show cache statistics"},
	{Text: ":templates", Description: "List built-in templates"},
	{Text: ":template", Description: ":template <name> Run a built-in template"},
	{Text: ":limit", Description: ":limit <n> Set default LIMIT"},
	{Text: ":format", Description: ":format <table|json|csv>"},
	{Text: ":help", Description: "Show help"},
	{Text: ":quit", Description: "Exit"},
}

var keywordSuggestions = []prompt.Suggest{
	{Text: "SELECT"}, {Text: "DISTINCT"}, {Text: "WHERE"}, {Text: "OPTIONAL"},
	{Text: "FILTER"}, {Text: "ORDER BY"}, {Text: "GROUP BY"}, {Text: "LIMIT"},
	{Text: "ASK"}, {Text: "DESCRIBE"}, {Text: "CONSTRUCT"}, {Text: "PREFIX"},
	{Text: "rdf:type"}, {Text: "rdfs:label"},
}

func (s *ConsoleSession) complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	word := d.GetWordBeforeCursor()
	if strings.HasPrefix(before, ":template ") {
		var names []prompt.Suggest
		for _, name := range query.TemplateNames() {
			names = append(names, prompt.Suggest{Text: name})
		}
		return prompt.FilterHasPrefix(names, word, true)
	}
	if strings.HasPrefix(before, ":format ") {
		formats := []prompt.Suggest{{Text: domain.FormatTable}, {Text: domain.FormatJSON}, {Text: domain.FormatCSV}}
		return prompt.FilterHasPrefix(formats, word, true)
	}
	if word == "" {
		return nil
	}
	if strings.HasPrefix(word, ":") {
		return prompt.FilterHasPrefix(consoleSuggestions, word, true)
	}
	return prompt.FilterHasPrefix(keywordSuggestions, word, true)
}
