package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/unigraph/internal/domain"
)

// RenderResponse prints a query result in the requested format followed by a
// one-line summary on table output.
func RenderResponse(out io.Writer, resp domain.QueryResponse, format string) error {
	switch strings.ToLower(format) {
	case domain.FormatJSON:
		return renderJSON(out, resp)
	case domain.FormatCSV:
		return renderCSV(out, resp.Result)
	case "", domain.FormatTable:
		renderTable(out, resp.Result)
		fmt.Fprintln(out, summaryLine(resp))
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table|json|csv)", format)
	}
}

// ValidFormat reports whether format names a supported renderer.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case domain.FormatTable, domain.FormatJSON, domain.FormatCSV:
		return true
	}
	return false
}

func summaryLine(resp domain.QueryResponse) string {
	source := "store"
	if resp.FromCache {
		source = "cache"
	}
	rows := resp.Result.Len()
	noun := "rows"
	if rows == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%s %s from %s in %s", humanize.Comma(int64(rows)), noun, source, resp.Duration.Round(time.Millisecond))
}

func renderTable(out io.Writer, rs domain.ResultSet) {
	if len(rs.Vars) == 0 {
		fmt.Fprintln(out, "(no columns)")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rs.Vars, "\t"))
	dashes := make([]string, len(rs.Vars))
	for i, name := range rs.Vars {
		dashes[i] = strings.Repeat("-", len(name))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, row := range rs.Rows {
		cells := make([]string, len(rs.Vars))
		for i, name := range rs.Vars {
			cells[i] = sanitizeCell(row.Get(name).LocalName())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func sanitizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type jsonResult struct {
	Query     string                   `json:"query"`
	FromCache bool                     `json:"from_cache"`
	ElapsedMS int64                    `json:"elapsed_ms"`
	Vars      []string                 `json:"vars"`
	Rows      []map[string]interface{} `json:"rows"`
}

func renderJSON(out io.Writer, resp domain.QueryResponse) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{
		Query:     resp.Query,
		FromCache: resp.FromCache,
		ElapsedMS: resp.Duration.Milliseconds(),
		Vars:      resp.Result.Vars,
		Rows:      resp.Result.Records(),
	})
}

func renderCSV(out io.Writer, rs domain.ResultSet) error {
	w := csv.NewWriter(out)
	if err := w.Write(rs.Vars); err != nil {
		return err
	}
	for _, row := range rs.Rows {
		record := make([]string, len(rs.Vars))
		for i, name := range rs.Vars {
			record[i] = row.Get(name).String()
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// PreviewQuery flattens a query onto one line and truncates it to width runes.
func PreviewQuery(query string, width int) string {
	flat := strings.Join(strings.Fields(query), " ")
	if width <= 0 || utf8.RuneCountInString(flat) <= width {
		return flat
	}
	return string([]rune(flat)[:width]) + "..."
}

// RenderHistory prints entries most recent first.
func RenderHistory(out io.Writer, entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history recorded yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIMESTAMP\tAGE\tRESULTS\tTIME (S)\tQUERY")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		query := PreviewQuery(e.Query, domain.HistoryPreviewWidth)
		if e.FromCache {
			query = "[cached] " + query
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.3f\t%s\n",
			len(entries)-i,
			e.Timestamp.Local().Format(domain.DisplayTimestampFormat),
			humanize.Time(e.Timestamp),
			e.ResultCount,
			e.ExecutionSeconds(),
			query)
	}
	_ = tw.Flush()
}

// RenderStats prints cache and history occupancy.
func RenderStats(out io.Writer, stats domain.CacheStats) {
	lookups := stats.Hits + stats.Misses
	ratio := 0.0
	if lookups > 0 {
		ratio = float64(stats.Hits) / float64(lookups) * 100
	}
	fmt.Fprintf(out, "Cached results: %s / %s\n", humanize.Comma(int64(stats.Entries)), humanize.Comma(int64(stats.Capacity)))
	fmt.Fprintf(out, "Hits: %s  Misses: %s  Hit rate: %.1f%%\n",
		humanize.Comma(int64(stats.Hits)), humanize.Comma(int64(stats.Misses)), ratio)
	fmt.Fprintf(out, "History entries: %d / %d\n", stats.HistoryLen, stats.HistoryCapacity)
}

// RenderCachedResults lists cache contents from least to most recently used.
func RenderCachedResults(out io.Writer, cached []domain.CachedResult) {
	if len(cached) == 0 {
		fmt.Fprintln(out, "No cached results.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tROWS\tCACHED\tQUERY")
	for _, c := range cached {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			shortKey(c.Key),
			c.Result.Len(),
			humanize.Time(c.CreatedAt),
			PreviewQuery(c.Query, domain.HistoryPreviewWidth))
	}
	_ = tw.Flush()
}

// RenderTemplates prints template names, optionally with their text.
func RenderTemplates(out io.Writer, names []string, templates map[string]string, verbose bool) {
	for _, name := range names {
		if !verbose {
			fmt.Fprintln(out, name)
			continue
		}
		fmt.Fprintf(out, "# %s\n%s\n\n", name, strings.TrimSpace(templates[name]))
	}
}

// RenderHealthReport prints doctor checks one per line.
func RenderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
