package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/featured"
	"github.com/at-ishikawa/cinelog/internal/thread"
	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

type OutputFlag string

const (
	OutputTable OutputFlag = "table"
	OutputYAML  OutputFlag = "yaml"
	OutputJSON  OutputFlag = "json"
)

// Set implements pflag.Value.
func (o *OutputFlag) Set(v string) error {
	switch OutputFlag(v) {
	case OutputTable, OutputYAML, OutputJSON:
		*o = OutputFlag(v)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q, %q or %q", v, OutputTable, OutputYAML, OutputJSON)
	}
	return nil
}

// String implements pflag.Value.
func (o *OutputFlag) String() string {
	if o == nil {
		return ""
	}
	return string(*o)
}

// Type implements pflag.Value.
func (o *OutputFlag) Type() string {
	return "OutputFlag"
}

type TabFlag watchlist.Tab

// Set implements pflag.Value.
func (t *TabFlag) Set(v string) error {
	for _, tab := range watchlist.AllTabs {
		if string(tab) == v {
			*t = TabFlag(tab)
			return nil
		}
	}
	return fmt.Errorf("invalid value %q, valid values are %q, %q or %q", v, watchlist.TabAll, watchlist.TabToWatch, watchlist.TabWatched)
}

// String implements pflag.Value.
func (t *TabFlag) String() string {
	if t == nil {
		return ""
	}
	return string(*t)
}

// Type implements pflag.Value.
func (t *TabFlag) Type() string {
	return "TabFlag"
}

var (
	_ pflag.Value = (*OutputFlag)(nil)
	_ pflag.Value = (*TabFlag)(nil)
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func printStructured(w io.Writer, format OutputFlag, v any) error {
	switch format {
	case OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("yaml.Encode() > %w", err)
		}
		return encoder.Close()
	case OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("json.Encode() > %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported output %q", format)
}

func printMovies(w io.Writer, movies []catalog.Movie) {
	if len(movies) == 0 {
		_, _ = faint.Fprintln(w, "No movies found.")
		return
	}
	for _, movie := range movies {
		_, _ = fmt.Fprintf(w, "%s  %s", movie.ID, bold.Sprint(movie.Title))
		if movie.Year != "" {
			_, _ = fmt.Fprintf(w, " (%s)", movie.Year)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printItems(w io.Writer, items []watchlist.Item, format OutputFlag) error {
	if format != OutputTable {
		return printStructured(w, format, items)
	}
	if len(items) == 0 {
		_, _ = faint.Fprintln(w, "The watch list is empty.")
		return nil
	}
	for _, item := range items {
		printItem(w, item)
	}
	return nil
}

func printItem(w io.Writer, item watchlist.Item) {
	status := yellow.Sprint("to watch")
	if item.Watched {
		status = green.Sprint("watched")
	}
	_, _ = fmt.Fprintf(w, "%4d  %-9s %s  %s", item.ID, item.CatalogID, bold.Sprint(item.Title), status)
	if item.Rating != nil {
		_, _ = fmt.Fprintf(w, "  %s", strings.Repeat("*", *item.Rating))
	}
	_, _ = fmt.Fprintln(w)
	if item.Notes != nil {
		_, _ = faint.Fprintf(w, "      %s\n", *item.Notes)
	}
}

func printNotes(w io.Writer, notes []thread.Note, now time.Time) {
	if len(notes) == 0 {
		_, _ = faint.Fprintln(w, "No notes yet.")
		return
	}
	for _, note := range notes {
		printNote(w, note, now, "")
		if note.RepliesShown {
			for _, reply := range note.Replies {
				printNote(w, reply, now, "    ")
			}
		}
	}
}

func printNote(w io.Writer, note thread.Note, now time.Time, indent string) {
	header := fmt.Sprintf("#%d", note.ID)
	if !note.IsReply() {
		header += " " + bold.Sprint(note.Title)
	}
	_, _ = fmt.Fprintf(w, "%s%s  %s", indent, header, faint.Sprintf("by %s %s", note.AuthorUsername, note.TimeAgo(now)))
	if note.Edited {
		_, _ = faint.Fprint(w, " (edited)")
	}
	if !note.IsReply() && note.ReplyCount > 0 {
		_, _ = fmt.Fprintf(w, "  [%d %s]", note.ReplyCount, plural(note.ReplyCount, "reply", "replies"))
	}
	_, _ = fmt.Fprintf(w, "\n%s  %s\n", indent, note.Content)
}

func printFeatured(w io.Writer, entry featured.Entry) {
	movie := entry.Movie
	_, _ = fmt.Fprintf(w, "Movie of the day (%s)\n", entry.DateKey)
	_, _ = bold.Fprintf(w, "%s", movie.Title)
	if movie.Year != "" {
		_, _ = fmt.Fprintf(w, " (%s)", movie.Year)
	}
	_, _ = fmt.Fprintf(w, "  %s\n", movie.ID)
	for _, field := range []struct{ label, value string }{
		{"Genre", movie.Genre},
		{"Runtime", movie.Runtime},
		{"Director", movie.Director},
		{"Actors", movie.Actors},
	} {
		if field.value != "" {
			_, _ = fmt.Fprintf(w, "%-9s %s\n", field.label+":", field.value)
		}
	}
	if movie.Rating != nil {
		_, _ = fmt.Fprintf(w, "%-9s %s\n", "IMDb:", *movie.Rating)
	}
	if movie.Plot != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", movie.Plot)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
