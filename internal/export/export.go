// Package export renders the watch list as Markdown and PDF.
package export

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

const embeddedTemplateName = "watchlist.md.go.tmpl"

//go:embed templates/watchlist.md.go.tmpl
var fallbackWatchlistTemplate string

type templateData struct {
	ExportedAt time.Time
	ToWatch    []watchlist.Item
	Watched    []watchlist.Item
}

// Options configures a watch list export.
type Options struct {
	// TemplatePath overrides the embedded template when it points at a readable file.
	TemplatePath string
	PDF          bool
	Now          func() time.Time
}

// Result lists the files an export produced.
type Result struct {
	MarkdownPath string
	PDFPath      string
}

// ParseTemplate parses the template at templatePath, falling back to the embedded one.
func ParseTemplate(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"stars": stars,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(embeddedTemplateName).
		Funcs(funcMap).
		Parse(fallbackWatchlistTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// WriteMarkdown renders items grouped into the to-watch and watched sections.
func WriteMarkdown(w io.Writer, tmpl *template.Template, items []watchlist.Item, exportedAt time.Time) error {
	data := templateData{
		ExportedAt: exportedAt,
		ToWatch:    filter(items, watchlist.TabToWatch),
		Watched:    filter(items, watchlist.TabWatched),
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

// Watchlist writes items to markdownPath and, when requested, a PDF next to it.
func Watchlist(markdownPath string, items []watchlist.Item, opts Options) (Result, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return Result{}, fmt.Errorf("output file must have .md extension: %s", markdownPath)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	tmpl, err := ParseTemplate(opts.TemplatePath)
	if err != nil {
		return Result{}, fmt.Errorf("ParseTemplate() > %w", err)
	}

	if dir := filepath.Dir(markdownPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Result{}, fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}
	file, err := os.Create(markdownPath)
	if err != nil {
		return Result{}, fmt.Errorf("os.Create(%s) > %w", markdownPath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := WriteMarkdown(file, tmpl, items, now()); err != nil {
		return Result{}, fmt.Errorf("WriteMarkdown() > %w", err)
	}
	if err := file.Close(); err != nil {
		return Result{}, fmt.Errorf("file.Close() > %w", err)
	}

	result := Result{MarkdownPath: markdownPath}
	if opts.PDF {
		pdfPath, err := ConvertMarkdownToPDF(markdownPath)
		if err != nil {
			return result, fmt.Errorf("ConvertMarkdownToPDF() > %w", err)
		}
		result.PDFPath = pdfPath
	}
	return result, nil
}

// ConvertMarkdownToPDF converts a markdown file to a PDF in the same directory.
func ConvertMarkdownToPDF(markdownPath string) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}

func filter(items []watchlist.Item, tab watchlist.Tab) []watchlist.Item {
	var filtered []watchlist.Item
	for _, item := range items {
		if tab.Includes(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func stars(rating *int) string {
	if rating == nil || *rating < 0 || *rating > 5 {
		return "not rated"
	}
	return strings.Repeat("★", *rating) + strings.Repeat("☆", 5-*rating)
}
