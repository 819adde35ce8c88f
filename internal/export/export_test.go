package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

func ptr[T any](v T) *T {
	return &v
}

var exportedAt = time.Date(2024, 7, 4, 18, 30, 0, 0, time.UTC)

func TestWriteMarkdown(t *testing.T) {
	tests := []struct {
		name         string
		items        []watchlist.Item
		wantContains []string
		wantMissing  []string
	}{
		{
			name: "groups items by tab",
			items: []watchlist.Item{
				{ID: 1, CatalogID: "tt0133093", Title: "The Matrix", Year: "1999", CatalogRating: ptr("8.7")},
				{ID: 2, CatalogID: "tt0110912", Title: "Pulp Fiction", Year: "1994", Watched: true, Rating: ptr(4), Notes: ptr("royale with cheese")},
				{ID: 3, CatalogID: "tt0209144", Title: "Memento", Watched: true},
			},
			wantContains: []string{
				"Exported 2024-07-04 18:30 UTC",
				"## To watch (1)",
				"- **The Matrix** (1999) - IMDb 8.7",
				"## Watched (2)",
				"### Pulp Fiction (1994)",
				"- Rating: ★★★★☆",
				"- Notes: royale with cheese",
				"### Memento\n",
				"- Rating: not rated",
			},
		},
		{
			name:         "empty list",
			items:        nil,
			wantContains: []string{"## To watch (0)", "Nothing left to watch.", "## Watched (0)"},
		},
		{
			name: "everything watched",
			items: []watchlist.Item{
				{ID: 1, Title: "Heat", Watched: true, Rating: ptr(5)},
			},
			wantContains: []string{"Nothing left to watch.", "★★★★★"},
			wantMissing:  []string{"Notes:"},
		},
	}

	tmpl, err := ParseTemplate("")
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteMarkdown(&buf, tmpl, tt.items, exportedAt))

			got := buf.String()
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, got, missing)
			}
		})
	}
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name         string
		templatePath func(t *testing.T) string
		wantName     string
		wantOutput   string
	}{
		{
			name: "uses filesystem template when available",
			templatePath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "custom.md.go.tmpl")
				require.NoError(t, os.WriteFile(path, []byte(`{{ range .Watched }}{{ .Title }}={{ stars .Rating }}{{ end }}`), 0644))
				return path
			},
			wantName:   "custom.md.go.tmpl",
			wantOutput: "Heat=★★☆☆☆",
		},
		{
			name: "falls back when the file does not exist",
			templatePath: func(t *testing.T) string {
				return "/non/existent/custom.md.go.tmpl"
			},
			wantName: embeddedTemplateName,
		},
		{
			name: "falls back when the file does not parse",
			templatePath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "broken.md.go.tmpl")
				require.NoError(t, os.WriteFile(path, []byte(`{{ range }`), 0644))
				return path
			},
			wantName: embeddedTemplateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.templatePath(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, tmpl.Name())

			if tt.wantOutput != "" {
				var buf bytes.Buffer
				require.NoError(t, WriteMarkdown(&buf, tmpl, []watchlist.Item{{Title: "Heat", Watched: true, Rating: ptr(2)}}, exportedAt))
				assert.Equal(t, tt.wantOutput, buf.String())
			}
		})
	}
}

func TestWatchlist(t *testing.T) {
	items := []watchlist.Item{
		{ID: 1, CatalogID: "tt0133093", Title: "The Matrix", Year: "1999"},
	}
	now := func() time.Time { return exportedAt }

	t.Run("markdown only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "watchlist.md")
		result, err := Watchlist(path, items, Options{Now: now})
		require.NoError(t, err)
		assert.Equal(t, Result{MarkdownPath: path}, result)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "The Matrix")
	})

	t.Run("with pdf", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "watchlist.md")
		result, err := Watchlist(path, items, Options{Now: now, PDF: true})
		require.NoError(t, err)
		assert.Equal(t, ".pdf", filepath.Ext(result.PDFPath))
		_, err = os.Stat(result.PDFPath)
		assert.NoError(t, err)
	})

	t.Run("invalid extension", func(t *testing.T) {
		_, err := Watchlist(filepath.Join(t.TempDir(), "watchlist.txt"), items, Options{})
		assert.ErrorContains(t, err, "must have .md extension")
	})
}

func TestConvertMarkdownToPDF_Errors(t *testing.T) {
	_, err := ConvertMarkdownToPDF("test.txt")
	assert.ErrorContains(t, err, "input file must have .md extension")

	_, err = ConvertMarkdownToPDF(filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorContains(t, err, "os.ReadFile")
}
