// Package restapi talks to the watch-list and notes HTTP API.
package restapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/remote"
	"github.com/at-ishikawa/cinelog/internal/search"
	"github.com/at-ishikawa/cinelog/internal/thread"
	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

var (
	_ search.Searcher  = (*Client)(nil)
	_ watchlist.Remote = (*Client)(nil)
	_ thread.Remote    = (*Client)(nil)
)

const maxErrorBodyLength = 200

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	httpClient *resty.Client
}

func NewClient(opts Options) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetHeader("Authorization", "Bearer "+opts.Token)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Client{
		httpClient: client,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

type searchResponse struct {
	Search   []catalog.Movie `json:"Search"`
	Response string          `json:"Response"`
	Error    string          `json:"Error"`
}

// SearchCatalog implements search.Searcher.
func (client *Client) SearchCatalog(ctx context.Context, query string) ([]catalog.Movie, error) {
	var result searchResponse
	request := client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&result)
	if _, err := client.execute(request, http.MethodGet, "/api/search-movie/"); err != nil {
		return nil, err
	}
	if result.Response == "False" {
		slog.Default().Debug("no catalog results", "query", query, "reason", result.Error)
		return []catalog.Movie{}, nil
	}

	movies := make([]catalog.Movie, 0, len(result.Search))
	for _, movie := range result.Search {
		movies = append(movies, movie.Normalize())
	}
	return movies, nil
}

// ListWatchlist implements watchlist.Remote.
func (client *Client) ListWatchlist(ctx context.Context) ([]watchlist.Item, error) {
	var items []watchlist.Item
	request := client.httpClient.R().
		SetContext(ctx).
		SetResult(&items)
	if _, err := client.execute(request, http.MethodGet, "/api/watchlist/"); err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = normalizeItem(items[i])
	}
	return items, nil
}

// CreateWatchlistItem implements watchlist.Remote.
func (client *Client) CreateWatchlistItem(ctx context.Context, item watchlist.NewItem) (watchlist.Item, error) {
	var created watchlist.Item
	request := client.httpClient.R().
		SetContext(ctx).
		SetBody(item).
		SetResult(&created)
	if _, err := client.execute(request, http.MethodPost, "/api/watchlist/"); err != nil {
		return watchlist.Item{}, err
	}
	return normalizeItem(created), nil
}

// UpdateWatchlistItem implements watchlist.Remote. Only the fields set on patch are sent;
// a cleared rating is sent as null.
func (client *Client) UpdateWatchlistItem(ctx context.Context, id int64, patch watchlist.Patch) (watchlist.Item, error) {
	body := map[string]any{}
	if patch.Watched != nil {
		body["watched"] = *patch.Watched
	}
	if patch.ClearRating {
		body["rating"] = nil
	}
	if patch.Rating != nil {
		body["rating"] = *patch.Rating
	}
	if patch.Notes != nil {
		body["notes"] = *patch.Notes
	}

	var updated watchlist.Item
	request := client.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&updated)
	if _, err := client.execute(request, http.MethodPatch, fmt.Sprintf("/api/watchlist/%d/", id)); err != nil {
		return watchlist.Item{}, err
	}
	return normalizeItem(updated), nil
}

// DeleteWatchlistItem implements watchlist.Remote.
func (client *Client) DeleteWatchlistItem(ctx context.Context, id int64) error {
	request := client.httpClient.R().SetContext(ctx)
	_, err := client.execute(request, http.MethodDelete, fmt.Sprintf("/api/watchlist/%d/", id))
	return err
}

// ListNotes implements thread.Remote. An empty scope lists the global feed.
func (client *Client) ListNotes(ctx context.Context, scopeKey string) ([]thread.Note, error) {
	var notes []thread.Note
	request := client.httpClient.R().
		SetContext(ctx).
		SetResult(&notes)
	if scopeKey != thread.GlobalScope {
		request.SetQueryParam("movie_imdb_id", scopeKey)
	}
	if _, err := client.execute(request, http.MethodGet, "/api/notes/"); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote implements thread.Remote.
func (client *Client) CreateNote(ctx context.Context, note thread.NewNote) (thread.Note, error) {
	var created thread.Note
	request := client.httpClient.R().
		SetContext(ctx).
		SetBody(note).
		SetResult(&created)
	if _, err := client.execute(request, http.MethodPost, "/api/notes/"); err != nil {
		return thread.Note{}, err
	}
	return created, nil
}

// UpdateNote implements thread.Remote.
func (client *Client) UpdateNote(ctx context.Context, id int64, content string) (thread.Note, error) {
	var updated thread.Note
	request := client.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"content": content}).
		SetResult(&updated)
	if _, err := client.execute(request, http.MethodPatch, fmt.Sprintf("/api/notes/%d/", id)); err != nil {
		return thread.Note{}, err
	}
	return updated, nil
}

// DeleteNote implements thread.Remote.
func (client *Client) DeleteNote(ctx context.Context, id int64) error {
	request := client.httpClient.R().SetContext(ctx)
	_, err := client.execute(request, http.MethodDelete, fmt.Sprintf("/api/notes/delete/%d/", id))
	return err
}

func (client *Client) execute(request *resty.Request, method, path string) (*resty.Response, error) {
	response, err := request.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s > %w: %v", method, path, remote.ErrUnavailable, err)
	}
	if response.IsError() {
		return response, statusError(method, path, response.StatusCode(), response.String())
	}
	return response, nil
}

// statusError maps an error response to the remote taxonomy.
func statusError(method, path string, status int, body string) error {
	var kind error
	switch {
	case status == http.StatusConflict:
		kind = remote.ErrDuplicate
	case status == http.StatusBadRequest && reportsUniqueness(body):
		kind = remote.ErrDuplicate
	case status == http.StatusForbidden:
		kind = remote.ErrForbidden
	case status == http.StatusNotFound:
		kind = remote.ErrNotFound
	default:
		kind = remote.ErrUnavailable
	}

	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength] + "..."
	}
	return fmt.Errorf("%s %s status %d > %w: %s", method, path, status, kind, body)
}

func reportsUniqueness(body string) bool {
	body = strings.ToLower(body)
	return strings.Contains(body, "unique") || strings.Contains(body, "already exists")
}

func normalizeItem(item watchlist.Item) watchlist.Item {
	item.PosterURL = optional(item.PosterURL)
	item.CatalogRating = optional(item.CatalogRating)
	if item.Notes != nil && strings.TrimSpace(*item.Notes) == "" {
		item.Notes = nil
	}
	return item
}

func optional(s *string) *string {
	if s == nil || *s == "" || *s == catalog.NotAvailable {
		return nil
	}
	return s
}
