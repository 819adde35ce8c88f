// Package omdb looks movies up in the OMDb catalog.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/remote"
)

const DefaultBaseURL = "https://www.omdbapi.com"

type Config struct {
	BaseURL string
	APIKey  string
}

type Client struct {
	config     Config
	httpClient *resty.Client
}

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Client{
		config:     config,
		httpClient: resty.New().SetBaseURL(strings.TrimSuffix(config.BaseURL, "/")),
	}
}

type searchResponse struct {
	Search       []catalog.Movie `json:"Search"`
	TotalResults string          `json:"totalResults"`
	Response     string          `json:"Response"`
	Error        string          `json:"Error"`
}

type movieResponse struct {
	catalog.Movie
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// SearchCatalog searches by free text. A query without matches returns an empty result.
func (c *Client) SearchCatalog(ctx context.Context, query string) ([]catalog.Movie, error) {
	body, err := c.get(ctx, map[string]string{"s": query})
	if err != nil {
		return nil, fmt.Errorf("c.get(s=%q) > %w", query, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w: %v", remote.ErrUnavailable, err)
	}
	if resp.Response == "False" {
		if isNotFound(resp.Error) {
			return []catalog.Movie{}, nil
		}
		return nil, fmt.Errorf("search %q > %w: %s", query, remote.ErrUnavailable, resp.Error)
	}

	movies := make([]catalog.Movie, 0, len(resp.Search))
	for _, movie := range resp.Search {
		movies = append(movies, movie.Normalize())
	}
	return movies, nil
}

// FindByTitle implements featured.Fetcher.
func (c *Client) FindByTitle(ctx context.Context, title string) (catalog.Movie, error) {
	return c.find(ctx, map[string]string{"t": title})
}

// FindByID looks a movie up by its catalog id.
func (c *Client) FindByID(ctx context.Context, id string) (catalog.Movie, error) {
	return c.find(ctx, map[string]string{"i": id})
}

func (c *Client) find(ctx context.Context, params map[string]string) (catalog.Movie, error) {
	body, err := c.get(ctx, params)
	if err != nil {
		return catalog.Movie{}, fmt.Errorf("c.get(%v) > %w", params, err)
	}

	var resp movieResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return catalog.Movie{}, fmt.Errorf("json.Unmarshal > %w: %v", remote.ErrUnavailable, err)
	}
	if resp.Response == "False" {
		if isNotFound(resp.Error) {
			return catalog.Movie{}, fmt.Errorf("%v > %w: %s", params, remote.ErrNotFound, resp.Error)
		}
		return catalog.Movie{}, fmt.Errorf("%v > %w: %s", params, remote.ErrUnavailable, resp.Error)
	}
	return resp.Movie.Normalize(), nil
}

func (c *Client) get(ctx context.Context, params map[string]string) ([]byte, error) {
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.config.APIKey).
		Get("/")
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w: %v", remote.ErrUnavailable, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d > %w, body: %s", res.StatusCode(), remote.ErrUnavailable, string(res.Body()))
	}
	return res.Body(), nil
}

func isNotFound(message string) bool {
	return strings.Contains(strings.ToLower(message), "not found")
}
