package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/remote"
)

func newTestClient(t *testing.T, handler func(t *testing.T, w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		handler(t, w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
}

func TestClient_SearchCatalog(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    []catalog.Movie
		wantErr error
	}{
		{
			name:   "results",
			status: http.StatusOK,
			body: `{"Search":[{"Title":"Memento","Year":"2000","imdbID":"tt0209144","Type":"movie","Poster":"N/A"}],` +
				`"totalResults":"1","Response":"True"}`,
			want: []catalog.Movie{{ID: "tt0209144", Title: "Memento", Year: "2000"}},
		},
		{
			name:   "not found is empty",
			status: http.StatusOK,
			body:   `{"Response":"False","Error":"Movie not found!"}`,
			want:   []catalog.Movie{},
		},
		{
			name:    "too many results is unavailable",
			status:  http.StatusOK,
			body:    `{"Response":"False","Error":"Too many results."}`,
			wantErr: remote.ErrUnavailable,
		},
		{
			name:    "invalid api key",
			status:  http.StatusUnauthorized,
			body:    `{"Response":"False","Error":"Invalid API key!"}`,
			wantErr: remote.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "memento", r.URL.Query().Get("s"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.SearchCatalog(context.Background(), "memento")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_FindByTitle(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("t") {
		case "The Prestige":
			_, _ = w.Write([]byte(`{"Title":"The Prestige","Year":"2006","Runtime":"130 min","Genre":"Drama, Mystery",` +
				`"Director":"Christopher Nolan","Actors":"Christian Bale, Hugh Jackman","Plot":"Two rival magicians.",` +
				`"Poster":"https://img/prestige.jpg","imdbRating":"8.5","imdbID":"tt0482571","Response":"True"}`))
		default:
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
		}
	})

	movie, err := client.FindByTitle(context.Background(), "The Prestige")
	require.NoError(t, err)
	assert.Equal(t, catalog.Movie{
		ID:        "tt0482571",
		Title:     "The Prestige",
		Year:      "2006",
		PosterURL: ptr("https://img/prestige.jpg"),
		Rating:    ptr("8.5"),
		Plot:      "Two rival magicians.",
		Genre:     "Drama, Mystery",
		Runtime:   "130 min",
		Director:  "Christopher Nolan",
		Actors:    "Christian Bale, Hugh Jackman",
	}, movie)

	_, err = client.FindByTitle(context.Background(), "Unknown")
	assert.True(t, errors.Is(err, remote.ErrNotFound))
}

func TestClient_FindByID(t *testing.T) {
	client := newTestClient(t, func(t *testing.T, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0120689", r.URL.Query().Get("i"))
		_, _ = w.Write([]byte(`{"Title":"The Green Mile","Year":"1999","imdbID":"tt0120689","imdbRating":"N/A","Response":"True"}`))
	})

	movie, err := client.FindByID(context.Background(), "tt0120689")
	require.NoError(t, err)
	assert.Equal(t, "The Green Mile", movie.Title)
	assert.Nil(t, movie.Rating)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
}

func ptr[T any](v T) *T {
	return &v
}
