// Package testutil provides shared test helpers for config files and a fake remote API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// Token is the bearer token the fake API accepts.
const Token = "test-token"

// SetupTestConfig writes a config file pointing both remotes at apiURL and keeping the
// key-value store under tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir, apiURL string) string {
	t.Helper()

	cacheDir := filepath.Join(tmpDir, "cache")
	require.NoError(t, os.MkdirAll(cacheDir, 0755))

	configContent := fmt.Sprintf(`api:
  base_url: %s
  token: %s
  timeout: 5s
omdb:
  base_url: %s/omdb
  api_key: omdb-test-key
search:
  debounce: 10ms
  rate_per_second: 100
  burst: 10
store:
  driver: file
  directory: %s
`,
		apiURL,
		Token,
		apiURL,
		cacheDir,
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// Movie is a catalog record served by the fake API.
type Movie struct {
	ID     string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Poster string `json:"Poster"`
	Rating string `json:"imdbRating"`
	Plot   string `json:"Plot"`
}

// FakeAPI is an in-memory stand-in for the watch-list, notes and OMDb endpoints.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	nextID   int64
	movies   []Movie
	items    []map[string]any
	notes    []map[string]any
	requests []string
}

// NewFakeAPI starts a fake API serving the given catalog. It is closed when the test ends.
func NewFakeAPI(t *testing.T, movies ...Movie) *FakeAPI {
	t.Helper()

	api := &FakeAPI{nextID: 1, movies: movies}
	router := mux.NewRouter()
	router.Use(api.record)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.authorize)
	apiRouter.HandleFunc("/search-movie/", api.searchMovie).Methods(http.MethodGet)
	apiRouter.HandleFunc("/watchlist/", api.listItems).Methods(http.MethodGet)
	apiRouter.HandleFunc("/watchlist/", api.createItem).Methods(http.MethodPost)
	apiRouter.HandleFunc("/watchlist/{id:[0-9]+}/", api.updateItem).Methods(http.MethodPatch)
	apiRouter.HandleFunc("/watchlist/{id:[0-9]+}/", api.deleteItem).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/notes/", api.listNotes).Methods(http.MethodGet)
	apiRouter.HandleFunc("/notes/", api.createNote).Methods(http.MethodPost)
	apiRouter.HandleFunc("/notes/{id:[0-9]+}/", api.updateNote).Methods(http.MethodPatch)
	apiRouter.HandleFunc("/notes/delete/{id:[0-9]+}/", api.deleteNote).Methods(http.MethodDelete)
	router.HandleFunc("/omdb/", api.omdb).Methods(http.MethodGet)

	api.Server = httptest.NewServer(router)
	t.Cleanup(api.Server.Close)
	return api
}

// URL is the base URL of the fake API.
func (api *FakeAPI) URL() string {
	return api.Server.URL
}

// Requests returns "METHOD path" for every request received so far.
func (api *FakeAPI) Requests() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]string(nil), api.requests...)
}

// SeedItem stores a watch-list item and returns its id.
func (api *FakeAPI) SeedItem(catalogID, title string, watched bool, rating int) int64 {
	api.mu.Lock()
	defer api.mu.Unlock()

	item := map[string]any{
		"id":       api.nextID,
		"imdb_id":  catalogID,
		"title":    title,
		"year":     "",
		"watched":  watched,
		"rating":   nil,
		"notes":    nil,
		"added_at": time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	if rating > 0 {
		item["rating"] = rating
	}
	api.items = append(api.items, item)
	api.nextID++
	return item["id"].(int64)
}

// SeedNote stores a note in scope and returns its id. A parentID of 0 seeds a top-level note.
func (api *FakeAPI) SeedNote(scope, title, content string, parentID int64) int64 {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.insertNoteLocked(scope, title, content, parentID)
}

func (api *FakeAPI) insertNoteLocked(scope, title, content string, parentID int64) int64 {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	note := map[string]any{
		"id":              api.nextID,
		"author_id":       1,
		"author_username": "tester",
		"title":           title,
		"content":         content,
		"movie_imdb_id":   scope,
		"parent":          nil,
		"created_at":      now,
		"updated_at":      now,
		"edited":          false,
	}
	if parentID > 0 {
		note["parent"] = parentID
	}
	api.notes = append(api.notes, note)
	api.nextID++
	return note["id"].(int64)
}

func (api *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		api.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (api *FakeAPI) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *FakeAPI) searchMovie(w http.ResponseWriter, r *http.Request) {
	found := api.match(r.URL.Query().Get("q"))
	if len(found) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Search": found, "totalResults": strconv.Itoa(len(found)), "Response": "True"})
}

func (api *FakeAPI) omdb(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	switch {
	case query.Get("s") != "":
		api.searchMovie(w, r)
		return
	case query.Get("t") != "" || query.Get("i") != "":
		api.mu.Lock()
		defer api.mu.Unlock()
		for _, movie := range api.movies {
			if movie.Title == query.Get("t") || movie.ID == query.Get("i") {
				writeJSON(w, http.StatusOK, struct {
					Movie
					Response string `json:"Response"`
				}{movie, "True"})
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
}

func (api *FakeAPI) match(query string) []Movie {
	api.mu.Lock()
	defer api.mu.Unlock()
	var found []Movie
	for _, movie := range api.movies {
		if query != "" && strings.Contains(strings.ToLower(movie.Title), strings.ToLower(query)) {
			found = append(found, movie)
		}
	}
	return found
}

func (api *FakeAPI) listItems(w http.ResponseWriter, _ *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	writeJSON(w, http.StatusOK, api.items)
}

func (api *FakeAPI) createItem(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	for _, item := range api.items {
		if item["imdb_id"] == body["imdb_id"] {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"The fields user, imdb_id must make a unique set."}})
			return
		}
	}
	body["id"] = api.nextID
	body["watched"] = false
	body["rating"] = nil
	body["notes"] = nil
	body["added_at"] = time.Now().UTC().Format(time.RFC3339)
	api.nextID++
	api.items = append(api.items, body)
	writeJSON(w, http.StatusCreated, body)
}

func (api *FakeAPI) updateItem(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	index := indexOf(api.items, mux.Vars(r)["id"])
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	for k, v := range body {
		api.items[index][k] = v
	}
	writeJSON(w, http.StatusOK, api.items[index])
}

func (api *FakeAPI) deleteItem(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	index := indexOf(api.items, mux.Vars(r)["id"])
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	api.items = append(api.items[:index], api.items[index+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (api *FakeAPI) listNotes(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("movie_imdb_id")

	api.mu.Lock()
	defer api.mu.Unlock()
	result := []map[string]any{}
	for i := len(api.notes) - 1; i >= 0; i-- {
		note := api.notes[i]
		if note["parent"] != nil || (scope != "" && note["movie_imdb_id"] != scope) {
			continue
		}
		var replies []map[string]any
		for _, candidate := range api.notes {
			if parent, ok := candidate["parent"].(int64); ok && parent == note["id"].(int64) {
				replies = append(replies, candidate)
			}
		}
		withReplies := make(map[string]any, len(note)+2)
		for k, v := range note {
			withReplies[k] = v
		}
		withReplies["replies"] = replies
		withReplies["reply_count"] = len(replies)
		result = append(result, withReplies)
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *FakeAPI) createNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Parent  int64  `json:"parent"`
		Scope   string `json:"movie_imdb_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	id := api.insertNoteLocked(body.Scope, body.Title, body.Content, body.Parent)
	writeJSON(w, http.StatusCreated, api.notes[indexOf(api.notes, strconv.FormatInt(id, 10))])
}

func (api *FakeAPI) updateNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	index := indexOf(api.notes, mux.Vars(r)["id"])
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	api.notes[index]["content"] = body.Content
	api.notes[index]["edited"] = true
	writeJSON(w, http.StatusOK, api.notes[index])
}

func (api *FakeAPI) deleteNote(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	index := indexOf(api.notes, mux.Vars(r)["id"])
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	id := api.notes[index]["id"].(int64)
	kept := api.notes[:0]
	for _, note := range api.notes {
		if note["id"].(int64) == id {
			continue
		}
		if parent, ok := note["parent"].(int64); ok && parent == id {
			continue
		}
		kept = append(kept, note)
	}
	api.notes = kept
	w.WriteHeader(http.StatusNoContent)
}

func indexOf(records []map[string]any, id string) int {
	for i, record := range records {
		if strconv.FormatInt(record["id"].(int64), 10) == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
