// Package watchlist keeps the current user's watch list consistent with the remote store
// while applying changes optimistically.
package watchlist

import (
	"errors"
	"fmt"
	"time"

	"github.com/at-ishikawa/cinelog/internal/catalog"
)

var (
	ErrDuplicateItem = errors.New("movie is already on the watch list")
	ErrItemNotFound  = errors.New("watch list item not found")
	ErrNotWatched    = errors.New("only watched items can be removed")
	ErrInvalidPatch  = errors.New("invalid watch list patch")
	ErrInvalidMovie  = errors.New("invalid movie")
)

// Item is one entry of the watch list.
type Item struct {
	// ID is assigned by the remote. It is 0 while the item is provisional.
	ID int64 `json:"id,omitempty" yaml:"id"`
	// LocalID identifies the item on this client from the moment it is added.
	LocalID       string    `json:"-" yaml:"-"`
	CatalogID     string    `json:"imdb_id" yaml:"catalog_id"`
	Title         string    `json:"title" yaml:"title"`
	Year          string    `json:"year" yaml:"year"`
	PosterURL     *string   `json:"poster" yaml:"poster_url,omitempty"`
	CatalogRating *string   `json:"imdb_rating" yaml:"catalog_rating,omitempty"`
	Watched       bool      `json:"watched" yaml:"watched"`
	Rating        *int      `json:"rating" yaml:"rating,omitempty"`
	Notes         *string   `json:"notes" yaml:"notes,omitempty"`
	AddedAt       time.Time `json:"added_at" yaml:"added_at"`
}

// Provisional reports whether the remote has not confirmed the item yet.
func (item Item) Provisional() bool {
	return item.ID == 0
}

func (item Item) String() string {
	return fmt.Sprintf("%s (%s)", item.Title, item.Year)
}

// NewItem is the payload of a remote create.
type NewItem struct {
	CatalogID     string  `json:"imdb_id"`
	Title         string  `json:"title"`
	Year          string  `json:"year"`
	PosterURL     *string `json:"poster"`
	CatalogRating *string `json:"imdb_rating"`
}

func newItemFromMovie(movie catalog.Movie) NewItem {
	return NewItem{
		CatalogID:     movie.ID,
		Title:         movie.Title,
		Year:          movie.Year,
		PosterURL:     movie.PosterURL,
		CatalogRating: movie.Rating,
	}
}

// Tab selects a partition of the watch list.
type Tab string

const (
	TabAll     Tab = "all"
	TabToWatch Tab = "to-watch"
	TabWatched Tab = "watched"
)

var AllTabs = []Tab{TabAll, TabToWatch, TabWatched}

// Includes reports whether item belongs to the tab.
func (tab Tab) Includes(item Item) bool {
	switch tab {
	case TabToWatch:
		return !item.Watched
	case TabWatched:
		return item.Watched
	default:
		return true
	}
}
