// Package featured picks the movie of the day and caches it for the whole calendar day.
package featured

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/kvstore"
)

const (
	CacheKey   = "featured:daily"
	DefaultTTL = 24 * time.Hour

	dateLayout = "2006-01-02"
)

var ErrNoTitles = errors.New("no featured titles configured")

// DefaultTitles is the curated rotation of featured movies.
var DefaultTitles = []string{
	"The Shawshank Redemption", "Pulp Fiction", "The Godfather",
	"Inception", "The Dark Knight", "Fight Club", "Forrest Gump",
	"The Matrix", "Goodfellas", "The Silence of the Lambs",
	"Se7en", "The Departed", "Gladiator", "The Prestige",
	"Memento", "The Green Mile", "Saving Private Ryan",
}

// Entry is the cached movie of one day.
type Entry struct {
	DateKey string        `json:"dateKey" yaml:"date"`
	Movie   catalog.Movie `json:"movie" yaml:"movie"`
}

// Daily serves the movie of the current UTC date.
type Daily struct {
	store   kvstore.Store
	fetcher Fetcher
	titles  []string
	ttl     time.Duration
	now     func() time.Time
	leader  singleflight.Group
}

type Option func(*Daily)

func WithTitles(titles []string) Option {
	return func(d *Daily) {
		if len(titles) > 0 {
			d.titles = titles
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(d *Daily) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Daily) {
		d.now = now
	}
}

func NewDaily(store kvstore.Store, fetcher Fetcher, opts ...Option) *Daily {
	d := &Daily{
		store:   store,
		fetcher: fetcher,
		titles:  DefaultTitles,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DateKey formats the UTC calendar date of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// PickTitle selects the title of the UTC date of t: the date read as the number YYYYMMDD,
// modulo the number of titles.
func PickTitle(titles []string, t time.Time) (string, error) {
	if len(titles) == 0 {
		return "", ErrNoTitles
	}
	t = t.UTC()
	n := t.Year()*10000 + int(t.Month())*100 + t.Day()
	return titles[n%len(titles)], nil
}

// Get returns today's entry. Concurrent callers share a single lookup, and a cached entry of
// the same date is never fetched again.
func (d *Daily) Get(ctx context.Context) (Entry, error) {
	now := d.now()
	today := DateKey(now)
	if entry, ok := d.cached(ctx, today); ok {
		return entry, nil
	}

	v, err, shared := d.leader.Do(today, func() (any, error) {
		// another caller may have written the entry while this one waited
		if entry, ok := d.cached(ctx, today); ok {
			return entry, nil
		}
		return d.refresh(ctx, now, today)
	})
	if err != nil {
		return Entry{}, err
	}
	slog.Default().Debug("featured movie resolved", "date", today, "shared", shared)
	return v.(Entry), nil
}

func (d *Daily) refresh(ctx context.Context, now time.Time, today string) (Entry, error) {
	title, err := PickTitle(d.titles, now)
	if err != nil {
		return Entry{}, err
	}
	movie, err := d.fetcher.FindByTitle(ctx, title)
	if err != nil {
		return Entry{}, fmt.Errorf("fetcher.FindByTitle(%q) > %w", title, err)
	}

	entry := Entry{DateKey: today, Movie: movie.Normalize()}
	if err := kvstore.SetJSON(ctx, d.store, CacheKey, entry, d.ttl); err != nil {
		slog.Default().Warn("failed to cache the featured movie", "date", today, "error", err)
	}
	slog.Default().Info("featured movie refreshed", "date", today, "title", entry.Movie.Title)
	return entry, nil
}

func (d *Daily) cached(ctx context.Context, today string) (Entry, bool) {
	var entry Entry
	ok, err := kvstore.GetJSON(ctx, d.store, CacheKey, &entry)
	if err != nil {
		slog.Default().Warn("failed to read the featured movie cache", "error", err)
		return Entry{}, false
	}
	if !ok || entry.DateKey != today {
		return Entry{}, false
	}
	return entry, true
}
