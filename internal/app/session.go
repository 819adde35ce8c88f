// Package app wires the configuration, remote clients and local stores of one client session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/at-ishikawa/cinelog/internal/catalog/omdb"
	"github.com/at-ishikawa/cinelog/internal/config"
	"github.com/at-ishikawa/cinelog/internal/editguard"
	"github.com/at-ishikawa/cinelog/internal/featured"
	"github.com/at-ishikawa/cinelog/internal/kvstore"
	"github.com/at-ishikawa/cinelog/internal/remote/restapi"
	"github.com/at-ishikawa/cinelog/internal/search"
	"github.com/at-ishikawa/cinelog/internal/thread"
	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

type Session struct {
	config  *config.Config
	api     *restapi.Client
	catalog *omdb.Client
	cache   kvstore.Store

	Watchlist *watchlist.Store
	Notes     *thread.Store
	Featured  *featured.Daily

	mu      sync.Mutex
	closers []CloseFunc
}

// NewSession opens the configured key-value store and creates the clients and stores.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	cache, closeCache, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("OpenStore() > %w", err)
	}

	api := restapi.NewClient(restapi.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	catalogClient := omdb.NewClient(omdb.Config{
		BaseURL: cfg.OMDb.BaseURL,
		APIKey:  cfg.OMDb.APIKey,
	})

	session := &Session{
		config:    cfg,
		api:       api,
		catalog:   catalogClient,
		cache:     cache,
		Watchlist: watchlist.NewStore(api),
		Notes:     thread.NewStore(api),
		Featured: featured.NewDaily(cache, catalogClient,
			featured.WithTitles(cfg.Featured.Titles),
			featured.WithTTL(cfg.Featured.TTL),
		),
		closers: []CloseFunc{
			closeCache,
			func(context.Context) error {
				return api.Close()
			},
		},
	}
	return session, nil
}

// Cache is the key-value store of the session.
func (s *Session) Cache() kvstore.Store {
	return s.cache
}

// NewSearch creates a search controller over the remote catalog search.
// ctx bounds every search the controller dispatches.
func (s *Session) NewSearch(ctx context.Context) *search.Controller {
	var limiter *rate.Limiter
	if s.config.Search.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.config.Search.RatePerSecond), s.config.Search.Burst)
	}
	return search.NewController(ctx, s.api, search.Options{
		Debounce: s.config.Search.Debounce,
		Limiter:  limiter,
	})
}

type BootstrapOptions struct {
	Watchlist bool
	Notes     bool
	// Scope is the notes scope to load. Empty loads the global feed.
	Scope    string
	Featured bool
}

type Bootstrapped struct {
	// Featured is set when BootstrapOptions.Featured was requested and succeeded.
	Featured *featured.Entry
}

// Bootstrap runs the requested initial loads concurrently. A failed load does not stop the
// others; their errors are joined.
func (s *Session) Bootstrap(ctx context.Context, opts BootstrapOptions) (Bootstrapped, error) {
	var result Bootstrapped
	p := pool.New().WithContext(ctx)
	if opts.Watchlist {
		p.Go(func(ctx context.Context) error {
			if err := s.Watchlist.Load(ctx); err != nil {
				return fmt.Errorf("Watchlist.Load() > %w", err)
			}
			return nil
		})
	}
	if opts.Notes {
		p.Go(func(ctx context.Context) error {
			if err := s.Notes.Load(ctx, opts.Scope); err != nil {
				return fmt.Errorf("Notes.Load(%q) > %w", opts.Scope, err)
			}
			return nil
		})
	}
	if opts.Featured {
		p.Go(func(ctx context.Context) error {
			entry, err := s.Featured.Get(ctx)
			if err != nil {
				return fmt.Errorf("Featured.Get() > %w", err)
			}
			result.Featured = &entry
			return nil
		})
	}

	err := p.Wait()
	if err != nil {
		slog.Default().Debug("bootstrap finished with errors", "error", err)
	}
	return result, err
}

// AddByCatalogID looks catalogID up in the catalog and adds it to the watch list.
func (s *Session) AddByCatalogID(ctx context.Context, catalogID string) (watchlist.Item, error) {
	movie, err := s.catalog.FindByID(ctx, catalogID)
	if err != nil {
		return watchlist.Item{}, fmt.Errorf("catalog.FindByID(%s) > %w", catalogID, err)
	}
	return s.Watchlist.Add(ctx, movie)
}

// OpenNotesEditor starts editing the notes of a watch list item. Saving the guard updates
// the item's notes through the watch list store.
func (s *Session) OpenNotesEditor(id int64) (*editguard.Guard, error) {
	item, ok := s.Watchlist.Get(id)
	if !ok {
		return nil, fmt.Errorf("id %d > %w", id, watchlist.ErrItemNotFound)
	}
	var baseline string
	if item.Notes != nil {
		baseline = *item.Notes
	}
	return editguard.New(baseline, func(ctx context.Context, value string) error {
		if _, err := s.Watchlist.Update(ctx, id, watchlist.SetNotes(value)); err != nil {
			return fmt.Errorf("Watchlist.Update(%d) > %w", id, err)
		}
		return nil
	}), nil
}

// Close releases everything the session opened, newest first.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
