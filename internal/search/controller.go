// Package search turns a stream of query edits into catalog searches whose results
// never go backwards in time.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/pubsub"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Controller.
type Options struct {
	// Debounce is the quiet period after the last edit before a search fires.
	Debounce time.Duration
	// Limiter spaces out dispatched searches. Nil means no limit.
	Limiter *rate.Limiter
}

// State is what a view renders.
type State struct {
	// Query is the latest text given to the controller.
	Query string
	// ResultsFor is the query the current Results (or Err) answer.
	ResultsFor string
	Results    []catalog.Movie
	Err        error
	Loading    bool
	// Seq is the sequence number of the applied response, 0 before the first one.
	Seq uint64
}

type Controller struct {
	searcher Searcher
	ctx      context.Context
	debounce time.Duration
	limiter  *rate.Limiter
	topic    *pubsub.Topic[State]

	mu    sync.Mutex
	timer *time.Timer
	// generation changes on every edit, submit and cancel; a scheduled search only fires
	// if the generation it was scheduled in is still current.
	generation uint64
	dispatched uint64
	applied    uint64
	// responses with a sequence number <= floor are ignored
	floor uint64
	state State
}

// NewController creates a controller. ctx is used for every remote call and is never
// cancelled by the controller itself.
func NewController(ctx context.Context, searcher Searcher, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Controller{
		searcher: searcher,
		ctx:      ctx,
		debounce: opts.Debounce,
		limiter:  opts.Limiter,
		topic:    pubsub.NewTopic[State](),
	}
}

// OnQueryChange accepts the latest query text and schedules a search after the quiet period.
// Blank text clears the results right away without touching the network.
func (c *Controller) OnQueryChange(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.generation++
	c.state.Query = text
	if strings.TrimSpace(text) == "" {
		c.clearLocked()
		return
	}

	generation := c.generation
	c.timer = time.AfterFunc(c.debounce, func() {
		seq, ok := c.claim(generation)
		if !ok {
			return
		}
		c.dispatch(seq, text)
	})
}

// Submit searches for text immediately, superseding any scheduled search, and returns the
// state once the response has been handled.
func (c *Controller) Submit(text string) State {
	c.mu.Lock()
	c.stopTimerLocked()
	c.generation++
	c.state.Query = text
	if strings.TrimSpace(text) == "" {
		c.clearLocked()
		state := c.snapshotLocked()
		c.mu.Unlock()
		return state
	}
	generation := c.generation
	c.mu.Unlock()

	if seq, ok := c.claim(generation); ok {
		c.dispatch(seq, text)
	}
	return c.State()
}

// Cancel drops the scheduled search and makes every dispatched one ineligible to update the
// state. Calls already on the wire are left to finish.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.generation++
	if c.floor == c.dispatched && !c.state.Loading {
		return
	}
	c.floor = c.dispatched
	c.state.Loading = false
	c.publishLocked()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe streams state changes. Call the returned function to stop.
func (c *Controller) Subscribe() (<-chan State, func()) {
	return c.topic.Subscribe()
}

func (c *Controller) claim(generation uint64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return 0, false
	}
	c.timer = nil
	c.dispatched++
	c.state.Loading = true
	c.publishLocked()
	return c.dispatched, true
}

func (c *Controller) dispatch(seq uint64, text string) {
	if c.limiter != nil {
		if err := c.limiter.Wait(c.ctx); err != nil {
			c.finish(seq, text, nil, fmt.Errorf("limiter.Wait > %w", err))
			return
		}
		if c.superseded(seq) {
			slog.Default().Debug("skip superseded search", "seq", seq, "query", text)
			return
		}
	}

	slog.Default().Debug("dispatch search", "seq", seq, "query", text)
	movies, err := c.searcher.SearchCatalog(c.ctx, text)
	if err != nil {
		err = fmt.Errorf("searcher.SearchCatalog(%q) > %w", text, err)
	}
	c.finish(seq, text, movies, err)
}

func (c *Controller) superseded(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq <= c.floor || seq < c.dispatched
}

func (c *Controller) finish(seq uint64, text string, movies []catalog.Movie, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.floor || seq <= c.applied {
		slog.Default().Debug("drop stale search response",
			"seq", seq,
			"applied", c.applied,
			"floor", c.floor)
		return
	}

	c.applied = seq
	c.state.Seq = seq
	c.state.ResultsFor = text
	c.state.Loading = seq < c.dispatched
	if err != nil {
		slog.Default().Warn("catalog search failed", "query", text, "error", err)
		c.state.Err = err
		c.state.Results = nil
	} else {
		c.state.Err = nil
		c.state.Results = movies
	}
	c.publishLocked()
}

func (c *Controller) clearLocked() {
	c.floor = c.dispatched
	c.state.Results = nil
	c.state.ResultsFor = ""
	c.state.Err = nil
	c.state.Loading = false
	c.publishLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) snapshotLocked() State {
	state := c.state
	state.Results = slices.Clone(c.state.Results)
	return state
}

func (c *Controller) publishLocked() {
	c.topic.Publish(c.snapshotLocked())
}
