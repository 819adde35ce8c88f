package watchlist

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/cinelog/internal/catalog"
	"github.com/at-ishikawa/cinelog/internal/pubsub"
	"github.com/at-ishikawa/cinelog/internal/remote"
	"github.com/at-ishikawa/cinelog/internal/serial"
)

// Store is the single source of truth for the watch list on this client.
// Its lock is never held across a remote call.
type Store struct {
	remote     Remote
	lanes      *serial.Lanes[int64]
	topic      *pubsub.Topic[[]Item]
	newLocalID func() string
	now        func() time.Time

	mu      sync.Mutex
	items   []Item
	pending map[int64]*pendingUpdates
	// items removed locally whose remote delete has not resolved yet
	removing map[int64]*Item
}

// pendingUpdates tracks the unresolved updates of one item. The visible item is always
// base with the queued patches applied in order. base is the last state the remote confirmed.
type pendingUpdates struct {
	base    Item
	queue   []*queuedPatch
	nextSeq uint64
}

type queuedPatch struct {
	seq uint64
	// requested is the patch as given by the caller; patch is requested normalized against
	// the state it applies to.
	requested Patch
	patch     Patch
	// err is set when the patch no longer holds for the state it applies to.
	err error
}

func (p *pendingUpdates) visible() Item {
	item := p.base
	for _, q := range p.queue {
		if q.err == nil {
			item = q.patch.apply(item)
		}
	}
	return item
}

// rebase replaces base and checks the queued patches against it again, in order. A patch that
// only held on top of a state the remote never confirmed is failed instead of being sent.
func (p *pendingUpdates) rebase(base Item) Item {
	p.base = base
	item := base
	for _, q := range p.queue {
		if q.err != nil {
			continue
		}
		patch, err := q.requested.normalize(item)
		if err != nil {
			q.err = err
			continue
		}
		q.patch = patch
		item = patch.apply(item)
	}
	return item
}

func (p *pendingUpdates) find(seq uint64) *queuedPatch {
	for _, q := range p.queue {
		if q.seq == seq {
			return q
		}
	}
	return nil
}

func (p *pendingUpdates) drop(seq uint64) {
	p.queue = slices.DeleteFunc(p.queue, func(q *queuedPatch) bool {
		return q.seq == seq
	})
}

func NewStore(remote Remote) *Store {
	return &Store{
		remote:     remote,
		lanes:      serial.NewLanes[int64](),
		topic:      pubsub.NewTopic[[]Item](),
		newLocalID: uuid.NewString,
		now:        time.Now,
		pending:    make(map[int64]*pendingUpdates),
		removing:   make(map[int64]*Item),
	}
}

// Load replaces the local list with the remote one. On failure the local list is kept.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.remote.ListWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("remote.ListWatchlist() > %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make([]Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.CatalogID] {
			slog.Default().Warn("remote returned a duplicate watch list entry",
				"catalogID", item.CatalogID,
				"id", item.ID)
			continue
		}
		seen[item.CatalogID] = true
		if _, ok := s.removing[item.ID]; ok {
			continue
		}
		if previous := s.indexByIDLocked(item.ID); previous >= 0 {
			item.LocalID = s.items[previous].LocalID
		}
		if item.LocalID == "" {
			item.LocalID = s.newLocalID()
		}
		if p, ok := s.pending[item.ID]; ok {
			item = p.rebase(item)
		}
		loaded = append(loaded, item)
	}

	// Adds still in flight keep their provisional entry so their confirmation can replace it.
	var provisional []Item
	for _, item := range s.items {
		if item.Provisional() && !seen[item.CatalogID] {
			provisional = append(provisional, item)
		}
	}

	s.items = append(provisional, loaded...)
	s.publishLocked()
	return nil
}

// Add inserts movie right away as a provisional item and confirms it with the remote.
// A movie already on the list is rejected without a remote call.
func (s *Store) Add(ctx context.Context, movie catalog.Movie) (Item, error) {
	movie = movie.Normalize()
	if movie.ID == "" {
		return Item{}, fmt.Errorf("%w: empty catalog id", ErrInvalidMovie)
	}

	s.mu.Lock()
	if s.indexByCatalogIDLocked(movie.ID) >= 0 {
		s.mu.Unlock()
		return Item{}, fmt.Errorf("catalog id %s > %w", movie.ID, ErrDuplicateItem)
	}
	provisional := Item{
		LocalID:       s.newLocalID(),
		CatalogID:     movie.ID,
		Title:         movie.Title,
		Year:          movie.Year,
		PosterURL:     movie.PosterURL,
		CatalogRating: movie.Rating,
		AddedAt:       s.now(),
	}
	s.items = slices.Insert(s.items, 0, provisional)
	s.publishLocked()
	s.mu.Unlock()

	created, err := s.remote.CreateWatchlistItem(ctx, newItemFromMovie(movie))

	s.mu.Lock()
	index := s.indexByLocalIDLocked(provisional.LocalID)
	if err != nil {
		if index >= 0 {
			s.items = slices.Delete(s.items, index, index+1)
		}
		s.publishLocked()
		s.mu.Unlock()

		err = fmt.Errorf("remote.CreateWatchlistItem(%s) > %w", movie.ID, err)
		s.reloadOnDrift(ctx, err)
		return Item{}, err
	}

	created.LocalID = provisional.LocalID
	switch {
	case index >= 0:
		s.items[index] = created
	case s.indexByIDLocked(created.ID) < 0 && s.indexByCatalogIDLocked(created.CatalogID) < 0:
		// a reload dropped the provisional entry
		s.items = slices.Insert(s.items, 0, created)
	}
	s.publishLocked()
	s.mu.Unlock()
	return created, nil
}

// Update applies patch locally right away, then sends it. Updates of the same item reach the
// remote one at a time in call order. A failed update falls back to the last state the remote
// confirmed; the updates queued behind it are checked against that state again, and the ones
// that no longer hold fail with ErrInvalidPatch without reaching the remote.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) (Item, error) {
	s.mu.Lock()
	index := s.indexByIDLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return Item{}, fmt.Errorf("id %d > %w", id, ErrItemNotFound)
	}
	normalized, err := patch.normalize(s.items[index])
	if err != nil {
		s.mu.Unlock()
		return Item{}, err
	}

	p, ok := s.pending[id]
	if !ok {
		p = &pendingUpdates{base: s.items[index]}
		s.pending[id] = p
	}
	seq := p.nextSeq
	p.nextSeq++
	queued := &queuedPatch{seq: seq, requested: patch, patch: normalized}
	p.queue = append(p.queue, queued)
	s.items[index] = p.visible()
	ticket := s.lanes.Join(id)
	s.publishLocked()
	s.mu.Unlock()

	ticket.Wait()
	s.mu.Lock()
	if queued.err != nil {
		s.resolveLocked(id, p, seq)
		s.mu.Unlock()
		ticket.Leave()
		return Item{}, fmt.Errorf("id %d > %w", id, queued.err)
	}
	send := queued.patch
	s.mu.Unlock()

	updated, err := s.remote.UpdateWatchlistItem(ctx, id, send)

	s.mu.Lock()
	p.drop(seq)
	if err == nil {
		updated.LocalID = p.base.LocalID
		s.setLocked(id, p.rebase(updated))
	} else {
		s.setLocked(id, p.rebase(p.base))
	}
	if len(p.queue) == 0 {
		delete(s.pending, id)
	}
	s.publishLocked()
	s.mu.Unlock()
	ticket.Leave()

	if err != nil {
		err = fmt.Errorf("remote.UpdateWatchlistItem(%d) > %w", id, err)
		s.reloadOnDrift(ctx, err)
		return Item{}, err
	}
	return updated, nil
}

// resolveLocked drops a queued patch that was never sent.
func (s *Store) resolveLocked(id int64, p *pendingUpdates, seq uint64) {
	p.drop(seq)
	s.setLocked(id, p.visible())
	if len(p.queue) == 0 {
		delete(s.pending, id)
	}
	s.publishLocked()
}

// Remove deletes a watched item locally right away and then on the remote. On failure the
// item goes back to its previous position.
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	index := s.indexByIDLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("id %d > %w", id, ErrItemNotFound)
	}
	item := s.items[index]
	if !item.Watched {
		s.mu.Unlock()
		return fmt.Errorf("%s > %w", item, ErrNotWatched)
	}
	s.items = slices.Delete(s.items, index, index+1)
	s.removing[id] = &item
	ticket := s.lanes.Join(id)
	s.publishLocked()
	s.mu.Unlock()

	ticket.Wait()
	err := s.remote.DeleteWatchlistItem(ctx, id)
	ticket.Leave()

	s.mu.Lock()
	held := s.removing[id]
	delete(s.removing, id)
	if err == nil {
		delete(s.pending, id)
		// a reload that landed before the delete resolved must not keep the item
		if index := s.indexByIDLocked(id); index >= 0 {
			s.items = slices.Delete(s.items, index, index+1)
			s.publishLocked()
		}
		s.mu.Unlock()
		return nil
	}
	if s.indexByIDLocked(id) < 0 && s.indexByCatalogIDLocked(held.CatalogID) < 0 {
		s.items = slices.Insert(s.items, min(index, len(s.items)), *held)
	}
	s.publishLocked()
	s.mu.Unlock()

	err = fmt.Errorf("remote.DeleteWatchlistItem(%d) > %w", id, err)
	s.reloadOnDrift(ctx, err)
	return err
}

// View returns the items of a tab in list order.
func (s *Store) View(tab Tab) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if tab.Includes(item) {
			view = append(view, item)
		}
	}
	return view
}

// Items returns every item, provisional ones included.
func (s *Store) Items() []Item {
	return s.View(TabAll)
}

// Get returns the confirmed item with the given id.
func (s *Store) Get(id int64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexByIDLocked(id)
	if index < 0 {
		return Item{}, false
	}
	return s.items[index], true
}

// Subscribe streams the full list after every local change.
func (s *Store) Subscribe() (<-chan []Item, func()) {
	return s.topic.Subscribe()
}

func (s *Store) reloadOnDrift(ctx context.Context, cause error) {
	if !remote.IsDrift(cause) {
		return
	}
	slog.Default().Info("watch list drifted from the remote, reloading", "cause", cause)
	if err := s.Load(ctx); err != nil {
		slog.Default().Warn("failed to reload the watch list", "error", err)
	}
}

// setLocked writes item wherever the item with id currently lives.
func (s *Store) setLocked(id int64, item Item) {
	if index := s.indexByIDLocked(id); index >= 0 {
		s.items[index] = item
		return
	}
	if held, ok := s.removing[id]; ok {
		*held = item
	}
}

func (s *Store) indexByIDLocked(id int64) int {
	if id <= 0 {
		return -1
	}
	return slices.IndexFunc(s.items, func(item Item) bool {
		return item.ID == id
	})
}

func (s *Store) indexByLocalIDLocked(localID string) int {
	return slices.IndexFunc(s.items, func(item Item) bool {
		return item.LocalID == localID
	})
}

func (s *Store) indexByCatalogIDLocked(catalogID string) int {
	return slices.IndexFunc(s.items, func(item Item) bool {
		return item.CatalogID == catalogID
	})
}

func (s *Store) publishLocked() {
	s.topic.Publish(slices.Clone(s.items))
}
