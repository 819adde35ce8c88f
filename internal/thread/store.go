package thread

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/cinelog/internal/pubsub"
	"github.com/at-ishikawa/cinelog/internal/remote"
	"github.com/at-ishikawa/cinelog/internal/serial"
)

// ReplyTitle is the title sent for every reply.
const ReplyTitle = "Reply"

var validate = validator.New()

type postDraft struct {
	Title   string `validate:"required,max=100"`
	Content string `validate:"required"`
}

// pendingEdits tracks unresolved edits of one note. The visible content is the last queued
// edit, or base when nothing is queued.
type pendingEdits struct {
	base    revision
	queue   []queuedEdit
	nextSeq uint64
}

type revision struct {
	content   string
	edited    bool
	updatedAt time.Time
}

type queuedEdit struct {
	seq     uint64
	content string
}

func revisionOf(note Note) revision {
	return revision{content: note.Content, edited: note.Edited, updatedAt: note.UpdatedAt}
}

func (p *pendingEdits) applyTo(note Note) Note {
	note.Content = p.base.content
	note.Edited = p.base.edited
	note.UpdatedAt = p.base.updatedAt
	if len(p.queue) > 0 {
		note.Content = p.queue[len(p.queue)-1].content
		note.Edited = true
	}
	return note
}

// location points at a top-level note (parent < 0) or at a reply of notes[parent].
type location struct {
	parent int
	index  int
}

// Store holds the notes of one scope. Its lock is never held across a remote call.
type Store struct {
	remote Remote
	lanes  *serial.Lanes[int64]
	topic  *pubsub.Topic[[]Note]

	mu       sync.Mutex
	scope    string
	notes    []Note
	edits    map[int64]*pendingEdits
	deleting map[int64]bool
	// replies whose delete failed while their parent's delete was still in flight, by parent id
	orphans map[int64][]orphan
}

type orphan struct {
	reply Note
	index int
}

func NewStore(remote Remote) *Store {
	return &Store{
		remote:   remote,
		lanes:    serial.NewLanes[int64](),
		topic:    pubsub.NewTopic[[]Note](),
		edits:    make(map[int64]*pendingEdits),
		deleting: make(map[int64]bool),
		orphans:  make(map[int64][]orphan),
	}
}

// Load replaces the notes with the ones of scopeKey. On failure the current notes are kept.
func (s *Store) Load(ctx context.Context, scopeKey string) error {
	notes, err := s.remote.ListNotes(ctx, scopeKey)
	if err != nil {
		return fmt.Errorf("remote.ListNotes(%q) > %w", scopeKey, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shown := make(map[int64]bool)
	if scopeKey == s.scope {
		for _, note := range s.notes {
			shown[note.ID] = note.RepliesShown
		}
	}

	loaded := make([]Note, 0, len(notes))
	for _, note := range notes {
		if note.IsReply() {
			slog.Default().Debug("skip a reply listed at the top level", "id", note.ID, "parent", *note.ParentID)
			continue
		}
		if s.deleting[note.ID] {
			continue
		}
		loaded = append(loaded, s.reconcileLocked(note, shown[note.ID]))
	}

	s.scope = scopeKey
	s.notes = loaded
	s.publishLocked()
	return nil
}

// reconcileLocked prepares a top-level note received from the remote for local state.
func (s *Store) reconcileLocked(note Note, repliesShown bool) Note {
	note.RepliesShown = repliesShown
	if note.Replies != nil {
		replies := make([]Note, 0, len(note.Replies))
		for _, reply := range note.Replies {
			if s.deleting[reply.ID] {
				continue
			}
			parentID := note.ID
			reply.ParentID = &parentID
			reply.Replies = nil
			reply.ReplyCount = 0
			replies = append(replies, s.withPendingEditsLocked(reply))
		}
		note.Replies = replies
		note.ReplyCount = len(replies)
	}
	return s.withPendingEditsLocked(note)
}

func (s *Store) withPendingEditsLocked(note Note) Note {
	p, ok := s.edits[note.ID]
	if !ok {
		return note
	}
	p.base = revisionOf(note)
	return p.applyTo(note)
}

// Create posts a top-level note and prepends it once the remote accepted it.
func (s *Store) Create(ctx context.Context, title, content string) (Note, error) {
	draft := postDraft{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	if err := validate.Struct(draft); err != nil {
		return Note{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()

	created, err := s.remote.CreateNote(ctx, NewNote{
		Title:    draft.Title,
		Content:  draft.Content,
		ScopeKey: scope,
	})
	if err != nil {
		return Note{}, fmt.Errorf("remote.CreateNote() > %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope != scope {
		return created, nil
	}
	if _, ok := s.locateLocked(created.ID); !ok {
		s.notes = slices.Insert(s.notes, 0, s.reconcileLocked(created, false))
		s.publishLocked()
	}
	return created, nil
}

// Reply answers a top-level note. The reply is added only after the remote accepted it,
// and the replies of the parent become visible.
func (s *Store) Reply(ctx context.Context, parentID int64, content string) (Note, error) {
	content = strings.TrimSpace(content)
	if err := validate.Var(content, "required"); err != nil {
		return Note{}, fmt.Errorf("%w: content %v", ErrInvalidDraft, err)
	}

	s.mu.Lock()
	loc, ok := s.locateLocked(parentID)
	if !ok {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("id %d > %w", parentID, ErrNoteNotFound)
	}
	if loc.parent >= 0 {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("id %d > %w", parentID, ErrNestedReply)
	}
	scope := s.scope
	s.mu.Unlock()

	created, err := s.remote.CreateNote(ctx, NewNote{
		Title:    ReplyTitle,
		Content:  content,
		ParentID: &parentID,
		ScopeKey: scope,
	})
	if err != nil {
		err = fmt.Errorf("remote.CreateNote(parent=%d) > %w", parentID, err)
		s.reloadOnDrift(ctx, err)
		return Note{}, err
	}
	created.ParentID = &parentID
	created.Replies = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok = s.locateLocked(parentID)
	if !ok || loc.parent >= 0 {
		return created, nil
	}
	parent := &s.notes[loc.index]
	if !slices.ContainsFunc(parent.Replies, func(reply Note) bool { return reply.ID == created.ID }) {
		parent.Replies = append(parent.Replies, created)
		parent.ReplyCount++
	}
	parent.RepliesShown = true
	s.publishLocked()
	return created, nil
}

// Edit replaces the content of a note or reply right away and then on the remote. A failed edit
// falls back to the last content the remote confirmed, with edits still in flight applied on top.
func (s *Store) Edit(ctx context.Context, id int64, content string) (Note, error) {
	content = strings.TrimSpace(content)
	if err := validate.Var(content, "required"); err != nil {
		return Note{}, fmt.Errorf("%w: content %v", ErrInvalidDraft, err)
	}

	s.mu.Lock()
	loc, ok := s.locateLocked(id)
	if !ok {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("id %d > %w", id, ErrNoteNotFound)
	}
	note := s.noteAtLocked(loc)
	p, ok := s.edits[id]
	if !ok {
		p = &pendingEdits{base: revisionOf(*note)}
		s.edits[id] = p
	}
	seq := p.nextSeq
	p.nextSeq++
	p.queue = append(p.queue, queuedEdit{seq: seq, content: content})
	*note = p.applyTo(*note)
	ticket := s.lanes.Join(id)
	s.publishLocked()
	s.mu.Unlock()

	ticket.Wait()
	updated, err := s.remote.UpdateNote(ctx, id, content)
	ticket.Leave()

	s.mu.Lock()
	p.queue = slices.DeleteFunc(p.queue, func(q queuedEdit) bool {
		return q.seq == seq
	})
	if err == nil {
		p.base = revisionOf(updated)
	}
	if loc, ok := s.locateLocked(id); ok {
		note := s.noteAtLocked(loc)
		*note = p.applyTo(*note)
	}
	if len(p.queue) == 0 {
		delete(s.edits, id)
	}
	s.publishLocked()
	s.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("remote.UpdateNote(%d) > %w", id, err)
		s.reloadOnDrift(ctx, err)
		return Note{}, err
	}
	return updated, nil
}

// Delete removes a note or reply right away and then on the remote. On failure it goes back to
// its previous position, and a reply is counted on its parent again.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	loc, ok := s.locateLocked(id)
	if !ok || s.deleting[id] {
		s.mu.Unlock()
		return fmt.Errorf("id %d > %w", id, ErrNoteNotFound)
	}
	removed := s.noteAtLocked(loc).clone()
	if loc.parent < 0 {
		s.notes = slices.Delete(s.notes, loc.index, loc.index+1)
	} else {
		parent := &s.notes[loc.parent]
		parent.Replies = slices.Delete(parent.Replies, loc.index, loc.index+1)
		parent.ReplyCount = max(parent.ReplyCount-1, 0)
	}
	s.deleting[id] = true
	ticket := s.lanes.Join(id)
	s.publishLocked()
	s.mu.Unlock()

	ticket.Wait()
	err := s.remote.DeleteNote(ctx, id)
	ticket.Leave()

	s.mu.Lock()
	delete(s.deleting, id)
	if err == nil {
		delete(s.edits, id)
		delete(s.orphans, id)
		s.mu.Unlock()
		return nil
	}
	s.restoreLocked(removed, loc.index)
	s.publishLocked()
	s.mu.Unlock()

	err = fmt.Errorf("remote.DeleteNote(%d) > %w", id, err)
	s.reloadOnDrift(ctx, err)
	return err
}

func (s *Store) restoreLocked(note Note, index int) {
	if _, ok := s.locateLocked(note.ID); ok {
		return
	}
	if p, ok := s.edits[note.ID]; ok {
		note = p.applyTo(note)
	}
	if !note.IsReply() {
		s.notes = slices.Insert(s.notes, min(index, len(s.notes)), note)
		for _, o := range s.orphans[note.ID] {
			s.attachReplyLocked(o.reply, o.index)
		}
		delete(s.orphans, note.ID)
		return
	}
	parentID := *note.ParentID
	if _, ok := s.locateLocked(parentID); !ok && s.deleting[parentID] {
		// the parent comes back with these replies if its own delete fails
		orphans := append(s.orphans[parentID], orphan{reply: note, index: index})
		slices.SortFunc(orphans, func(a, b orphan) int { return a.index - b.index })
		s.orphans[parentID] = orphans
		return
	}
	s.attachReplyLocked(note, index)
}

func (s *Store) attachReplyLocked(reply Note, index int) {
	parentLoc, ok := s.locateLocked(*reply.ParentID)
	if !ok || parentLoc.parent >= 0 {
		return
	}
	parent := &s.notes[parentLoc.index]
	if slices.ContainsFunc(parent.Replies, func(r Note) bool { return r.ID == reply.ID }) {
		return
	}
	parent.Replies = slices.Insert(parent.Replies, min(index, len(parent.Replies)), reply)
	parent.ReplyCount++
}

// ToggleReplies shows or hides the replies of a top-level note.
func (s *Store) ToggleReplies(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locateLocked(id)
	if !ok {
		return fmt.Errorf("id %d > %w", id, ErrNoteNotFound)
	}
	if loc.parent >= 0 {
		return fmt.Errorf("id %d > %w", id, ErrNestedReply)
	}
	s.notes[loc.index].RepliesShown = !s.notes[loc.index].RepliesShown
	s.publishLocked()
	return nil
}

// Notes returns a copy of the top-level notes with their replies.
func (s *Store) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns a copy of the note or reply with the given id.
func (s *Store) Get(id int64) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locateLocked(id)
	if !ok {
		return Note{}, false
	}
	return s.noteAtLocked(loc).clone(), true
}

// Scope returns the scope key of the loaded notes.
func (s *Store) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Subscribe streams the notes after every local change.
func (s *Store) Subscribe() (<-chan []Note, func()) {
	return s.topic.Subscribe()
}

func (s *Store) reloadOnDrift(ctx context.Context, cause error) {
	if !remote.IsDrift(cause) {
		return
	}
	scope := s.Scope()
	slog.Default().Info("notes drifted from the remote, reloading", "scope", scope, "cause", cause)
	if err := s.Load(ctx, scope); err != nil {
		slog.Default().Warn("failed to reload notes", "scope", scope, "error", err)
	}
}

func (s *Store) locateLocked(id int64) (location, bool) {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return location{parent: -1, index: i}, true
		}
		for j := range s.notes[i].Replies {
			if s.notes[i].Replies[j].ID == id {
				return location{parent: i, index: j}, true
			}
		}
	}
	return location{}, false
}

func (s *Store) noteAtLocked(loc location) *Note {
	if loc.parent < 0 {
		return &s.notes[loc.index]
	}
	return &s.notes[loc.parent].Replies[loc.index]
}

func (s *Store) snapshotLocked() []Note {
	notes := make([]Note, len(s.notes))
	for i, note := range s.notes {
		notes[i] = note.clone()
	}
	return notes
}

func (s *Store) publishLocked() {
	s.topic.Publish(s.snapshotLocked())
}
