package thread

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/thread/mock_remote.go -package=mock_thread

// Remote is the notes half of the remote API.
type Remote interface {
	ListNotes(ctx context.Context, scopeKey string) ([]Note, error)
	CreateNote(ctx context.Context, note NewNote) (Note, error)
	UpdateNote(ctx context.Context, id int64, content string) (Note, error)
	DeleteNote(ctx context.Context, id int64) error
}
