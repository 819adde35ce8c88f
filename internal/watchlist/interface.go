package watchlist

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/watchlist/mock_remote.go -package=mock_watchlist

// Remote is the watch-list half of the remote API.
type Remote interface {
	ListWatchlist(ctx context.Context) ([]Item, error)
	CreateWatchlistItem(ctx context.Context, item NewItem) (Item, error)
	UpdateWatchlistItem(ctx context.Context, id int64, patch Patch) (Item, error)
	DeleteWatchlistItem(ctx context.Context, id int64) error
}
