package search

import (
	"context"

	"github.com/at-ishikawa/cinelog/internal/catalog"
)

//go:generate mockgen -source=interface.go -destination=../mocks/search/mock_searcher.go -package=mock_search

// Searcher runs a free-text query against the movie catalog.
type Searcher interface {
	SearchCatalog(ctx context.Context, query string) ([]catalog.Movie, error)
}
