package featured

import (
	"context"

	"github.com/at-ishikawa/cinelog/internal/catalog"
)

//go:generate mockgen -source=interface.go -destination=../mocks/featured/mock_fetcher.go -package=mock_featured

// Fetcher looks a movie up in the catalog by its exact title.
type Fetcher interface {
	FindByTitle(ctx context.Context, title string) (catalog.Movie, error)
}
