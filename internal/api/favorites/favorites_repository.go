package favorites

import (
	"context"
	"errors"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

var (
	ErrDuplicateFavorite = errors.New("place already in favorites")
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrInvalidFavorite   = errors.New("place name is required")
)

// Repository stores favorites. Place names are unique ignoring case and ids
// are never handed out twice.
type Repository interface {
	List(ctx context.Context) ([]types.Favorite, error)
	// Add assigns the id and creation time. On a name clash it returns the
	// stored favorite together with ErrDuplicateFavorite.
	Add(ctx context.Context, fav types.Favorite) (types.Favorite, error)
	Get(ctx context.Context, id int64) (types.Favorite, error)
	Delete(ctx context.Context, id int64) error
	DeleteByName(ctx context.Context, name string) error
}
