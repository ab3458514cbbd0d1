package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const DefaultFilePath = "favorites.json"

var _ Repository = (*FileRepository)(nil)

// FileRepository keeps every favorite in one JSON array on disk. Each
// mutation loads the whole file, changes it and writes it back while holding
// the lock.
type FileRepository struct {
	mu     sync.Mutex
	path   string
	nextID int64
	logger *slog.Logger
}

func NewFileRepository(path string, logger *slog.Logger) *FileRepository {
	if path == "" {
		path = DefaultFilePath
	}
	r := &FileRepository{path: path, logger: logger, nextID: 1}
	for _, f := range r.load(context.Background()) {
		r.nextID = max(r.nextID, f.ID+1)
	}
	return r
}

// load treats a missing or unreadable file as an empty collection.
func (r *FileRepository) load(ctx context.Context) []types.Favorite {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.WarnContext(ctx, "Favorites file unreadable, starting empty", slog.String("path", r.path), slog.Any("error", err))
		}
		return []types.Favorite{}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []types.Favorite{}
	}
	var favs []types.Favorite
	if err := json.Unmarshal(data, &favs); err != nil {
		r.logger.WarnContext(ctx, "Favorites file corrupt, starting empty", slog.String("path", r.path), slog.Any("error", err))
		return []types.Favorite{}
	}
	return favs
}

func (r *FileRepository) save(favs []types.Favorite) error {
	data, err := json.MarshalIndent(favs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create favorites dir: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace favorites file: %w", err)
	}
	return nil
}

func (r *FileRepository) List(ctx context.Context) ([]types.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx), nil
}

func (r *FileRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	favs := r.load(ctx)
	for _, f := range favs {
		if strings.EqualFold(f.PlaceName, fav.PlaceName) {
			return f, ErrDuplicateFavorite
		}
		// another process may have written ids past ours
		r.nextID = max(r.nextID, f.ID+1)
	}

	now := time.Now().UTC()
	fav.ID = r.nextID
	fav.CreatedAt = &now
	if fav.PlacesData == nil {
		fav.PlacesData = []types.PlaceOfInterest{}
	}
	if err := r.save(append(favs, fav)); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist favorite", slog.String("place", fav.PlaceName), slog.Any("error", err))
		return types.Favorite{}, err
	}
	r.nextID++
	return fav, nil
}

func (r *FileRepository) Get(ctx context.Context, id int64) (types.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.load(ctx) {
		if f.ID == id {
			return f, nil
		}
	}
	return types.Favorite{}, ErrFavoriteNotFound
}

func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	return r.remove(ctx, func(f types.Favorite) bool { return f.ID == id })
}

func (r *FileRepository) DeleteByName(ctx context.Context, name string) error {
	return r.remove(ctx, func(f types.Favorite) bool { return strings.EqualFold(f.PlaceName, name) })
}

func (r *FileRepository) remove(ctx context.Context, match func(types.Favorite) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	favs := r.load(ctx)
	kept := favs[:0]
	for _, f := range favs {
		if !match(f) {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(favs) {
		return ErrFavoriteNotFound
	}
	if err := r.save(kept); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist favorites after removal", slog.Any("error", err))
		return err
	}
	return nil
}
