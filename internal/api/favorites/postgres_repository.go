package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores favorites in the favorites table. The bigserial
// id and the unique index on lower(place_name) carry the store's guarantees.
type PostgresRepository struct {
	logger *slog.Logger
	db     DBTX
}

func NewPostgresRepository(db DBTX, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{logger: logger, db: db}
}

const selectFavorite = `
        SELECT id, place_name, coordinates, weather_data, places_data, created_at
        FROM favorites`

type favoriteRow struct {
	id          int64
	placeName   string
	coordinates []byte
	weather     []byte
	places      []byte
	createdAt   time.Time
}

func (fr *favoriteRow) dest() []any {
	return []any{&fr.id, &fr.placeName, &fr.coordinates, &fr.weather, &fr.places, &fr.createdAt}
}

func (fr *favoriteRow) favorite() (types.Favorite, error) {
	createdAt := fr.createdAt
	fav := types.Favorite{
		ID:         fr.id,
		PlaceName:  fr.placeName,
		PlacesData: []types.PlaceOfInterest{},
		CreatedAt:  &createdAt,
	}
	if len(fr.coordinates) > 0 {
		if err := json.Unmarshal(fr.coordinates, &fav.Coordinates); err != nil {
			return types.Favorite{}, fmt.Errorf("failed to decode coordinates of favorite %d: %w", fr.id, err)
		}
	}
	if len(fr.weather) > 0 {
		if err := json.Unmarshal(fr.weather, &fav.WeatherData); err != nil {
			return types.Favorite{}, fmt.Errorf("failed to decode weather of favorite %d: %w", fr.id, err)
		}
	}
	if len(fr.places) > 0 {
		if err := json.Unmarshal(fr.places, &fav.PlacesData); err != nil {
			return types.Favorite{}, fmt.Errorf("failed to decode places of favorite %d: %w", fr.id, err)
		}
		if fav.PlacesData == nil {
			fav.PlacesData = []types.PlaceOfInterest{}
		}
	}
	return fav, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]types.Favorite, error) {
	rows, err := r.db.Query(ctx, selectFavorite+` ORDER BY id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list favorites", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favs := []types.Favorite{}
	for rows.Next() {
		var fr favoriteRow
		if err := rows.Scan(fr.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		fav, err := fr.favorite()
		if err != nil {
			return nil, err
		}
		favs = append(favs, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return favs, nil
}

func (r *PostgresRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, error) {
	coords, err := nullableJSON(fav.Coordinates)
	if err != nil {
		return types.Favorite{}, err
	}
	weather, err := nullableJSON(fav.WeatherData)
	if err != nil {
		return types.Favorite{}, err
	}
	if fav.PlacesData == nil {
		fav.PlacesData = []types.PlaceOfInterest{}
	}
	places, err := json.Marshal(fav.PlacesData)
	if err != nil {
		return types.Favorite{}, fmt.Errorf("failed to encode places: %w", err)
	}

	query := `
        INSERT INTO favorites (place_name, coordinates, weather_data, places_data)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
        RETURNING id, created_at`
	var createdAt time.Time
	err = r.db.QueryRow(ctx, query, fav.PlaceName, coords, weather, places).Scan(&fav.ID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.getBy(ctx, ` WHERE lower(place_name) = lower($1)`, fav.PlaceName)
		if getErr != nil {
			return types.Favorite{}, getErr
		}
		return existing, ErrDuplicateFavorite
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert favorite", slog.String("place", fav.PlaceName), slog.Any("error", err))
		return types.Favorite{}, fmt.Errorf("failed to insert favorite: %w", err)
	}
	fav.CreatedAt = &createdAt
	return fav, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (types.Favorite, error) {
	return r.getBy(ctx, ` WHERE id = $1`, id)
}

func (r *PostgresRepository) getBy(ctx context.Context, where string, arg any) (types.Favorite, error) {
	var fr favoriteRow
	err := r.db.QueryRow(ctx, selectFavorite+where, arg).Scan(fr.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Favorite{}, ErrFavoriteNotFound
	}
	if err != nil {
		return types.Favorite{}, fmt.Errorf("failed to get favorite: %w", err)
	}
	return fr.favorite()
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM favorites WHERE id = $1`, id)
}

func (r *PostgresRepository) DeleteByName(ctx context.Context, name string) error {
	return r.delete(ctx, `DELETE FROM favorites WHERE lower(place_name) = lower($1)`, name)
}

func (r *PostgresRepository) delete(ctx context.Context, query string, arg any) error {
	tag, err := r.db.Exec(ctx, query, arg)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete favorite", slog.Any("error", err))
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// nullableJSON encodes v, mapping a nil pointer to SQL NULL.
func nullableJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return b, nil
}
