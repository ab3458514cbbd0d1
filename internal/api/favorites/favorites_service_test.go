package favorites

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) List(ctx context.Context) ([]types.Favorite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Favorite), args.Error(1)
}

func (m *MockRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, error) {
	args := m.Called(ctx, fav)
	return args.Get(0).(types.Favorite), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id int64) (types.Favorite, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Favorite), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) DeleteByName(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func setupFavoritesServiceTest(t *testing.T) *ServiceImpl {
	t.Helper()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "favorites.json"), discardLogger())
	return NewServiceImpl(repo, nil, discardLogger())
}

func TestServiceImpl_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("adding the same place twice keeps one", func(t *testing.T) {
		svc := setupFavoritesServiceTest(t)
		req := types.AddFavoriteRequest{PlaceName: "Paris, France", Coordinates: &types.Coordinates{Lat: 48.85, Lon: 2.35}}

		first, err := svc.Add(ctx, req)
		require.NoError(t, err)
		assert.True(t, first.Success)
		assert.Equal(t, MessageAdded, first.Message)

		second, err := svc.Add(ctx, req)
		assert.ErrorIs(t, err, ErrDuplicateFavorite)
		assert.False(t, second.Success)
		assert.Equal(t, MessageDuplicate, second.Message)
		require.NotNil(t, second.Favorite)
		assert.Equal(t, first.Favorite.ID, second.Favorite.ID)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, list.Count)
	})

	t.Run("names differing only in case clash", func(t *testing.T) {
		svc := setupFavoritesServiceTest(t)
		names := []string{"Tokyo", "TOKYO", "tokyo", "  ToKyO  "}
		for i, n := range names {
			res, err := svc.Add(ctx, types.AddFavoriteRequest{PlaceName: n})
			if i == 0 {
				require.NoError(t, err)
				continue
			}
			assert.False(t, res.Success, n)
		}
		list, _ := svc.List(ctx)
		assert.Equal(t, 1, list.Count)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		svc := setupFavoritesServiceTest(t)
		res, err := svc.Add(ctx, types.AddFavoriteRequest{PlaceName: "   "})
		assert.ErrorIs(t, err, ErrInvalidFavorite)
		assert.False(t, res.Success)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Add", mock.Anything, mock.Anything).Return(types.Favorite{}, errors.New("disk full")).Once()
		svc := NewServiceImpl(repo, nil, discardLogger())

		res, err := svc.Add(ctx, types.AddFavoriteRequest{PlaceName: "Oslo"})
		assert.Error(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Failed to save favorite", res.Message)
		repo.AssertExpectations(t)
	})
}

func TestServiceImpl_Remove(t *testing.T) {
	ctx := context.Background()
	svc := setupFavoritesServiceTest(t)

	added, err := svc.Add(ctx, types.AddFavoriteRequest{PlaceName: "Lisbon, Portugal"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, types.AddFavoriteRequest{PlaceName: "Porto, Portugal"})
	require.NoError(t, err)

	res, err := svc.Remove(ctx, added.Favorite.ID)
	require.NoError(t, err)
	assert.Equal(t, types.FavoriteResult{Success: true, Message: MessageRemoved}, res)

	res, err = svc.Remove(ctx, added.Favorite.ID)
	assert.ErrorIs(t, err, ErrFavoriteNotFound)
	assert.Equal(t, types.FavoriteResult{Message: MessageNotFound}, res)

	res, err = svc.RemoveByName(ctx, "porto, PORTUGAL")
	require.NoError(t, err)
	assert.True(t, res.Success)

	list, _ := svc.List(ctx)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Favorites)
}

func TestServiceImpl_Get(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Get", mock.Anything, int64(9)).Return(types.Favorite{}, ErrFavoriteNotFound).Once()
	svc := NewServiceImpl(repo, nil, discardLogger())

	_, err := svc.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrFavoriteNotFound)
	repo.AssertExpectations(t)
}
