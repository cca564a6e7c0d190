package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barberbook/internal/models"
)

type countingStore struct {
	services map[int64]*models.Service
	gets     int
}

func (s *countingStore) GetService(_ context.Context, id int64) (*models.Service, error) {
	s.gets++
	svc, ok := s.services[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *svc
	return &copied, nil
}

func (s *countingStore) ListServices(_ context.Context, barberID int64) ([]models.Service, error) {
	var out []models.Service
	for _, svc := range s.services {
		if svc.BarberID == barberID {
			out = append(out, *svc)
		}
	}
	return out, nil
}

func (s *countingStore) CreateService(_ context.Context, svc *models.Service) (int64, error) {
	id := int64(len(s.services) + 1)
	svc.ID = id
	s.services[id] = svc
	return id, nil
}

func (s *countingStore) UpdateServiceSchedule(_ context.Context, serviceID int64, weekly map[models.Day][]string) error {
	svc, ok := s.services[serviceID]
	if !ok {
		return models.ErrNotFound
	}
	svc.WeeklySchedule = weekly
	return nil
}

func newTestCatalog(t *testing.T) (*Catalog, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &countingStore{services: map[int64]*models.Service{
		1: {
			ID:       1,
			BarberID: 10,
			Name:     "Haircut",
			WeeklySchedule: map[models.Day][]string{
				models.Monday: {"09:00", "10:00"},
			},
		},
	}}
	logger := zerolog.Nop()
	return New(store, rdb, time.Minute, &logger), store, mr
}

func TestGetService_ReadThrough(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()

	s, err := c.GetService(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Haircut", s.Name)
	assert.Equal(t, 1, store.gets)

	// Second read is served from cache.
	s, err = c.GetService(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, s.WeeklySchedule[models.Monday])
	assert.Equal(t, 1, store.gets)
}

func TestGetService_NotFoundNotCached(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.GetService(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = c.GetService(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 2, store.gets)
}

func TestUpdateServiceSchedule_InvalidatesCache(t *testing.T) {
	c, store, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.GetService(ctx, 1)
	require.NoError(t, err)

	newWeekly := map[models.Day][]string{models.Friday: {"12:00"}}
	require.NoError(t, c.UpdateServiceSchedule(ctx, 1, newWeekly))

	s, err := c.GetService(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00"}, s.WeeklySchedule[models.Friday])
	assert.Empty(t, s.WeeklySchedule[models.Monday])
	assert.Equal(t, 2, store.gets, "post-invalidation read must hit the store")
}

func TestGetService_CorruptCacheEntryFallsBack(t *testing.T) {
	c, _, mr := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("service:1", "{not json"))

	s, err := c.GetService(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Haircut", s.Name)
}

func TestGetService_NoRedisClient(t *testing.T) {
	store := &countingStore{services: map[int64]*models.Service{
		1: {ID: 1, BarberID: 10, Name: "Haircut"},
	}}
	logger := zerolog.Nop()
	c := New(store, nil, time.Minute, &logger)

	s, err := c.GetService(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Haircut", s.Name)
}
