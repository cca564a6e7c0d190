package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"barberbook/internal/models"
)

// Store is the persistent side of the catalog.
type Store interface {
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListServices(ctx context.Context, barberID int64) ([]models.Service, error)
	CreateService(ctx context.Context, s *models.Service) (int64, error)
	UpdateServiceSchedule(ctx context.Context, serviceID int64, weekly map[models.Day][]string) error
}

// Catalog serves service definitions, optionally read-through cached in
// Redis. With a nil client every read goes straight to the store. Cache
// problems are logged and degrade to store reads, never to errors.
type Catalog struct {
	store  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func New(store Store, rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{store: store, rdb: rdb, ttl: ttl, logger: logger}
}

func serviceKey(id int64) string {
	return fmt.Sprintf("service:%d", id)
}

// GetService returns a service, from cache when possible.
func (c *Catalog) GetService(ctx context.Context, id int64) (*models.Service, error) {
	if s := c.readCache(ctx, id); s != nil {
		return s, nil
	}

	s, err := c.store.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, s)
	return s, nil
}

// ListServices returns a barber's services. Listings are not cached; they
// carry no schedules and the store query is a single indexed scan.
func (c *Catalog) ListServices(ctx context.Context, barberID int64) ([]models.Service, error) {
	return c.store.ListServices(ctx, barberID)
}

// CreateService persists a new service.
func (c *Catalog) CreateService(ctx context.Context, s *models.Service) (int64, error) {
	return c.store.CreateService(ctx, s)
}

// UpdateServiceSchedule replaces a service's weekly schedule and drops the
// stale cache entry.
func (c *Catalog) UpdateServiceSchedule(ctx context.Context, serviceID int64, weekly map[models.Day][]string) error {
	if err := c.store.UpdateServiceSchedule(ctx, serviceID, weekly); err != nil {
		return err
	}
	c.invalidate(ctx, serviceID)
	return nil
}

func (c *Catalog) readCache(ctx context.Context, id int64) *models.Service {
	if c.rdb == nil {
		return nil
	}
	data, err := c.rdb.Get(ctx, serviceKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Int64("service_id", id).Msg("cache read failed")
		}
		return nil
	}
	var s models.Service
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn().Err(err).Int64("service_id", id).Msg("cache entry corrupt")
		c.invalidate(ctx, id)
		return nil
	}
	return &s
}

func (c *Catalog) writeCache(ctx context.Context, s *models.Service) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, serviceKey(s.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("service_id", s.ID).Msg("cache write failed")
	}
}

func (c *Catalog) invalidate(ctx context.Context, id int64) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, serviceKey(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("service_id", id).Msg("cache invalidation failed")
	}
}
