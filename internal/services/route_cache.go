package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"partner-tracker/internal/config"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/metrics"
	"partner-tracker/internal/models"
	"partner-tracker/internal/redis"
)

// RouteCache кеширует маршруты OSRM в Redis
type RouteCache struct {
	store  Store
	config *config.CacheConfig
	logger *logger.Logger
	hits   atomic.Uint64 // Количество попаданий в кеш
	misses atomic.Uint64 // Количество промахов
}

// CacheMetrics представляет метрики кеширования
type CacheMetrics struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	TotalReqs uint64  `json:"total_requests"`
	HitRate   float64 `json:"hit_rate"`
}

// NewRouteCache создает новый кеш маршрутов
func NewRouteCache(store Store, cfg *config.CacheConfig, log *logger.Logger) *RouteCache {
	return &RouteCache{
		store:  store,
		config: cfg,
		logger: log,
	}
}

// GetRoute получает маршрут из кеша
func (c *RouteCache) GetRoute(ctx context.Context, key string, route *models.Route) (bool, error) {
	if !c.config.Enabled {
		c.miss()
		return false, nil
	}

	err := c.store.Get(ctx, redis.GenerateKey(redis.KeyPrefixRoute, key), route)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			c.miss()
			return false, nil
		}
		c.logger.WithError(err).WithField("key", key).Error("Failed to get route from cache")
		return false, err
	}

	c.hits.Add(1)
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return true, nil
}

// SetRoute сохраняет маршрут в кеш с TTL из конфигурации
func (c *RouteCache) SetRoute(ctx context.Context, key string, route *models.Route) error {
	if !c.config.Enabled {
		return nil
	}

	err := c.store.Set(ctx, redis.GenerateKey(redis.KeyPrefixRoute, key), route, c.TTL())
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to set route cache")
		return err
	}
	return nil
}

// Metrics возвращает метрики кеширования
func (c *RouteCache) Metrics() *CacheMetrics {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return &CacheMetrics{
		Hits:      hits,
		Misses:    misses,
		TotalReqs: total,
		HitRate:   hitRate,
	}
}

// TTL возвращает время жизни маршрута в кеше
func (c *RouteCache) TTL() time.Duration {
	return time.Duration(c.config.RouteTTL) * time.Second
}

func (c *RouteCache) miss() {
	c.misses.Add(1)
	metrics.CacheRequests.WithLabelValues("miss").Inc()
}
