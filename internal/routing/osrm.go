// Package routing строит маршрут между двумя точками через OSRM.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"partner-tracker/internal/config"
	"partner-tracker/internal/geo"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"
)

// ErrNoRoute OSRM не нашел маршрут между точками
var ErrNoRoute = errors.New("no route found")

// Cache представляет кеш готовых маршрутов
type Cache interface {
	GetRoute(ctx context.Context, key string, route *models.Route) (bool, error)
	SetRoute(ctx context.Context, key string, route *models.Route) error
}

// osrmResponse формат ответа OSRM
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Client представляет клиент OSRM
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	cache      Cache
	log        *logger.Logger
}

// NewClient создает новый клиент маршрутов; cache может быть nil
func NewClient(cfg *config.RoutingConfig, cache Cache, log *logger.Logger) *Client {
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		log:        log,
	}
}

// Directions возвращает маршрут от origin до dest с полилинией и границами
func (c *Client) Directions(ctx context.Context, origin, dest models.Point) (*models.Route, error) {
	key := CacheKey(origin, dest)
	if c.cache != nil {
		var cached models.Route
		found, err := c.cache.GetRoute(ctx, key, &cached)
		if err != nil {
			c.log.WithError(err).WithField("key", key).Warn("Route cache lookup failed")
		}
		if found {
			return &cached, nil
		}
	}

	route, err := c.fetch(ctx, origin, dest)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetRoute(ctx, key, route); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("Failed to cache route")
		}
	}

	return route, nil
}

func (c *Client) fetch(ctx context.Context, origin, dest models.Point) (*models.Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.baseURL, c.profile, origin.Lon, origin.Lat, dest.Lon, dest.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build route request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSRM returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read route response: %w", err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("JSON decode failed: %w", err)
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Geometry.Coordinates) == 0 {
		return nil, ErrNoRoute
	}

	best := parsed.Routes[0]
	polyline := make([]models.Point, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		polyline = append(polyline, models.Point{Lon: pair[0], Lat: pair[1]})
	}

	return &models.Route{
		Polyline:        polyline,
		Bounds:          geo.BoundsOf(polyline),
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}

// CacheKey строит ключ кеша по координатам, округленным примерно до 10 м.
// Префикс хранилища добавляет кеш.
func CacheKey(origin, dest models.Point) string {
	return fmt.Sprintf("%.4f,%.4f:%.4f,%.4f", origin.Lat, origin.Lon, dest.Lat, dest.Lon)
}
