package services

import (
	"context"
	"time"
)

// Store представляет JSON хранилище ключ-значение; реализуется redis.Client
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetMultiple(ctx context.Context, values map[string]interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
