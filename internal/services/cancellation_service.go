package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/redis"

	goredis "github.com/go-redis/redis/v8"
)

// Lua скрипт для атомарного инкремента дневного счетчика отказов.
// Ключ живет до конца суток партнера.
const rejectionLuaScript = `
local key = KEYS[1]
local expire_at = tonumber(ARGV[1])

local current = redis.call('INCR', key)
if current == 1 then
    redis.call('EXPIREAT', key, expire_at)
end
return current
`

// Scripter выполняет Lua скрипты и читает счетчики; реализуется go-redis
type Scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// CancellationService ведет дневной счетчик отказов партнера от заказов
type CancellationService struct {
	client Scripter
	limit  int
	loc    *time.Location
	now    func() time.Time
	log    *logger.Logger
}

// RejectionStatus представляет состояние дневного лимита отказов
type RejectionStatus struct {
	Count     int       `json:"count"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Blocked   bool      `json:"blocked"`
	ResetAt   time.Time `json:"reset_at"`
}

// NewCancellationService создает новый счетчик отказов
func NewCancellationService(client Scripter, limit int, log *logger.Logger) *CancellationService {
	return &CancellationService{
		client: client,
		limit:  limit,
		loc:    time.Local,
		now:    time.Now,
		log:    log,
	}
}

// Record учитывает отказ и возвращает число отказов за сегодня
func (s *CancellationService) Record(ctx context.Context, driverID string) (int, error) {
	now := s.now().In(s.loc)
	key := rejectionKey(driverID, now)

	result, err := s.client.Eval(ctx, rejectionLuaScript, []string{key}, endOfDay(now).Unix()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record rejection: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected rejection counter result %v", result)
	}

	s.log.ForDriver(driverID).
		WithField("count", count).
		WithField("limit", s.limit).
		Info("Order rejection recorded")

	return int(count), nil
}

// Count возвращает число отказов за сегодня без изменения счетчика
func (s *CancellationService) Count(ctx context.Context, driverID string) (int, error) {
	key := rejectionKey(driverID, s.now().In(s.loc))

	count, err := s.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read rejection counter: %w", err)
	}
	return count, nil
}

// Status возвращает состояние лимита отказов на сегодня
func (s *CancellationService) Status(ctx context.Context, driverID string) (*RejectionStatus, error) {
	count, err := s.Count(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return newRejectionStatus(count, s.limit, endOfDay(s.now().In(s.loc))), nil
}

// Reset сбрасывает счетчик отказов за сегодня
func (s *CancellationService) Reset(ctx context.Context, driverID string) error {
	key := rejectionKey(driverID, s.now().In(s.loc))
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset rejection counter: %w", err)
	}

	s.log.ForDriver(driverID).Info("Rejection counter reset")
	return nil
}

// Limit возвращает дневной лимит отказов; 0 означает без лимита
func (s *CancellationService) Limit() int {
	return s.limit
}

func newRejectionStatus(count, limit int, resetAt time.Time) *RejectionStatus {
	status := &RejectionStatus{Count: count, Limit: limit, ResetAt: resetAt}
	if limit > 0 {
		status.Remaining = limit - count
		if status.Remaining < 0 {
			status.Remaining = 0
		}
		status.Blocked = count >= limit
	}
	return status
}

func rejectionKey(driverID string, day time.Time) string {
	return redis.GenerateKey(redis.KeyPrefixRejections, driverID, day.Format("2006-01-02"))
}

// endOfDay возвращает начало следующих суток в часовом поясе t
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
