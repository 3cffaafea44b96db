package services

import (
	"context"
	"errors"
	"fmt"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"
	"partner-tracker/internal/redis"
)

// ErrNoToken токен партнера еще не сохранен
var ErrNoToken = errors.New("auth token is not stored")

// PreferencesService хранит токен, профиль и флаги онбординга партнера
type PreferencesService struct {
	store Store
	log   *logger.Logger
}

// Onboarding представляет флаги первичной настройки приложения
type Onboarding struct {
	LocationPermissionAsked bool `json:"location_permission_asked"`
	NotificationsAsked      bool `json:"notifications_asked"`
	TutorialSeen            bool `json:"tutorial_seen"`
}

// NewPreferencesService создает новый сервис настроек
func NewPreferencesService(store Store, log *logger.Logger) *PreferencesService {
	return &PreferencesService{
		store: store,
		log:   log,
	}
}

// SaveSession сохраняет токен и профиль одной операцией
func (s *PreferencesService) SaveSession(ctx context.Context, token string, driver *models.Driver) error {
	if driver == nil || driver.ID == "" {
		return fmt.Errorf("driver profile without id")
	}

	values := map[string]interface{}{
		redis.GenerateKey(redis.KeyPrefixToken, driver.ID):   token,
		redis.GenerateKey(redis.KeyPrefixProfile, driver.ID): driver,
	}
	if err := s.store.SetMultiple(ctx, values, 0); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.log.ForDriver(driver.ID).Info("Partner session saved")
	return nil
}

// Token возвращает сохраненный токен
func (s *PreferencesService) Token(ctx context.Context, driverID string) (string, error) {
	var token string
	if err := s.store.Get(ctx, redis.GenerateKey(redis.KeyPrefixToken, driverID), &token); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// Profile возвращает сохраненный профиль; nil, если профиля нет
func (s *PreferencesService) Profile(ctx context.Context, driverID string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.store.Get(ctx, redis.GenerateKey(redis.KeyPrefixProfile, driverID), &driver); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &driver, nil
}

// Onboarding возвращает флаги онбординга; отсутствие записи означает нулевые флаги
func (s *PreferencesService) Onboarding(ctx context.Context, driverID string) (*Onboarding, error) {
	var flags Onboarding
	if err := s.store.Get(ctx, redis.GenerateKey(redis.KeyPrefixOnboarding, driverID), &flags); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return &flags, nil
		}
		return nil, fmt.Errorf("failed to get onboarding flags: %w", err)
	}
	return &flags, nil
}

// SaveOnboarding сохраняет флаги онбординга
func (s *PreferencesService) SaveOnboarding(ctx context.Context, driverID string, flags *Onboarding) error {
	if err := s.store.Set(ctx, redis.GenerateKey(redis.KeyPrefixOnboarding, driverID), flags, 0); err != nil {
		return fmt.Errorf("failed to save onboarding flags: %w", err)
	}
	return nil
}

// Clear удаляет все данные партнера при выходе из аккаунта
func (s *PreferencesService) Clear(ctx context.Context, driverID string) error {
	err := s.store.Delete(ctx,
		redis.GenerateKey(redis.KeyPrefixToken, driverID),
		redis.GenerateKey(redis.KeyPrefixProfile, driverID),
		redis.GenerateKey(redis.KeyPrefixOnboarding, driverID),
	)
	if err != nil {
		return fmt.Errorf("failed to clear preferences: %w", err)
	}

	s.log.ForDriver(driverID).Info("Partner preferences cleared")
	return nil
}
