package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"partner-tracker/internal/backend"
	"partner-tracker/internal/config"
	"partner-tracker/internal/database"
	"partner-tracker/internal/handlers"
	"partner-tracker/internal/kafka"
	"partner-tracker/internal/location"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/middleware"
	"partner-tracker/internal/models"
	"partner-tracker/internal/notify"
	"partner-tracker/internal/redis"
	"partner-tracker/internal/routing"
	"partner-tracker/internal/services"
	"partner-tracker/internal/tracking"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Инициализация логгера
	log := logger.New(&cfg.Logger)
	log.Info("Starting partner tracker...")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных журнала
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("Failed to prepare database schema")
	}

	// Подключение к Redis
	redisClient, err := redis.Connect(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Инициализация сервисов
	prefs := services.NewPreferencesService(redisClient, log)
	routeCache := services.NewRouteCache(redisClient, &cfg.Cache, log)
	journal := services.NewJournalService(db, log)
	rejections := services.NewCancellationService(redisClient.GetClient(), cfg.Tracking.MaxDailyRejections, log)

	backendClient := backend.NewClient(&cfg.Backend, log)
	driver, err := loadDriver(ctx, cfg, backendClient, prefs, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load partner profile")
	}
	log.ForDriver(driver.ID).
		WithField("role", driver.Role).
		WithField("vehicle_type", driver.VehicleType).
		Info("Partner profile loaded")

	router := routing.NewClient(&cfg.Routing, routeCache, log)
	feed := location.NewFeed()

	// Kafka необязательна: без нее события остаются внутри процесса
	var (
		publisher tracking.Publisher
		producer  *kafka.Producer
		consumer  *kafka.Consumer
	)
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(&cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		publisher = producer

		consumer, err = kafka.NewConsumer(&cfg.Kafka, driver.ID, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Kafka consumer")
		}
	}

	session := tracking.NewSession(tracking.OptionsFromConfig(cfg, driver), tracking.Deps{
		Backend:    backendClient,
		Router:     router,
		Source:     feed,
		Journal:    journal,
		Publisher:  publisher,
		Rejections: rejections,
		Log:        log,
	})
	if err := session.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start tracking session")
	}
	defer session.Stop()

	go renderEvents(ctx, session, log)

	if consumer != nil {
		registerEventHandlers(consumer, notify.NewRenderer(&cfg.Notify), driver.Role, session, feed)
		if err := consumer.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start Kafka consumer")
		}
		defer consumer.Stop()
	}

	// Настройка HTTP роутера
	routes := &handlers.Router{
		Session:    handlers.NewSessionHandler(session, log),
		Location:   handlers.NewLocationHandler(feed, log),
		Cache:      handlers.NewCacheHandler(routeCache, log),
		Rejections: handlers.NewRejectionHandler(rejections, driver.ID, log),
		Journal:    handlers.NewJournalHandler(journal, driver.ID, log),
		Metrics:    promhttp.Handler(),
		Health: handlers.NewHealthHandler(map[string]handlers.Checker{
			"database": db.Health,
			"redis":    redisClient.Health,
		}),
	}

	// Создание HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      middleware.Logging(log)(handlers.CORS(routes.Mux())),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		log.WithField("address", server.Addr).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()
	log.Info("Shutting down partner tracker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Partner tracker exited")
}

// loadDriver получает профиль у платформы и сохраняет его локально.
// Если платформа недоступна, используется сохраненный профиль.
func loadDriver(ctx context.Context, cfg *config.Config, client *backend.Client, prefs *services.PreferencesService, log *logger.Logger) (*models.Driver, error) {
	token := cfg.Backend.Token
	if token == "" && cfg.Tracking.DriverID != "" {
		stored, err := prefs.Token(ctx, cfg.Tracking.DriverID)
		if err != nil {
			return nil, fmt.Errorf("no backend token configured: %w", err)
		}
		token = stored
		client.SetToken(token)
	}

	driver, err := client.Profile(ctx)
	if err == nil {
		if err := prefs.SaveSession(ctx, token, driver); err != nil {
			log.WithError(err).Warn("Failed to store partner session")
		}
		return driver, nil
	}

	if cfg.Tracking.DriverID == "" {
		return nil, err
	}
	log.WithError(err).Warn("Backend profile unavailable, using stored profile")

	stored, perr := prefs.Profile(ctx, cfg.Tracking.DriverID)
	if perr != nil {
		return nil, perr
	}
	if stored == nil {
		return nil, err
	}
	return stored, nil
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, renderer *notify.Renderer, role models.Role, session *tracking.Session, feed *location.Feed) {
	consumer.RegisterHandler(models.EventTypePushMessage, kafka.PushHandler(renderer, role, session))
	consumer.RegisterHandler(models.EventTypeLocationFix, kafka.FixHandler(feed))
	consumer.RegisterHandler(models.EventTypeAvailability, kafka.AvailabilityHandler(feed))
}

// renderEvents выводит события сессии в лог вместо экрана
func renderEvents(ctx context.Context, session *tracking.Session, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-session.Events():
			entry := log.WithField("event_type", event.Type).WithField("event_id", event.ID)
			switch event.Type {
			case models.EventTypeAlert, models.EventTypeError, models.EventTypeLocationError:
				entry.WithField("data", event.Data).Warn("Session event")
			case models.EventTypeLocationUpdated:
				entry.Debug("Session event")
			default:
				entry.WithField("data", event.Data).Info("Session event")
			}
		}
	}
}
