package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	Logger   LoggerConfig   `json:"logger"`
	Cache    CacheConfig    `json:"cache"`
	Backend  BackendConfig  `json:"backend"`
	Routing  RoutingConfig  `json:"routing"`
	Tracking TrackingConfig `json:"tracking"`
	Location LocationConfig `json:"location"`
	Notify   NotifyConfig   `json:"notify"`
}

// CacheConfig представляет конфигурацию кеширования маршрутов
type CacheConfig struct {
	Enabled  bool `json:"enabled"`
	RouteTTL int  `json:"route_ttl"` // секунды
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных журнала поездок
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Session         string `json:"session"`
	Push            string `json:"push"`
	Locations       string `json:"locations"`        // входящие фиксы устройства
	LocationUpdates string `json:"location_updates"` // исходящие сглаженные позиции
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// BackendConfig представляет конфигурацию API платформы
type BackendConfig struct {
	BaseURL string        `json:"base_url"`
	Token   string        `json:"token"`
	Timeout time.Duration `json:"timeout"`
}

// RoutingConfig представляет конфигурацию сервиса маршрутов (OSRM)
type RoutingConfig struct {
	BaseURL string        `json:"base_url"`
	Profile string        `json:"profile"`
	Timeout time.Duration `json:"timeout"`
}

// TrackingConfig представляет параметры сессии отслеживания заказов
type TrackingConfig struct {
	DriverID           string        `json:"driver_id"`
	PollInterval       time.Duration `json:"poll_interval"`
	ArrivalRadius      float64       `json:"arrival_radius"`  // метры
	DensifySpacing     float64       `json:"densify_spacing"` // метры
	SnapConfirmCount   int           `json:"snap_confirm_count"`
	RenderLag          float64       `json:"render_lag"` // метры
	MaxDailyRejections int           `json:"max_daily_rejections"`
	MotorcycleMinimum  float64       `json:"motorcycle_minimum"`
	CarMinimum         float64       `json:"car_minimum"`
}

// LocationConfig представляет параметры подписки на геолокацию
type LocationConfig struct {
	ActiveInterval   time.Duration `json:"active_interval"`
	IdleInterval     time.Duration `json:"idle_interval"`
	IdleDisplacement float64       `json:"idle_displacement"` // метры
}

// NotifyConfig представляет параметры локальных уведомлений
type NotifyConfig struct {
	DriverSound     string `json:"driver_sound"`
	RestaurantSound string `json:"restaurant_sound"`
	DefaultSound    string `json:"default_sound"`
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// .env необязателен
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "partner_user"),
			Password: getEnv("DB_PASSWORD", "partner_pass"),
			DBName:   getEnv("DB_NAME", "partner_tracker"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnv("KAFKA_ENABLED", "true") == "true",
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "partner-tracker"),
			Topics: Topics{
				Session:         getEnv("KAFKA_TOPIC_SESSION", "partner.session"),
				Push:            getEnv("KAFKA_TOPIC_PUSH", "partner.push"),
				Locations:       getEnv("KAFKA_TOPIC_LOCATIONS", "partner.locations"),
				LocationUpdates: getEnv("KAFKA_TOPIC_LOCATION_UPDATES", "partner.location-updates"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Cache: CacheConfig{
			Enabled:  getEnv("CACHE_ENABLED", "true") == "true",
			RouteTTL: getEnvAsInt("CACHE_ROUTE_TTL", 600), // 10 минут
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000/api/partner"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Routing: RoutingConfig{
			BaseURL: getEnv("OSRM_BASE_URL", "http://localhost:5000"),
			Profile: getEnv("OSRM_PROFILE", "driving"),
			Timeout: getEnvAsDuration("OSRM_TIMEOUT", 10*time.Second),
		},
		Tracking: TrackingConfig{
			DriverID:           getEnv("TRACKING_DRIVER_ID", ""),
			PollInterval:       getEnvAsDuration("TRACKING_POLL_INTERVAL", 2*time.Second),
			ArrivalRadius:      getEnvAsFloat("TRACKING_ARRIVAL_RADIUS", 120),
			DensifySpacing:     getEnvAsFloat("TRACKING_DENSIFY_SPACING", 1),
			SnapConfirmCount:   getEnvAsInt("TRACKING_SNAP_CONFIRM_COUNT", 5),
			RenderLag:          getEnvAsFloat("TRACKING_RENDER_LAG", 3),
			MaxDailyRejections: getEnvAsInt("TRACKING_MAX_DAILY_REJECTIONS", 3),
			MotorcycleMinimum:  getEnvAsFloat("TRACKING_MOTORCYCLE_MINIMUM", 10000),
			CarMinimum:         getEnvAsFloat("TRACKING_CAR_MINIMUM", 20000),
		},
		Location: LocationConfig{
			ActiveInterval:   getEnvAsDuration("LOCATION_ACTIVE_INTERVAL", time.Second),
			IdleInterval:     getEnvAsDuration("LOCATION_IDLE_INTERVAL", 10*time.Second),
			IdleDisplacement: getEnvAsFloat("LOCATION_IDLE_DISPLACEMENT", 10),
		},
		Notify: NotifyConfig{
			DriverSound:     getEnv("NOTIFY_DRIVER_SOUND", "driver_order.mp3"),
			RestaurantSound: getEnv("NOTIFY_RESTAURANT_SOUND", "restaurant_order.mp3"),
			DefaultSound:    getEnv("NOTIFY_DEFAULT_SOUND", "default"),
		},
	}
}

// Validate проверяет, что конфигурацией можно пользоваться
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url is required")
	}
	if c.Routing.BaseURL == "" {
		return fmt.Errorf("routing base url is required")
	}
	if c.Tracking.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Tracking.ArrivalRadius <= 0 {
		return fmt.Errorf("arrival radius must be positive")
	}
	if c.Tracking.DensifySpacing <= 0 {
		return fmt.Errorf("densify spacing must be positive")
	}
	if c.Tracking.SnapConfirmCount < 1 {
		return fmt.Errorf("snap confirm count must be at least 1")
	}
	if c.Location.ActiveInterval <= 0 || c.Location.IdleInterval <= 0 {
		return fmt.Errorf("location intervals must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.Kafka.Enabled {
		for _, out := range []string{c.Kafka.Topics.Session, c.Kafka.Topics.LocationUpdates} {
			if out == c.Kafka.Topics.Push || out == c.Kafka.Topics.Locations {
				return fmt.Errorf("kafka topic %s is both consumed and produced", out)
			}
		}
	}
	return nil
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration понимает как "2s", так и число секунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
