package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"partner-tracker/internal/config"
	"partner-tracker/internal/logger"

	_ "github.com/lib/pq"
)

// schema журнала переходов заказов
const schema = `
CREATE TABLE IF NOT EXISTS order_transitions (
	id          UUID PRIMARY KEY,
	driver_id   TEXT NOT NULL,
	order_id    UUID NOT NULL,
	old_status  TEXT NOT NULL DEFAULT '',
	new_status  TEXT NOT NULL,
	lat         DOUBLE PRECISION,
	lon         DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_transitions_order ON order_transitions (order_id, created_at);
CREATE INDEX IF NOT EXISTS idx_order_transitions_driver ON order_transitions (driver_id, created_at DESC);
`

// DB представляет подключение к базе данных
type DB struct {
	*sql.DB
}

// DSN собирает строку подключения lib/pq
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Connect создает подключение к базе данных
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Журнал пишет одна сессия, большой пул не нужен
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Successfully connected to database")

	return &DB{DB: db}, nil
}

// EnsureSchema создает таблицы журнала, если их еще нет
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close закрывает подключение к базе данных
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health проверяет состояние базы данных
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
