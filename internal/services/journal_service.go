package services

import (
	"context"
	"database/sql"
	"fmt"

	"partner-tracker/internal/database"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"

	"github.com/google/uuid"
)

// JournalService пишет журнал переходов статусов заказов в Postgres
type JournalService struct {
	db  *database.DB
	log *logger.Logger
}

// NewJournalService создает новый сервис журнала
func NewJournalService(db *database.DB, log *logger.Logger) *JournalService {
	return &JournalService{
		db:  db,
		log: log,
	}
}

// Record сохраняет переход статуса заказа
func (s *JournalService) Record(ctx context.Context, rec *models.TransitionRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO order_transitions (id, driver_id, order_id, old_status, new_status, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.DriverID, rec.OrderID,
		rec.OldStatus, rec.NewStatus, rec.Lat, rec.Lon, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   rec.OrderID,
		"old_status": rec.OldStatus,
		"new_status": rec.NewStatus,
	}).Debug("Order transition recorded")

	return nil
}

// OrderHistory возвращает переходы заказа в хронологическом порядке
func (s *JournalService) OrderHistory(ctx context.Context, orderID uuid.UUID) ([]*models.TransitionRecord, error) {
	query := `
		SELECT id, driver_id, order_id, old_status, new_status, lat, lon, created_at
		FROM order_transitions
		WHERE order_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// Recent возвращает последние переходы партнера
func (s *JournalService) Recent(ctx context.Context, driverID string, limit int) ([]*models.TransitionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, driver_id, order_id, old_status, new_status, lat, lon, created_at
		FROM order_transitions
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, driverID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]*models.TransitionRecord, error) {
	var records []*models.TransitionRecord
	for rows.Next() {
		var (
			rec      models.TransitionRecord
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.DriverID, &rec.OrderID, &rec.OldStatus,
			&rec.NewStatus, &lat, &lon, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		if lat.Valid && lon.Valid {
			rec.Lat, rec.Lon = &lat.Float64, &lon.Float64
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}
	return records, nil
}
