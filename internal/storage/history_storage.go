package storage

import (
	"context"
	"fmt"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHistoryStorage - журнал переходов статусов. Записи только добавляются.
type PostgresHistoryStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresHistoryStorage создаёт новый экземпляр PostgresHistoryStorage.
func NewPostgresHistoryStorage(pool *pgxpool.Pool) *PostgresHistoryStorage {
	return &PostgresHistoryStorage{pool: pool}
}

// orderRefColumn возвращает колонку ссылки на заказ для вида заказа.
func orderRefColumn(t models.OrderType) (string, error) {
	switch t {
	case models.OrderTypeClient:
		return "client_order_id", nil
	case models.OrderTypeArtisan:
		return "artisan_order_id", nil
	}
	return "", fmt.Errorf("unknown order type %q", t)
}

// CreateTx добавляет запись в журнал в той же транзакции, что и смена статуса.
func (s *PostgresHistoryStorage) CreateTx(ctx context.Context, tx pgx.Tx, h *models.StatusHistory) error {
	column, err := orderRefColumn(h.OrderType)
	if err != nil {
		return err
	}

	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	query := `
		INSERT INTO order_status_history (id, ` + column + `, status, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, query, h.ID, h.OrderID, h.Status, h.Comment).Scan(&h.CreatedAt)
	return classifyError(err, "create status history", nil, nil)
}

// ListByOrder возвращает журнал заказа в хронологическом порядке.
func (s *PostgresHistoryStorage) ListByOrder(ctx context.Context, orderType models.OrderType, orderID uuid.UUID) ([]*models.StatusHistory, error) {
	column, err := orderRefColumn(orderType)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, status, comment, created_at
		FROM order_status_history
		WHERE ` + column + ` = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, classifyError(err, "query status history", nil, nil)
	}
	defer rows.Close()

	var history []*models.StatusHistory
	for rows.Next() {
		h := &models.StatusHistory{OrderID: orderID, OrderType: orderType}
		if err := rows.Scan(&h.ID, &h.Status, &h.Comment, &h.CreatedAt); err != nil {
			return nil, classifyError(err, "scan status history", nil, nil)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate status history", nil, nil)
	}

	return history, nil
}
