package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientOrderColumns = `id, client_id, artisan_id, status, payment_status, total_amount, description, created_at, updated_at`

// PostgresClientOrderStorage хранит клиентские заказы.
type PostgresClientOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresClientOrderStorage создаёт новый экземпляр PostgresClientOrderStorage.
func NewPostgresClientOrderStorage(pool *pgxpool.Pool) *PostgresClientOrderStorage {
	return &PostgresClientOrderStorage{pool: pool}
}

// CreateTx создаёт заказ в рамках транзакции.
func (s *PostgresClientOrderStorage) CreateTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
	query := `
		INSERT INTO client_orders (id, client_id, artisan_id, status, payment_status, total_amount, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.ClientID,
		order.ArtisanID,
		order.Status,
		order.PaymentStatus,
		order.TotalAmount,
		order.Description,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	return classifyError(err, "create client order", nil, nil)
}

// GetByID возвращает заказ.
func (s *PostgresClientOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.ClientOrder, error) {
	return s.get(ctx, s.pool, `SELECT `+clientOrderColumns+` FROM client_orders WHERE id = $1`, id)
}

// GetForUpdateTx читает заказ и блокирует строку до конца транзакции.
func (s *PostgresClientOrderStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClientOrder, error) {
	return s.get(ctx, tx, `SELECT `+clientOrderColumns+` FROM client_orders WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresClientOrderStorage) get(ctx context.Context, q querier, query string, id uuid.UUID) (*models.ClientOrder, error) {
	order, err := scanClientOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, "get client order", ErrClientOrderNotFound, nil)
	}
	return order, nil
}

// List возвращает страницу заказов по фильтру (новые первыми) и общее количество.
func (s *PostgresClientOrderStorage) List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error) {
	page = page.Normalize()
	where := clientOrderWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("client_orders").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError(err, "count client orders", nil, nil)
	}

	query, args, err := psql.
		Select(clientOrderColumns).
		From("client_orders").
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classifyError(err, "query client orders", nil, nil)
	}
	defer rows.Close()

	var orders []*models.ClientOrder
	for rows.Next() {
		o, err := scanClientOrder(rows)
		if err != nil {
			return nil, 0, classifyError(err, "scan client order", nil, nil)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterate client orders", nil, nil)
	}

	return orders, total, nil
}

func clientOrderWhere(filter models.OrderFilter) sq.And {
	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.PaymentStatus != "" {
		where = append(where, sq.Eq{"payment_status": filter.PaymentStatus})
	}
	if filter.ParticipantID != uuid.Nil {
		switch filter.Role {
		case models.RoleClient:
			where = append(where, sq.Eq{"client_id": filter.ParticipantID})
		case models.RoleArtisan:
			where = append(where, sq.Eq{"artisan_id": filter.ParticipantID})
		default:
			where = append(where, sq.Or{
				sq.Eq{"client_id": filter.ParticipantID},
				sq.Eq{"artisan_id": filter.ParticipantID},
			})
		}
	}
	return where
}

// UpdateFieldsTx сохраняет содержимое заказа. Статус заказа не меняется.
func (s *PostgresClientOrderStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
	query := `
		UPDATE client_orders
		SET total_amount = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query, order.TotalAmount, order.Description, order.ID).Scan(&order.UpdatedAt)
	return classifyError(err, "update client order", ErrClientOrderNotFound, nil)
}

// UpdateStatusTx меняет статус заказа в рамках транзакции.
func (s *PostgresClientOrderStorage) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
	result, err := tx.Exec(ctx, `UPDATE client_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return classifyError(err, "update client order status", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrClientOrderNotFound
	}
	return nil
}

// UpdatePaymentStatusTx сохраняет производный статус оплаты.
func (s *PostgresClientOrderStorage) UpdatePaymentStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.PaymentStatus) error {
	result, err := tx.Exec(ctx, `UPDATE client_orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return classifyError(err, "update payment status", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrClientOrderNotFound
	}
	return nil
}

// Delete удаляет заказ. Журнал и оплаты удаляются каскадно, оценки остаются.
func (s *PostgresClientOrderStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM client_orders WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "delete client order", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrClientOrderNotFound
	}
	return nil
}

// StatusCounts считает заказы ремесленника по статусам.
func (s *PostgresClientOrderStorage) StatusCounts(ctx context.Context, artisanID uuid.UUID) (map[models.OrderStatus]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM client_orders
		WHERE artisan_id = $1
		GROUP BY status
	`, artisanID)
	if err != nil {
		return nil, classifyError(err, "count client orders by status", nil, nil)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var (
			status models.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, classifyError(err, "scan status count", nil, nil)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate status counts", nil, nil)
	}

	return counts, nil
}

func scanClientOrder(row pgx.Row) (*models.ClientOrder, error) {
	var o models.ClientOrder
	err := row.Scan(
		&o.ID,
		&o.ClientID,
		&o.ArtisanID,
		&o.Status,
		&o.PaymentStatus,
		&o.TotalAmount,
		&o.Description,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
