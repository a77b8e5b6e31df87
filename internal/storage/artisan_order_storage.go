package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const artisanOrderColumns = `id, artisan_id, supplier_id, delivery_man_id, status, material_details, delivery_address, total_amount, created_at, updated_at`

// PostgresArtisanOrderStorage хранит заказы материалов.
type PostgresArtisanOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresArtisanOrderStorage создаёт новый экземпляр PostgresArtisanOrderStorage.
func NewPostgresArtisanOrderStorage(pool *pgxpool.Pool) *PostgresArtisanOrderStorage {
	return &PostgresArtisanOrderStorage{pool: pool}
}

// CreateTx создаёт заказ в рамках транзакции.
func (s *PostgresArtisanOrderStorage) CreateTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
	query := `
		INSERT INTO artisan_orders (id, artisan_id, supplier_id, delivery_man_id, status, material_details, delivery_address, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.ArtisanID,
		order.SupplierID,
		order.DeliveryManID,
		order.Status,
		order.MaterialDetails,
		order.DeliveryAddress,
		nullableDecimal(order.TotalAmount),
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	return classifyError(err, "create artisan order", nil, nil)
}

// GetByID возвращает заказ.
func (s *PostgresArtisanOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error) {
	return s.get(ctx, s.pool, `SELECT `+artisanOrderColumns+` FROM artisan_orders WHERE id = $1`, id)
}

// GetForUpdateTx читает заказ и блокирует строку до конца транзакции.
func (s *PostgresArtisanOrderStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ArtisanOrder, error) {
	return s.get(ctx, tx, `SELECT `+artisanOrderColumns+` FROM artisan_orders WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresArtisanOrderStorage) get(ctx context.Context, q querier, query string, id uuid.UUID) (*models.ArtisanOrder, error) {
	order, err := scanArtisanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, "get artisan order", ErrArtisanOrderNotFound, nil)
	}
	return order, nil
}

// List возвращает страницу заказов по фильтру (новые первыми) и общее количество.
func (s *PostgresArtisanOrderStorage) List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error) {
	page = page.Normalize()
	where := artisanOrderWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("artisan_orders").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError(err, "count artisan orders", nil, nil)
	}

	query, args, err := psql.
		Select(artisanOrderColumns).
		From("artisan_orders").
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
		return nil, 0, classifyError(err, "query artisan orders", nil, nil)
	}
	defer rows.Close()

	var orders []*models.ArtisanOrder
	for rows.Next() {
		o, err := scanArtisanOrder(rows)
		if err != nil {
			return nil, 0, classifyError(err, "scan artisan order", nil, nil)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterate artisan orders", nil, nil)
	}

	return orders, total, nil
}

func artisanOrderWhere(filter models.OrderFilter) sq.And {
	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.ParticipantID != uuid.Nil {
		switch filter.Role {
		case models.RoleArtisan:
			where = append(where, sq.Eq{"artisan_id": filter.ParticipantID})
		case models.RoleSupplier:
			where = append(where, sq.Eq{"supplier_id": filter.ParticipantID})
		case models.RoleDeliveryMan:
			where = append(where, sq.Eq{"delivery_man_id": filter.ParticipantID})
		default:
			where = append(where, sq.Or{
				sq.Eq{"artisan_id": filter.ParticipantID},
				sq.Eq{"supplier_id": filter.ParticipantID},
				sq.Eq{"delivery_man_id": filter.ParticipantID},
			})
		}
	}
	return where
}

// UpdateFieldsTx сохраняет содержимое заказа в рамках транзакции. Статус не меняется.
func (s *PostgresArtisanOrderStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
	query := `
		UPDATE artisan_orders
		SET material_details = $1, delivery_address = $2, total_amount = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.MaterialDetails,
		order.DeliveryAddress,
		nullableDecimal(order.TotalAmount),
		order.ID,
	).Scan(&order.UpdatedAt)
	return classifyError(err, "update artisan order", ErrArtisanOrderNotFound, nil)
}

// UpdateStatusTx меняет статус заказа в рамках транзакции.
func (s *PostgresArtisanOrderStorage) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
	result, err := tx.Exec(ctx, `UPDATE artisan_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return classifyError(err, "update artisan order status", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrArtisanOrderNotFound
	}
	return nil
}

// Delete удаляет заказ вместе с журналом статусов.
func (s *PostgresArtisanOrderStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM artisan_orders WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "delete artisan order", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrArtisanOrderNotFound
	}
	return nil
}

func scanArtisanOrder(row pgx.Row) (*models.ArtisanOrder, error) {
	var (
		o     models.ArtisanOrder
		total decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID,
		&o.ArtisanID,
		&o.SupplierID,
		&o.DeliveryManID,
		&o.Status,
		&o.MaterialDetails,
		&o.DeliveryAddress,
		&total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if total.Valid {
		o.TotalAmount = &total.Decimal
	}
	return &o, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
