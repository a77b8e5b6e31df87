package storage

import (
	"context"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresPaymentStorage - журнал оплат клиентских заказов.
type PostgresPaymentStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresPaymentStorage создаёт новый экземпляр PostgresPaymentStorage.
func NewPostgresPaymentStorage(pool *pgxpool.Pool) *PostgresPaymentStorage {
	return &PostgresPaymentStorage{pool: pool}
}

// CreateTx добавляет оплату в рамках транзакции.
func (s *PostgresPaymentStorage) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, amount, payment_method, receipt_number, notes, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING payment_date, created_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		p.ID,
		p.OrderID,
		p.Amount,
		p.PaymentMethod,
		p.ReceiptNumber,
		p.Notes,
	).Scan(&p.PaymentDate, &p.CreatedAt)

	return classifyError(err, "create payment", nil, nil)
}

// SumByOrderTx суммирует все оплаты заказа внутри транзакции, чтобы увидеть только что добавленную.
func (s *PostgresPaymentStorage) SumByOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, orderID).Scan(&sum)
	if err != nil {
		return decimal.Zero, classifyError(err, "sum payments", nil, nil)
	}
	return sum, nil
}

// ListByOrder возвращает оплаты заказа в порядке поступления.
func (s *PostgresPaymentStorage) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	query := `
		SELECT id, order_id, amount, payment_method, receipt_number, notes, payment_date, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY payment_date ASC
	`

	rows, err := s.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, classifyError(err, "query payments", nil, nil)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.ReceiptNumber, &p.Notes, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, classifyError(err, "scan payment", nil, nil)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate payments", nil, nil)
	}

	return payments, nil
}
