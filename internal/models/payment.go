package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod - способ оплаты.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Valid сообщает, входит ли способ оплаты в закрытый набор.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Payment - запись в журнале оплат клиентского заказа. Только добавляется.
type Payment struct {
	ID            uuid.UUID       `db:"id"`
	OrderID       uuid.UUID       `db:"order_id"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod PaymentMethod   `db:"payment_method"`
	ReceiptNumber string          `db:"receipt_number"`
	Notes         string          `db:"notes"`
	PaymentDate   time.Time       `db:"payment_date"`
	CreatedAt     time.Time       `db:"created_at"`
}

// PaymentResult - итог записи оплаты.
type PaymentResult struct {
	Payment          *Payment
	PaymentStatus    PaymentStatus
	TotalPaid        decimal.Decimal
	RemainingBalance decimal.Decimal
}

// PaymentResponse DTO оплаты.
type PaymentResponse struct {
	ID            uuid.UUID     `json:"id"`
	OrderID       uuid.UUID     `json:"order_id"`
	Amount        string        `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ReceiptNumber string        `json:"receipt_number"`
	Notes         string        `json:"notes,omitempty"`
	PaymentDate   string        `json:"payment_date"`
}

// ToResponse преобразует оплату в DTO.
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount.StringFixed(2),
		PaymentMethod: p.PaymentMethod,
		ReceiptNumber: p.ReceiptNumber,
		Notes:         p.Notes,
		PaymentDate:   p.PaymentDate.Format(time.RFC3339),
	}
}

// PaymentResultResponse DTO результата записи оплаты.
// Остаток может быть отрицательным при переплате.
type PaymentResultResponse struct {
	Payment          PaymentResponse `json:"payment"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	TotalPaid        string          `json:"total_paid"`
	RemainingBalance string          `json:"remaining_balance"`
	Overpaid         bool            `json:"overpaid"`
}

// ToResponse преобразует результат в DTO.
func (r *PaymentResult) ToResponse() PaymentResultResponse {
	return PaymentResultResponse{
		Payment:          r.Payment.ToResponse(),
		PaymentStatus:    r.PaymentStatus,
		TotalPaid:        r.TotalPaid.StringFixed(2),
		RemainingBalance: r.RemainingBalance.StringFixed(2),
		Overpaid:         r.RemainingBalance.IsNegative(),
	}
}
