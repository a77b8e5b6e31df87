package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordPaymentInput - данные оплаты клиентского заказа.
type RecordPaymentInput struct {
	Amount decimal.Decimal
	Method models.PaymentMethod
	Notes  string
}

// PaymentService ведёт журнал оплат и выводит статус оплаты заказа.
type PaymentService interface {
	RecordPayment(ctx context.Context, actor models.Principal, orderID uuid.UUID, in RecordPaymentInput) (*models.PaymentResult, error)
	ListPayments(ctx context.Context, actor models.Principal, orderID uuid.UUID) ([]*models.Payment, error)
}

// PaymentServiceImpl реализует PaymentService.
type PaymentServiceImpl struct {
	tx           TxManager
	clientOrders ClientOrderStorage
	payments     PaymentStorage
	events       EventPublisher
	logger       *zap.Logger
	newReceipt   func() string
	now          func() time.Time
}

// NewPaymentService создаёт сервис оплат.
func NewPaymentService(tx TxManager, clientOrders ClientOrderStorage, payments PaymentStorage, events EventPublisher, log *zap.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		tx:           tx,
		clientOrders: clientOrders,
		payments:     payments,
		events:       events,
		logger:       logger.OrNop(log),
		newReceipt:   NewReceiptNumber,
		now:          time.Now,
	}
}

// NewReceiptNumber возвращает номер чека на основе случайного UUID.
func NewReceiptNumber() string {
	return "RCPT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RecordPayment записывает оплату и пересчитывает статус оплаты в одной транзакции.
// Строка заказа блокируется, поэтому параллельные оплаты одного заказа выполняются по очереди.
func (s *PaymentServiceImpl) RecordPayment(ctx context.Context, actor models.Principal, orderID uuid.UUID, in RecordPaymentInput) (*models.PaymentResult, error) {
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "must be positive")
	}
	if err := checkMoney("amount", in.Amount); err != nil {
		return nil, err
	}
	if !in.Method.Valid() {
		return nil, invalid("payment_method", "must be CASH, CARD or BANK_TRANSFER")
	}

	var (
		order  *models.ClientOrder
		result *models.PaymentResult
	)
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		locked, err := s.clientOrders.GetForUpdateTx(ctx, tx, orderID)
		if err != nil {
			return storeError("lock client order", err)
		}
		order = locked
		if !models.CanAct(order, actor) {
			return ErrUnauthorized
		}

		payment := &models.Payment{
			ID:            uuid.New(),
			OrderID:       order.ID,
			Amount:        in.Amount,
			PaymentMethod: in.Method,
			ReceiptNumber: s.newReceipt(),
			Notes:         strings.TrimSpace(in.Notes),
			PaymentDate:   s.now(),
		}
		if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
			return storeError("insert payment", err)
		}

		paid, err := s.payments.SumByOrderTx(ctx, tx, order.ID)
		if err != nil {
			return storeError("sum payments", err)
		}

		status := DerivePaymentStatus(order.TotalAmount, paid)
		if err := s.clientOrders.UpdatePaymentStatusTx(ctx, tx, order.ID, status); err != nil {
			return storeError("update payment status", err)
		}
		order.PaymentStatus = status

		result = &models.PaymentResult{
			Payment:          payment,
			PaymentStatus:    status,
			TotalPaid:        paid,
			RemainingBalance: order.TotalAmount.Sub(paid),
		}
		return nil
	})
	if err != nil {
		s.reportFailure(ctx, order, actor, in, err)
		return nil, passThrough("record payment", err)
	}

	if result.RemainingBalance.IsNegative() {
		s.logger.Warn("order overpaid",
			zap.String("order_id", orderID.String()),
			zap.String("overpaid_by", result.RemainingBalance.Neg().StringFixed(2)),
		)
	}

	event := notify.EventPaymentRecorded
	if result.PaymentStatus == models.PaymentStatusCompleted {
		event = notify.EventPaymentCompleted
	}
	publish(ctx, s.events, s.logger, othersThan(order.Participants(), actor.UserID), event, map[string]any{
		"order_id":          order.ID,
		"payment_id":        result.Payment.ID,
		"amount":            result.Payment.Amount.StringFixed(2),
		"payment_method":    result.Payment.PaymentMethod,
		"receipt_number":    result.Payment.ReceiptNumber,
		"payment_status":    result.PaymentStatus,
		"total_paid":        result.TotalPaid.StringFixed(2),
		"remaining_balance": result.RemainingBalance.StringFixed(2),
	})

	return result, nil
}

// reportFailure уведомляет клиента о неудачной оплате уже после отката.
// Ошибки проверки и доступа уведомлений не порождают.
func (s *PaymentServiceImpl) reportFailure(ctx context.Context, order *models.ClientOrder, actor models.Principal, in RecordPaymentInput, err error) {
	if order == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidInput) {
		return
	}

	s.logger.Error("payment rolled back",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
		zap.Error(err),
	)

	publish(ctx, s.events, s.logger, []uuid.UUID{order.ClientID}, notify.EventPaymentFailed, map[string]any{
		"order_id":       order.ID,
		"amount":         in.Amount.StringFixed(2),
		"payment_method": in.Method,
	})
}

// ListPayments возвращает журнал оплат заказа.
func (s *PaymentServiceImpl) ListPayments(ctx context.Context, actor models.Principal, orderID uuid.UUID) ([]*models.Payment, error) {
	order, err := s.clientOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storeError("get client order", err)
	}
	if !models.CanAct(order, actor) {
		return nil, ErrUnauthorized
	}

	list, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storeError("list payments", err)
	}
	return list, nil
}
