package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService - машина состояний заказов обоих видов.
type OrderService interface {
	CreateClientOrder(ctx context.Context, actor models.Principal, in models.CreateClientOrderInput) (*models.ClientOrder, error)
	CreateArtisanOrder(ctx context.Context, actor models.Principal, in models.CreateArtisanOrderInput) (*models.ArtisanOrder, error)
	GetClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ClientOrder, error)
	GetArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ArtisanOrder, error)
	ListClientOrders(ctx context.Context, actor models.Principal, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error)
	ListArtisanOrders(ctx context.Context, actor models.Principal, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error)
	UpdateClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateClientOrderInput) (*models.ClientOrder, error)
	UpdateArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateArtisanOrderInput) (*models.ArtisanOrder, error)
	ChangeStatus(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID, status models.OrderStatus, comment *string) (models.Order, error)
	DeleteOrder(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID) error
	GetStatusTimeline(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID) ([]models.TimelineEntry, error)
}

// OrderServiceImpl реализует OrderService.
type OrderServiceImpl struct {
	tx            TxManager
	users         UserStorage
	clientOrders  ClientOrderStorage
	artisanOrders ArtisanOrderStorage
	history       HistoryStorage
	payments      PaymentStorage
	events        EventPublisher
	logger        *zap.Logger
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(
	tx TxManager,
	users UserStorage,
	clientOrders ClientOrderStorage,
	artisanOrders ArtisanOrderStorage,
	history HistoryStorage,
	payments PaymentStorage,
	events EventPublisher,
	log *zap.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		tx:            tx,
		users:         users,
		clientOrders:  clientOrders,
		artisanOrders: artisanOrders,
		history:       history,
		payments:      payments,
		events:        events,
		logger:        logger.OrNop(log),
	}
}

// CreateClientOrder создаёт заказ клиента у ремесленника в статусе PENDING.
func (s *OrderServiceImpl) CreateClientOrder(ctx context.Context, actor models.Principal, in models.CreateClientOrderInput) (*models.ClientOrder, error) {
	switch actor.Role {
	case models.RoleClient:
		in.ClientID = actor.UserID
	case models.RoleAdmin:
		if in.ClientID == uuid.Nil {
			return nil, invalid("client_id", "is required")
		}
		if err := s.requireRole(ctx, in.ClientID, models.RoleClient, "client_id"); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnauthorized
	}

	if in.ArtisanID == uuid.Nil {
		return nil, invalid("artisan_id", "is required")
	}
	if err := checkTotalAmount(in.TotalAmount); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.ArtisanID, models.RoleArtisan, "artisan_id"); err != nil {
		return nil, err
	}

	order := &models.ClientOrder{
		ID:            uuid.New(),
		ClientID:      in.ClientID,
		ArtisanID:     in.ArtisanID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   in.TotalAmount,
		Description:   strings.TrimSpace(in.Description),
	}

	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.clientOrders.CreateTx(ctx, tx, order); err != nil {
			return storeError("create client order", err)
		}
		return s.appendHistory(ctx, tx, order, nil)
	})
	if err != nil {
		return nil, passThrough("create client order", err)
	}

	s.emit(ctx, actor, order, notify.EventOrderCreated, orderPayload(order, nil))
	return order, nil
}

// CreateArtisanOrder создаёт заказ материалов в статусе PENDING.
func (s *OrderServiceImpl) CreateArtisanOrder(ctx context.Context, actor models.Principal, in models.CreateArtisanOrderInput) (*models.ArtisanOrder, error) {
	switch actor.Role {
	case models.RoleArtisan:
		in.ArtisanID = actor.UserID
	case models.RoleAdmin:
		if in.ArtisanID == uuid.Nil {
			return nil, invalid("artisan_id", "is required")
		}
		if err := s.requireRole(ctx, in.ArtisanID, models.RoleArtisan, "artisan_id"); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnauthorized
	}

	if in.SupplierID == uuid.Nil {
		return nil, invalid("supplier_id", "is required")
	}
	if in.TotalAmount != nil {
		if err := checkTotalAmount(*in.TotalAmount); err != nil {
			return nil, err
		}
	}
	details, err := normalizeDetails(in.MaterialDetails)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.SupplierID, models.RoleSupplier, "supplier_id"); err != nil {
		return nil, err
	}
	if in.DeliveryManID != nil {
		if err := s.requireRole(ctx, *in.DeliveryManID, models.RoleDeliveryMan, "delivery_man_id"); err != nil {
			return nil, err
		}
	}

	order := &models.ArtisanOrder{
		ID:              uuid.New(),
		ArtisanID:       in.ArtisanID,
		SupplierID:      in.SupplierID,
		DeliveryManID:   in.DeliveryManID,
		Status:          models.OrderStatusPending,
		MaterialDetails: details,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		TotalAmount:     in.TotalAmount,
	}

	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.artisanOrders.CreateTx(ctx, tx, order); err != nil {
			return storeError("create artisan order", err)
		}
		return s.appendHistory(ctx, tx, order, nil)
	})
	if err != nil {
		return nil, passThrough("create artisan order", err)
	}

	s.emit(ctx, actor, order, notify.EventOrderCreated, orderPayload(order, nil))
	return order, nil
}

// GetClientOrder возвращает заказ участнику или администратору.
func (s *OrderServiceImpl) GetClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ClientOrder, error) {
	order, err := s.clientOrders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get client order", err)
	}
	if !models.CanAct(order, actor) {
		return nil, ErrUnauthorized
	}
	return order, nil
}

// GetArtisanOrder возвращает заказ участнику или администратору.
func (s *OrderServiceImpl) GetArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ArtisanOrder, error) {
	order, err := s.artisanOrders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get artisan order", err)
	}
	if !models.CanAct(order, actor) {
		return nil, ErrUnauthorized
	}
	return order, nil
}

// ListClientOrders возвращает страницу заказов. Не администратор видит только свои заказы.
func (s *OrderServiceImpl) ListClientOrders(ctx context.Context, actor models.Principal, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error) {
	filter, err := scopeFilter(actor, filter, models.OrderTypeClient)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.clientOrders.List(ctx, filter, page)
	if err != nil {
		return nil, 0, storeError("list client orders", err)
	}
	return list, total, nil
}

// ListArtisanOrders возвращает страницу заказов материалов.
func (s *OrderServiceImpl) ListArtisanOrders(ctx context.Context, actor models.Principal, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error) {
	filter, err := scopeFilter(actor, filter, models.OrderTypeArtisan)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.artisanOrders.List(ctx, filter, page)
	if err != nil {
		return nil, 0, storeError("list artisan orders", err)
	}
	return list, total, nil
}

// UpdateClientOrder меняет содержимое заказа. При смене суммы статус оплаты выводится заново
// в той же транзакции, чтобы он всегда соответствовал журналу оплат.
func (s *OrderServiceImpl) UpdateClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateClientOrderInput) (*models.ClientOrder, error) {
	if in.TotalAmount != nil {
		if err := checkTotalAmount(*in.TotalAmount); err != nil {
			return nil, err
		}
	}

	var order *models.ClientOrder
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.clientOrders.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeError("lock client order", err)
		}
		if !models.CanAct(order, actor) {
			return ErrUnauthorized
		}

		if in.Description != nil {
			order.Description = strings.TrimSpace(*in.Description)
		}
		amountChanged := in.TotalAmount != nil && !in.TotalAmount.Equal(order.TotalAmount)
		if in.TotalAmount != nil {
			order.TotalAmount = *in.TotalAmount
		}

		if err := s.clientOrders.UpdateFieldsTx(ctx, tx, order); err != nil {
			return storeError("update client order", err)
		}

		if amountChanged {
			paid, err := s.payments.SumByOrderTx(ctx, tx, order.ID)
			if err != nil {
				return storeError("sum payments", err)
			}
			status := order.PaymentStatus
			if paid.IsPositive() {
				status = DerivePaymentStatus(order.TotalAmount, paid)
			}
			if status != order.PaymentStatus {
				if err := s.clientOrders.UpdatePaymentStatusTx(ctx, tx, order.ID, status); err != nil {
					return storeError("update payment status", err)
				}
				order.PaymentStatus = status
			}
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("update client order", err)
	}

	s.emit(ctx, actor, order, notify.EventOrderUpdated, orderPayload(order, nil))
	return order, nil
}

// UpdateArtisanOrder меняет содержимое заказа материалов под блокировкой строки заказа.
func (s *OrderServiceImpl) UpdateArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateArtisanOrderInput) (*models.ArtisanOrder, error) {
	if in.TotalAmount != nil {
		if err := checkTotalAmount(*in.TotalAmount); err != nil {
			return nil, err
		}
	}

	var details json.RawMessage
	if in.MaterialDetails != nil {
		var err error
		if details, err = normalizeDetails(in.MaterialDetails); err != nil {
			return nil, err
		}
	}

	var order *models.ArtisanOrder
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.artisanOrders.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeError("lock artisan order", err)
		}
		if !models.CanAct(order, actor) {
			return ErrUnauthorized
		}

		if details != nil {
			order.MaterialDetails = details
		}
		if in.DeliveryAddress != nil {
			order.DeliveryAddress = strings.TrimSpace(*in.DeliveryAddress)
		}
		if in.TotalAmount != nil {
			order.TotalAmount = in.TotalAmount
		}

		if err := s.artisanOrders.UpdateFieldsTx(ctx, tx, order); err != nil {
			return storeError("update artisan order", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("update artisan order", err)
	}

	s.emit(ctx, actor, order, notify.EventOrderUpdated, orderPayload(order, nil))
	return order, nil
}

// ChangeStatus переводит заказ в новый статус. Чтение, проверка и запись статуса с журналом
// выполняются в одной транзакции под блокировкой строки заказа.
func (s *OrderServiceImpl) ChangeStatus(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID, status models.OrderStatus, comment *string) (models.Order, error) {
	lc, ok := models.LifecycleOf(orderType)
	if !ok {
		return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
	}
	if !lc.Allows(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	comment = trimComment(comment)

	var (
		order    models.Order
		previous models.OrderStatus
	)
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.lockOrder(ctx, tx, orderType, id)
		if err != nil {
			return err
		}
		if !models.CanAct(order, actor) {
			return ErrUnauthorized
		}

		previous = order.CurrentStatus()
		if lc.IsTerminal(previous) {
			return fmt.Errorf("%w: status is %s", ErrOrderAlreadyFinalized, previous)
		}

		if err := s.updateStatusTx(ctx, tx, order, status); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, order, comment)
	})
	if err != nil {
		return nil, passThrough("change order status", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("order_type", string(orderType)),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("actor_id", actor.UserID.String()),
	)

	event := notify.EventOrderStatusChanged
	if status == lc.Abort {
		event = notify.EventOrderCancelled
	}
	payload := orderPayload(order, comment)
	payload["previous_status"] = previous
	s.emit(ctx, actor, order, event, payload)

	return order, nil
}

// DeleteOrder удаляет заказ. Удалять может только администратор.
// Журнал и оплаты удаляются вместе с заказом, оценки остаются.
func (s *OrderServiceImpl) DeleteOrder(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	var err error
	switch orderType {
	case models.OrderTypeClient:
		err = s.clientOrders.Delete(ctx, id)
	case models.OrderTypeArtisan:
		err = s.artisanOrders.Delete(ctx, id)
	default:
		return invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
	}
	if err != nil {
		return storeError("delete order", err)
	}

	s.logger.Info("order deleted",
		zap.String("order_id", id.String()),
		zap.String("order_type", string(orderType)),
		zap.String("actor_id", actor.UserID.String()),
	)
	return nil
}

// GetStatusTimeline возвращает основной путь заказа с отметками из журнала.
func (s *OrderServiceImpl) GetStatusTimeline(ctx context.Context, actor models.Principal, orderType models.OrderType, id uuid.UUID) ([]models.TimelineEntry, error) {
	lc, ok := models.LifecycleOf(orderType)
	if !ok {
		return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
	}

	var (
		order models.Order
		err   error
	)
	if orderType == models.OrderTypeClient {
		order, err = s.GetClientOrder(ctx, actor, id)
	} else {
		order, err = s.GetArtisanOrder(ctx, actor, id)
	}
	if err != nil {
		return nil, err
	}

	history, err := s.history.ListByOrder(ctx, orderType, order.OrderID())
	if err != nil {
		return nil, storeError("list status history", err)
	}

	return models.BuildTimeline(lc, history), nil
}

func (s *OrderServiceImpl) lockOrder(ctx context.Context, tx pgx.Tx, orderType models.OrderType, id uuid.UUID) (models.Order, error) {
	switch orderType {
	case models.OrderTypeClient:
		o, err := s.clientOrders.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return nil, storeError("lock client order", err)
		}
		return o, nil
	case models.OrderTypeArtisan:
		o, err := s.artisanOrders.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return nil, storeError("lock artisan order", err)
		}
		return o, nil
	}
	return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
}

func (s *OrderServiceImpl) updateStatusTx(ctx context.Context, tx pgx.Tx, order models.Order, status models.OrderStatus) error {
	switch o := order.(type) {
	case *models.ClientOrder:
		if err := s.clientOrders.UpdateStatusTx(ctx, tx, o.ID, status); err != nil {
			return storeError("update client order status", err)
		}
		o.Status = status
	case *models.ArtisanOrder:
		if err := s.artisanOrders.UpdateStatusTx(ctx, tx, o.ID, status); err != nil {
			return storeError("update artisan order status", err)
		}
		o.Status = status
	default:
		return fmt.Errorf("unsupported order %T", order)
	}
	return nil
}

func (s *OrderServiceImpl) appendHistory(ctx context.Context, tx pgx.Tx, order models.Order, comment *string) error {
	h := &models.StatusHistory{
		OrderID:   order.OrderID(),
		OrderType: order.Type(),
		Status:    order.CurrentStatus(),
		Comment:   comment,
	}
	if err := s.history.CreateTx(ctx, tx, h); err != nil {
		return storeError("append status history", err)
	}
	return nil
}

func (s *OrderServiceImpl) requireRole(ctx context.Context, id uuid.UUID, role models.Role, field string) error {
	return requireUserRole(ctx, s.users, id, role, field)
}

// requireUserRole проверяет, что пользователь существует и имеет нужную роль.
func requireUserRole(ctx context.Context, users UserStorage, id uuid.UUID, role models.Role, field string) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return storeError("get "+field, err)
	}
	if user.Role != role {
		return invalid(field, "must reference a user with role "+string(role))
	}
	return nil
}

// emit уведомляет остальных участников заказа после фиксации транзакции.
func (s *OrderServiceImpl) emit(ctx context.Context, actor models.Principal, order models.Order, event notify.Event, payload map[string]any) {
	publish(ctx, s.events, s.logger, othersThan(order.Participants(), actor.UserID), event, payload)
}

// scopeFilter ограничивает выборку заказами субъекта, если он не администратор.
func scopeFilter(actor models.Principal, filter models.OrderFilter, orderType models.OrderType) (models.OrderFilter, error) {
	lc, _ := models.LifecycleOf(orderType)
	if filter.Status != "" && !lc.Allows(filter.Status) {
		return filter, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return filter, invalid("payment_status", "must be PENDING, PARTIAL or COMPLETED")
	}
	if !actor.IsAdmin() {
		filter.ParticipantID = actor.UserID
		filter.Role = ""
	}
	return filter, nil
}

func normalizeDetails(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(raw) {
		return nil, invalid("material_details", "must be valid JSON")
	}
	return raw, nil
}

func trimComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return nil
	}
	return &c
}

func orderPayload(order models.Order, comment *string) map[string]any {
	payload := map[string]any{
		"order_id":   order.OrderID(),
		"order_type": order.Type(),
		"status":     order.CurrentStatus(),
	}
	if comment != nil {
		payload["comment"] = *comment
	}
	if o, ok := order.(*models.ClientOrder); ok {
		payload["payment_status"] = o.PaymentStatus
		payload["total_amount"] = o.TotalAmount.StringFixed(2)
	}
	return payload
}

// publish отправляет событие и только логирует ошибку: изменение уже зафиксировано.
func publish(ctx context.Context, events EventPublisher, log *zap.Logger, recipients []uuid.UUID, event notify.Event, payload any) {
	if events == nil || len(recipients) == 0 {
		return
	}
	if err := events.PublishToUsers(ctx, recipients, event, payload); err != nil {
		log.Error("failed to publish event",
			zap.String("event", string(event)),
			zap.Int("recipients", len(recipients)),
			zap.Error(err),
		)
	}
}

func othersThan(ids []uuid.UUID, actor uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != actor {
			out = append(out, id)
		}
	}
	return out
}

// maxAmount - первое значение, не помещающееся в NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

// checkMoney проверяет, что сумма хранится в NUMERIC(14,2) без округления.
func checkMoney(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return invalid(field, "must have at most two decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return invalid(field, "must be less than 1000000000000")
	}
	return nil
}

func checkTotalAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return invalid("total_amount", "must not be negative")
	}
	return checkMoney("total_amount", amount)
}

// DerivePaymentStatus выводит статус оплаты из суммы заказа и суммы оплат.
func DerivePaymentStatus(total, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.PaymentStatusCompleted
	case paid.IsPositive():
		return models.PaymentStatusPartial
	default:
		return models.PaymentStatusPending
	}
}
