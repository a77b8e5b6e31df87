package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store - долговременное хранилище уведомлений.
type Store interface {
	CreateBatch(ctx context.Context, list []*models.Notification) error
	MarkDelivered(ctx context.Context, ids []uuid.UUID) error
	ListUndelivered(ctx context.Context, userIDs []uuid.UUID, createdBefore time.Time, limit int) ([]*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page models.Page) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Directory разрешает получателей ролевых и общих рассылок.
type Directory interface {
	ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
	ListAllIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Pusher - транспорт реального времени. Доставка не гарантируется,
// методы сообщают, кому сообщение действительно ушло.
type Pusher interface {
	PushToUser(userID uuid.UUID, msg []byte) bool
	PushToRole(role models.Role, msg []byte) []uuid.UUID
	Broadcast(msg []byte) []uuid.UUID
	OnlineUsers() []uuid.UUID
}

// Dispatcher сначала сохраняет уведомление, затем пытается доставить его в реальном времени.
type Dispatcher struct {
	store     Store
	directory Directory
	pusher    Pusher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatcher создаёт диспетчер событий. pusher может быть nil: тогда уведомления только сохраняются.
func NewDispatcher(store Store, directory Directory, pusher Pusher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		directory: directory,
		pusher:    pusher,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}
}

// PublishToUser публикует событие одному пользователю.
func (d *Dispatcher) PublishToUser(ctx context.Context, userID uuid.UUID, event Event, payload any) error {
	return d.PublishToUsers(ctx, []uuid.UUID{userID}, event, payload)
}

// PublishToUsers публикует событие каждому пользователю в его канал.
func (d *Dispatcher) PublishToUsers(ctx context.Context, userIDs []uuid.UUID, event Event, payload any) error {
	recipients := uniqueIDs(userIDs)
	if len(recipients) == 0 {
		return nil
	}

	list, content, err := d.record(ctx, recipients, event, payload)
	if err != nil {
		return err
	}

	if d.pusher == nil {
		return nil
	}

	var delivered []uuid.UUID
	for _, n := range list {
		if d.pushNotification(n, content) {
			delivered = append(delivered, n.ID)
		}
	}
	_ = d.markDelivered(ctx, delivered)

	return nil
}

// PublishToRole публикует событие всем пользователям роли через канал роли.
func (d *Dispatcher) PublishToRole(ctx context.Context, role models.Role, event Event, payload any) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	recipients, err := d.directory.ListIDsByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("resolve role recipients: %w", err)
	}

	return d.fanOut(ctx, recipients, RoleChannel(role), event, payload, func(msg []byte) []uuid.UUID {
		return d.pusher.PushToRole(role, msg)
	})
}

// Broadcast публикует событие всем пользователям.
func (d *Dispatcher) Broadcast(ctx context.Context, event Event, payload any) error {
	recipients, err := d.directory.ListAllIDs(ctx)
	if err != nil {
		return fmt.Errorf("resolve broadcast recipients: %w", err)
	}

	return d.fanOut(ctx, recipients, BroadcastChannel, event, payload, func(msg []byte) []uuid.UUID {
		return d.pusher.Broadcast(msg)
	})
}

// RedeliverPending повторно отправляет недоставленные уведомления подключённым пользователям.
// Уведомления моложе minAge пропускаются: их ещё доставляет публикация, которая их создала.
func (d *Dispatcher) RedeliverPending(ctx context.Context, minAge time.Duration, limit int) (int, error) {
	if d.pusher == nil {
		return 0, nil
	}

	online := d.pusher.OnlineUsers()
	if len(online) == 0 {
		return 0, nil
	}

	pending, err := d.store.ListUndelivered(ctx, online, d.now().Add(-minAge), limit)
	if err != nil {
		return 0, fmt.Errorf("list undelivered notifications: %w", err)
	}

	var delivered []uuid.UUID
	for _, n := range pending {
		if d.pushNotification(n, n.Content) {
			delivered = append(delivered, n.ID)
		}
	}
	if err := d.markDelivered(ctx, delivered); err != nil {
		return len(delivered), err
	}

	return len(delivered), nil
}

// ListNotifications возвращает уведомления пользователя.
func (d *Dispatcher) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page models.Page) ([]*models.Notification, int, error) {
	return d.store.ListByUser(ctx, userID, unreadOnly, page)
}

// MarkRead отмечает уведомление пользователя прочитанным.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return d.store.MarkRead(ctx, userID, id)
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return d.store.MarkAllRead(ctx, userID)
}

func (d *Dispatcher) fanOut(ctx context.Context, recipients []uuid.UUID, channel string, event Event, payload any, push func([]byte) []uuid.UUID) error {
	recipients = uniqueIDs(recipients)
	if len(recipients) == 0 {
		return nil
	}

	list, content, err := d.record(ctx, recipients, event, payload)
	if err != nil {
		return err
	}

	if d.pusher == nil {
		return nil
	}

	msg, err := json.Marshal(Envelope{Event: event, Channel: channel, Payload: content, Timestamp: d.now()})
	if err != nil {
		d.logger.Warn("failed to encode envelope", zap.String("event", string(event)), zap.Error(err))
		return nil
	}

	reached := make(map[uuid.UUID]struct{})
	for _, id := range push(msg) {
		reached[id] = struct{}{}
	}

	var delivered []uuid.UUID
	for _, n := range list {
		if _, ok := reached[n.UserID]; ok {
			delivered = append(delivered, n.ID)
		}
	}
	_ = d.markDelivered(ctx, delivered)

	d.logger.Debug("event fanned out",
		zap.String("event", string(event)),
		zap.String("channel", channel),
		zap.Int("recipients", len(list)),
		zap.Int("delivered", len(delivered)),
	)

	return nil
}

// record сохраняет по уведомлению на каждого получателя до любой попытки доставки.
func (d *Dispatcher) record(ctx context.Context, recipients []uuid.UUID, event Event, payload any) ([]*models.Notification, json.RawMessage, error) {
	if !event.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payload for %s: %w", event, err)
	}

	list := make([]*models.Notification, 0, len(recipients))
	for _, id := range recipients {
		list = append(list, &models.Notification{
			ID:      uuid.New(),
			UserID:  id,
			Event:   string(event),
			Content: content,
			Status:  models.NotificationUnread,
		})
	}

	if err := d.store.CreateBatch(ctx, list); err != nil {
		return nil, nil, fmt.Errorf("record notifications for %s: %w", event, err)
	}

	return list, content, nil
}

func (d *Dispatcher) pushNotification(n *models.Notification, content json.RawMessage) bool {
	id := n.ID
	msg, err := json.Marshal(Envelope{
		NotificationID: &id,
		Event:          Event(n.Event),
		Channel:        UserChannel(n.UserID),
		Payload:        content,
		Timestamp:      d.now(),
	})
	if err != nil {
		d.logger.Warn("failed to encode envelope", zap.String("notification_id", id.String()), zap.Error(err))
		return false
	}

	if !d.pusher.PushToUser(n.UserID, msg) {
		d.logger.Debug("realtime delivery skipped",
			zap.String("user_id", n.UserID.String()),
			zap.String("event", n.Event),
		)
		return false
	}
	return true
}

// markDelivered логирует ошибку и возвращает её. Публикации её игнорируют: повтор досылки
// лишь продублирует сообщение.
func (d *Dispatcher) markDelivered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := d.store.MarkDelivered(ctx, ids); err != nil {
		d.logger.Warn("failed to mark notifications delivered", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("mark notifications delivered: %w", err)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
