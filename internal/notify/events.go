package notify

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
)

// Event - имя доменного события.
type Event string

const (
	EventOrderCreated       Event = "order_created"
	EventOrderStatusChanged Event = "order_status_changed"
	EventOrderUpdated       Event = "order_updated"
	EventOrderCancelled     Event = "order_cancelled"
	EventPaymentRecorded    Event = "payment_recorded"
	EventPaymentCompleted   Event = "payment_completed"
	EventPaymentFailed      Event = "payment_failed"
	EventRatingReceived     Event = "rating_received"
	EventRatingUpdated      Event = "rating_updated"
	EventProjectCreated     Event = "project_created"
)

var knownEvents = map[Event]struct{}{
	EventOrderCreated:       {},
	EventOrderStatusChanged: {},
	EventOrderUpdated:       {},
	EventOrderCancelled:     {},
	EventPaymentRecorded:    {},
	EventPaymentCompleted:   {},
	EventPaymentFailed:      {},
	EventRatingReceived:     {},
	EventRatingUpdated:      {},
	EventProjectCreated:     {},
}

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrInvalidRole  = errors.New("unknown role")
)

// Valid сообщает, входит ли событие в таксономию.
func (e Event) Valid() bool {
	_, ok := knownEvents[e]
	return ok
}

// UserChannel - логический канал пользователя.
func UserChannel(id uuid.UUID) string {
	return "user_" + id.String()
}

// RoleChannel - логический канал роли.
func RoleChannel(role models.Role) string {
	return "role_" + strings.ToLower(string(role))
}

// BroadcastChannel - канал всех подключённых пользователей.
const BroadcastChannel = "broadcast"

// Envelope - сообщение, отправляемое в транспорт реального времени.
type Envelope struct {
	NotificationID *uuid.UUID      `json:"notification_id,omitempty"`
	Event          Event           `json:"event"`
	Channel        string          `json:"channel"`
	Payload        json.RawMessage `json:"payload"`
	Timestamp      time.Time       `json:"timestamp"`
}
