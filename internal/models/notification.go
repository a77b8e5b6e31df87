package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationStatus - состояние прочтения уведомления.
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "UNREAD"
	NotificationRead   NotificationStatus = "READ"
)

// Notification - сохранённое уведомление получателя.
type Notification struct {
	ID          uuid.UUID          `db:"id"`
	UserID      uuid.UUID          `db:"user_id"`
	Event       string             `db:"event"`
	Content     json.RawMessage    `db:"content"`
	Status      NotificationStatus `db:"status"`
	DeliveredAt *time.Time         `db:"delivered_at"`
	CreatedAt   time.Time          `db:"created_at"`
}

// NotificationResponse DTO уведомления.
type NotificationResponse struct {
	ID        uuid.UUID          `json:"id"`
	Event     string             `json:"event"`
	Content   json.RawMessage    `json:"content"`
	Status    NotificationStatus `json:"status"`
	CreatedAt string             `json:"created_at"`
}

// ToResponse преобразует уведомление в DTO.
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Event:     n.Event,
		Content:   n.Content,
		Status:    n.Status,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
