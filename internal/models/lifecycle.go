package models

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle - закрытый набор статусов вида заказа.
type Lifecycle struct {
	// Sequence - основной путь заказа, используется для хронологии.
	Sequence []OrderStatus
	Success  OrderStatus
	Abort    OrderStatus
}

var lifecycles = map[OrderType]Lifecycle{
	OrderTypeClient: {
		Sequence: []OrderStatus{OrderStatusPending, OrderStatusAccepted, OrderStatusCompleted},
		Success:  OrderStatusCompleted,
		Abort:    OrderStatusCancelled,
	},
	OrderTypeArtisan: {
		Sequence: []OrderStatus{OrderStatusPending, OrderStatusShipped, OrderStatusDelivered},
		Success:  OrderStatusDelivered,
		Abort:    OrderStatusCancelled,
	},
}

// LifecycleOf возвращает жизненный цикл для типа заказа.
func LifecycleOf(t OrderType) (Lifecycle, bool) {
	lc, ok := lifecycles[t]
	return lc, ok
}

// Allows сообщает, принадлежит ли статус набору этого вида заказа.
func (lc Lifecycle) Allows(s OrderStatus) bool {
	if s == lc.Abort {
		return true
	}
	for _, st := range lc.Sequence {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal - из терминального статуса переходов нет.
func (lc Lifecycle) IsTerminal(s OrderStatus) bool {
	return s == lc.Success || s == lc.Abort
}

// StatusHistory - запись журнала переходов. Только добавляется.
type StatusHistory struct {
	ID        uuid.UUID   `db:"id"`
	OrderID   uuid.UUID   `db:"order_id"`
	OrderType OrderType   `db:"order_type"`
	Status    OrderStatus `db:"status"`
	Comment   *string     `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
}

// TimelineEntry - шаг хронологии заказа.
type TimelineEntry struct {
	Status    OrderStatus `json:"status"`
	Completed bool        `json:"completed"`
	Timestamp *time.Time  `json:"timestamp"`
	Comment   *string     `json:"comment"`
}

// BuildTimeline сопоставляет основной путь вида заказа с журналом.
// Отмена добавляется в конец, только если встречается в журнале.
func BuildTimeline(lc Lifecycle, history []*StatusHistory) []TimelineEntry {
	latest := make(map[OrderStatus]*StatusHistory, len(history))
	for _, h := range history {
		if prev, ok := latest[h.Status]; !ok || !h.CreatedAt.Before(prev.CreatedAt) {
			latest[h.Status] = h
		}
	}

	statuses := append([]OrderStatus{}, lc.Sequence...)
	if _, ok := latest[lc.Abort]; ok {
		statuses = append(statuses, lc.Abort)
	}

	timeline := make([]TimelineEntry, 0, len(statuses))
	for _, st := range statuses {
		entry := TimelineEntry{Status: st}
		if h, ok := latest[st]; ok {
			ts := h.CreatedAt
			entry.Completed = true
			entry.Timestamp = &ts
			entry.Comment = h.Comment
		}
		timeline = append(timeline, entry)
	}
	return timeline
}
