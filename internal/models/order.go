package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType различает два вида заказов.
type OrderType string

const (
	OrderTypeClient  OrderType = "CLIENT_ORDER"
	OrderTypeArtisan OrderType = "ARTISAN_ORDER"
)

// Valid сообщает, известен ли тип заказа.
func (t OrderType) Valid() bool {
	return t == OrderTypeClient || t == OrderTypeArtisan
}

// OrderStatus описывает статус заказа. Допустимые значения зависят от типа заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus - производный статус оплаты клиентского заказа.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

// Valid сообщает, входит ли статус оплаты в закрытый набор.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusCompleted:
		return true
	}
	return false
}

// Order - общее представление заказа для машины состояний и проверки участников.
type Order interface {
	OrderID() uuid.UUID
	Type() OrderType
	CurrentStatus() OrderStatus
	// ParticipantID возвращает id участника, занимающего роль в заказе.
	ParticipantID(role Role) (uuid.UUID, bool)
	Participants() []uuid.UUID
}

// IsParticipant сообщает, участвует ли пользователь в заказе.
func IsParticipant(o Order, userID uuid.UUID) bool {
	for _, id := range o.Participants() {
		if id == userID {
			return true
		}
	}
	return false
}

// CanAct - только участник заказа или администратор может работать с заказом.
func CanAct(o Order, p Principal) bool {
	return p.IsAdmin() || IsParticipant(o, p.UserID)
}

// ClientOrder - заказ клиента у ремесленника.
type ClientOrder struct {
	ID            uuid.UUID       `db:"id"`
	ClientID      uuid.UUID       `db:"client_id"`
	ArtisanID     uuid.UUID       `db:"artisan_id"`
	Status        OrderStatus     `db:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (o *ClientOrder) OrderID() uuid.UUID         { return o.ID }
func (o *ClientOrder) Type() OrderType            { return OrderTypeClient }
func (o *ClientOrder) CurrentStatus() OrderStatus { return o.Status }

func (o *ClientOrder) ParticipantID(role Role) (uuid.UUID, bool) {
	switch role {
	case RoleClient:
		return o.ClientID, true
	case RoleArtisan:
		return o.ArtisanID, true
	}
	return uuid.Nil, false
}

func (o *ClientOrder) Participants() []uuid.UUID {
	return []uuid.UUID{o.ClientID, o.ArtisanID}
}

// ArtisanOrder - заказ материалов ремесленника у поставщика с доставкой.
type ArtisanOrder struct {
	ID              uuid.UUID        `db:"id"`
	ArtisanID       uuid.UUID        `db:"artisan_id"`
	SupplierID      uuid.UUID        `db:"supplier_id"`
	DeliveryManID   *uuid.UUID       `db:"delivery_man_id"`
	Status          OrderStatus      `db:"status"`
	MaterialDetails json.RawMessage  `db:"material_details"`
	DeliveryAddress string           `db:"delivery_address"`
	TotalAmount     *decimal.Decimal `db:"total_amount"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

func (o *ArtisanOrder) OrderID() uuid.UUID         { return o.ID }
func (o *ArtisanOrder) Type() OrderType            { return OrderTypeArtisan }
func (o *ArtisanOrder) CurrentStatus() OrderStatus { return o.Status }

func (o *ArtisanOrder) ParticipantID(role Role) (uuid.UUID, bool) {
	switch role {
	case RoleArtisan:
		return o.ArtisanID, true
	case RoleSupplier:
		return o.SupplierID, true
	case RoleDeliveryMan:
		if o.DeliveryManID != nil {
			return *o.DeliveryManID, true
		}
	}
	return uuid.Nil, false
}

func (o *ArtisanOrder) Participants() []uuid.UUID {
	ids := []uuid.UUID{o.ArtisanID, o.SupplierID}
	if o.DeliveryManID != nil {
		ids = append(ids, *o.DeliveryManID)
	}
	return ids
}

// OrderFilter - фильтр списка заказов.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	// ParticipantID ограничивает выборку заказами, где пользователь участвует в любой роли.
	ParticipantID uuid.UUID
	// Role сужает ParticipantID до конкретной роли.
	Role Role
}

// CreateClientOrderInput - данные для создания клиентского заказа.
type CreateClientOrderInput struct {
	ClientID    uuid.UUID
	ArtisanID   uuid.UUID
	TotalAmount decimal.Decimal
	Description string
}

// UpdateClientOrderInput - изменение содержимого клиентского заказа (без статуса).
type UpdateClientOrderInput struct {
	TotalAmount *decimal.Decimal
	Description *string
}

// CreateArtisanOrderInput - данные для создания заказа материалов.
type CreateArtisanOrderInput struct {
	ArtisanID       uuid.UUID
	SupplierID      uuid.UUID
	DeliveryManID   *uuid.UUID
	MaterialDetails json.RawMessage
	DeliveryAddress string
	TotalAmount     *decimal.Decimal
}

// UpdateArtisanOrderInput - изменение содержимого заказа материалов (без статуса).
type UpdateArtisanOrderInput struct {
	MaterialDetails json.RawMessage
	DeliveryAddress *string
	TotalAmount     *decimal.Decimal
}

// ClientOrderResponse - ответ по клиентскому заказу.
type ClientOrderResponse struct {
	ID            uuid.UUID     `json:"id"`
	ClientID      uuid.UUID     `json:"client_id"`
	ArtisanID     uuid.UUID     `json:"artisan_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalAmount   string        `json:"total_amount"`
	Description   string        `json:"description"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// ToResponse преобразует заказ в DTO.
func (o *ClientOrder) ToResponse() ClientOrderResponse {
	return ClientOrderResponse{
		ID:            o.ID,
		ClientID:      o.ClientID,
		ArtisanID:     o.ArtisanID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Description:   o.Description,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     o.UpdatedAt.Format(time.RFC3339),
	}
}

// ArtisanOrderResponse - ответ по заказу материалов.
type ArtisanOrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	ArtisanID       uuid.UUID       `json:"artisan_id"`
	SupplierID      uuid.UUID       `json:"supplier_id"`
	DeliveryManID   *uuid.UUID      `json:"delivery_man_id,omitempty"`
	Status          OrderStatus     `json:"status"`
	MaterialDetails json.RawMessage `json:"material_details,omitempty"`
	DeliveryAddress string          `json:"delivery_address"`
	TotalAmount     *string         `json:"total_amount,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// ToResponse преобразует заказ в DTO.
func (o *ArtisanOrder) ToResponse() ArtisanOrderResponse {
	var total *string
	if o.TotalAmount != nil {
		s := o.TotalAmount.StringFixed(2)
		total = &s
	}
	return ArtisanOrderResponse{
		ID:              o.ID,
		ArtisanID:       o.ArtisanID,
		SupplierID:      o.SupplierID,
		DeliveryManID:   o.DeliveryManID,
		Status:          o.Status,
		MaterialDetails: o.MaterialDetails,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     total,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
}
