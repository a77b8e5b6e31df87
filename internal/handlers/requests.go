package handlers

import (
	"encoding/json"

	"github.com/aarondl/null/v8"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClientOrderRequest - тело POST /client-orders. client_id учитывается только для ADMIN.
type CreateClientOrderRequest struct {
	ClientID    uuid.UUID       `json:"client_id"`
	ArtisanID   uuid.UUID       `json:"artisan_id" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Description string          `json:"description" validate:"max=2000"`
}

func (r CreateClientOrderRequest) toInput() models.CreateClientOrderInput {
	return models.CreateClientOrderInput{
		ClientID:    r.ClientID,
		ArtisanID:   r.ArtisanID,
		TotalAmount: r.TotalAmount,
		Description: r.Description,
	}
}

// UpdateClientOrderRequest - тело PUT /client-orders/:id.
// Поле status принимается только для того, чтобы отклонить его.
type UpdateClientOrderRequest struct {
	Description null.String      `json:"description" validate:"omitempty,max=2000"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Status      null.String      `json:"status"`
}

func (r UpdateClientOrderRequest) toInput() models.UpdateClientOrderInput {
	return models.UpdateClientOrderInput{
		Description: r.Description.Ptr(),
		TotalAmount: r.TotalAmount,
	}
}

// CreateArtisanOrderRequest - тело POST /artisan-orders. artisan_id учитывается только для ADMIN.
type CreateArtisanOrderRequest struct {
	ArtisanID       uuid.UUID        `json:"artisan_id"`
	SupplierID      uuid.UUID        `json:"supplier_id" validate:"required"`
	DeliveryManID   *uuid.UUID       `json:"delivery_man_id"`
	MaterialDetails json.RawMessage  `json:"material_details"`
	DeliveryAddress string           `json:"delivery_address" validate:"required,max=500"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
}

func (r CreateArtisanOrderRequest) toInput() models.CreateArtisanOrderInput {
	return models.CreateArtisanOrderInput{
		ArtisanID:       r.ArtisanID,
		SupplierID:      r.SupplierID,
		DeliveryManID:   r.DeliveryManID,
		MaterialDetails: r.MaterialDetails,
		DeliveryAddress: r.DeliveryAddress,
		TotalAmount:     r.TotalAmount,
	}
}

// UpdateArtisanOrderRequest - тело PUT /artisan-orders/:id.
type UpdateArtisanOrderRequest struct {
	MaterialDetails json.RawMessage  `json:"material_details"`
	DeliveryAddress null.String      `json:"delivery_address" validate:"omitempty,max=500"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Status          null.String      `json:"status"`
}

func (r UpdateArtisanOrderRequest) toInput() models.UpdateArtisanOrderInput {
	return models.UpdateArtisanOrderInput{
		MaterialDetails: r.MaterialDetails,
		DeliveryAddress: r.DeliveryAddress.Ptr(),
		TotalAmount:     r.TotalAmount,
	}
}

// ChangeStatusRequest - тело PATCH /<orders>/:id/status.
type ChangeStatusRequest struct {
	Status  string      `json:"status" validate:"required"`
	Comment null.String `json:"comment" validate:"omitempty,max=1000"`
}

// RecordPaymentRequest - тело POST /client-orders/:id/payments.
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

// CreateRatingRequest - тело POST /ratings.
type CreateRatingRequest struct {
	RateeID   uuid.UUID   `json:"ratee_id" validate:"required"`
	OrderID   uuid.UUID   `json:"order_id" validate:"required"`
	OrderType string      `json:"order_type" validate:"required,order_type"`
	Score     int         `json:"score"`
	Comment   null.String `json:"comment" validate:"omitempty,max=1000"`
}

// UpdateRatingRequest - тело PUT /ratings/:id.
type UpdateRatingRequest struct {
	Score   null.Int    `json:"score"`
	Comment null.String `json:"comment" validate:"omitempty,max=1000"`
}

func (r UpdateRatingRequest) toInput() models.UpdateRatingInput {
	var in models.UpdateRatingInput
	if r.Score.Valid {
		score := r.Score.Int
		in.Score = &score
	}
	in.Comment = r.Comment.Ptr()
	return in
}

// AdminNotificationRequest - тело POST /admin/notifications.
// Без role сообщение рассылается всем.
type AdminNotificationRequest struct {
	Event   string          `json:"event" validate:"required"`
	Role    null.String     `json:"role" validate:"omitempty,role"`
	Payload json.RawMessage `json:"payload"`
}

// CreateProjectRequest - тело POST /projects. client_id учитывается только для ADMIN.
type CreateProjectRequest struct {
	ClientID    uuid.UUID       `json:"client_id"`
	ArtisanID   *uuid.UUID      `json:"artisan_id"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required,max=5000"`
	Budget      decimal.Decimal `json:"budget"`
	Location    string          `json:"location" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=100"`
	Images      json.RawMessage `json:"images"`
}

func (r CreateProjectRequest) toInput() models.CreateProjectInput {
	return models.CreateProjectInput{
		ClientID:    r.ClientID,
		ArtisanID:   r.ArtisanID,
		Title:       r.Title,
		Description: r.Description,
		Budget:      r.Budget,
		Location:    r.Location,
		Category:    r.Category,
		Images:      r.Images,
	}
}

// UpdateProjectRequest - тело PUT /projects/:id.
type UpdateProjectRequest struct {
	ArtisanID   *uuid.UUID       `json:"artisan_id"`
	Title       null.String      `json:"title" validate:"omitempty,max=200"`
	Description null.String      `json:"description" validate:"omitempty,max=5000"`
	Budget      *decimal.Decimal `json:"budget"`
	Location    null.String      `json:"location" validate:"omitempty,max=200"`
	Category    null.String      `json:"category" validate:"omitempty,max=100"`
	Images      json.RawMessage  `json:"images"`
}

func (r UpdateProjectRequest) toInput() models.UpdateProjectInput {
	return models.UpdateProjectInput{
		ArtisanID:   r.ArtisanID,
		Title:       r.Title.Ptr(),
		Description: r.Description.Ptr(),
		Budget:      r.Budget,
		Location:    r.Location.Ptr(),
		Category:    r.Category.Ptr(),
		Images:      r.Images,
	}
}
