package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating - оценка участника заказа. Одна на (rater, ratee, order, orderType).
type Rating struct {
	ID        uuid.UUID `db:"id"`
	Score     int       `db:"score"`
	Comment   *string   `db:"comment"`
	RaterID   uuid.UUID `db:"rater_id"`
	RateeID   uuid.UUID `db:"ratee_id"`
	RaterType Role      `db:"rater_type"`
	RateeType Role      `db:"ratee_type"`
	OrderID   uuid.UUID `db:"order_id"`
	OrderType OrderType `db:"order_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// relationship - ключ таблицы допустимых пар оценки.
type relationship struct {
	orderType OrderType
	rater     Role
	ratee     Role
}

var ratingRelationships = map[relationship]bool{
	{OrderTypeClient, RoleClient, RoleArtisan}:       true,
	{OrderTypeClient, RoleArtisan, RoleClient}:       true,
	{OrderTypeArtisan, RoleArtisan, RoleSupplier}:    true,
	{OrderTypeArtisan, RoleSupplier, RoleArtisan}:    true,
	{OrderTypeArtisan, RoleArtisan, RoleDeliveryMan}: true,
	{OrderTypeArtisan, RoleDeliveryMan, RoleArtisan}: true,
}

// CanRate сообщает, допустима ли пара ролей для вида заказа.
func CanRate(orderType OrderType, rater, ratee Role) bool {
	return ratingRelationships[relationship{orderType, rater, ratee}]
}

// OccupiesPair проверяет пару ролей и то, что оценивающий и оцениваемый
// действительно занимают эти роли в заказе.
func OccupiesPair(o Order, raterID uuid.UUID, raterRole Role, rateeID uuid.UUID, rateeRole Role) bool {
	if !CanRate(o.Type(), raterRole, rateeRole) {
		return false
	}
	raterSlot, ok := o.ParticipantID(raterRole)
	if !ok || raterSlot != raterID {
		return false
	}
	rateeSlot, ok := o.ParticipantID(rateeRole)
	return ok && rateeSlot == rateeID
}

// CreateRatingInput - запрос на создание оценки.
type CreateRatingInput struct {
	Rater     Principal
	RateeID   uuid.UUID
	OrderID   uuid.UUID
	OrderType OrderType
	Score     int
	Comment   *string
}

// UpdateRatingInput - изменение оценки. Пустые поля не меняются.
type UpdateRatingInput struct {
	Score   *int
	Comment *string
}

// RatingStats - сводка оценок пользователя.
type RatingStats struct {
	TotalRatings  int         `json:"total_ratings"`
	AverageRating float64     `json:"average_rating"`
	Distribution  map[int]int `json:"distribution"`
}

// NewRatingStats возвращает сводку с нулевым распределением 1..5.
func NewRatingStats() *RatingStats {
	dist := make(map[int]int, MaxScore)
	for s := MinScore; s <= MaxScore; s++ {
		dist[s] = 0
	}
	return &RatingStats{Distribution: dist}
}

// RatingResponse DTO оценки.
type RatingResponse struct {
	ID        uuid.UUID `json:"id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	RaterID   uuid.UUID `json:"rater_id"`
	RateeID   uuid.UUID `json:"ratee_id"`
	RaterType Role      `json:"rater_type"`
	RateeType Role      `json:"ratee_type"`
	OrderID   uuid.UUID `json:"order_id"`
	OrderType OrderType `json:"order_type"`
	CreatedAt string    `json:"created_at"`
}

// ToResponse преобразует оценку в DTO.
func (r *Rating) ToResponse() RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		Score:     r.Score,
		Comment:   r.Comment,
		RaterID:   r.RaterID,
		RateeID:   r.RateeID,
		RaterType: r.RaterType,
		RateeType: r.RateeType,
		OrderID:   r.OrderID,
		OrderType: r.OrderType,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// RatingsToResponse преобразует список оценок.
func RatingsToResponse(list []*Rating) []RatingResponse {
	resp := make([]RatingResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, r.ToResponse())
	}
	return resp
}
