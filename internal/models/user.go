package models

import (
	"time"

	"github.com/google/uuid"
)

// Role описывает роль участника маркетплейса.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleClient      Role = "CLIENT"
	RoleArtisan     Role = "ARTISAN"
	RoleSupplier    Role = "SUPPLIER"
	RoleDeliveryMan Role = "DELIVERY_MAN"
)

// Valid сообщает, входит ли роль в закрытый набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleArtisan, RoleSupplier, RoleDeliveryMan:
		return true
	}
	return false
}

// User представляет пользователя системы.
// Профиль и учётные данные ведутся внешним сервисом, движок пишет только AverageRating.
type User struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Role          Role      `db:"role"`
	AverageRating float64   `db:"average_rating"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Principal - проверенный субъект запроса.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin сообщает, является ли субъект администратором.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserResponse - публичное представление пользователя.
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	AverageRating float64   `json:"average_rating"`
}

// ToResponse преобразует пользователя в DTO.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Role:          u.Role,
		AverageRating: u.AverageRating,
	}
}
