package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus - этап проекта клиента.
type ProjectStatus string

const (
	ProjectStatusPending           ProjectStatus = "PENDING"
	ProjectStatusAccepted          ProjectStatus = "ACCEPTED"
	ProjectStatusProcessing        ProjectStatus = "PROCESSING"
	ProjectStatusAwaitingMaterials ProjectStatus = "AWAITING_MATERIALS"
	ProjectStatusInProgress        ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted         ProjectStatus = "COMPLETED"
)

// Valid сообщает, входит ли статус в закрытый набор.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusAccepted, ProjectStatusProcessing,
		ProjectStatusAwaitingMaterials, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project - запрос клиента на работу. Ремесленник может быть не назначен.
type Project struct {
	ID          uuid.UUID       `db:"id"`
	ClientID    uuid.UUID       `db:"client_id"`
	ArtisanID   *uuid.UUID      `db:"artisan_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Budget      decimal.Decimal `db:"budget"`
	Location    string          `db:"location"`
	Category    string          `db:"category"`
	Images      json.RawMessage `db:"images"`
	Status      ProjectStatus   `db:"status"`
	Progress    int             `db:"progress"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// IsOwner сообщает, может ли субъект менять проект.
func (p *Project) IsOwner(actor Principal) bool {
	return actor.IsAdmin() || p.ClientID == actor.UserID
}

// ProjectFilter - фильтр списка проектов.
type ProjectFilter struct {
	Status    ProjectStatus
	ClientID  uuid.UUID
	ArtisanID uuid.UUID
	Category  string
}

type CreateProjectInput struct {
	ClientID    uuid.UUID
	ArtisanID   *uuid.UUID
	Title       string
	Description string
	Budget      decimal.Decimal
	Location    string
	Category    string
	Images      json.RawMessage
}

// UpdateProjectInput - частичное изменение проекта. nil означает "не менять".
type UpdateProjectInput struct {
	ArtisanID   *uuid.UUID
	Title       *string
	Description *string
	Budget      *decimal.Decimal
	Location    *string
	Category    *string
	Images      json.RawMessage
}

type ProjectResponse struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    uuid.UUID       `json:"client_id"`
	ArtisanID   *uuid.UUID      `json:"artisan_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      string          `json:"budget"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	Images      json.RawMessage `json:"images"`
	Status      ProjectStatus   `json:"status"`
	Progress    int             `json:"progress"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func (p *Project) ToResponse() ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		ArtisanID:   p.ArtisanID,
		Title:       p.Title,
		Description: p.Description,
		Budget:      p.Budget.StringFixed(2),
		Location:    p.Location,
		Category:    p.Category,
		Images:      p.Images,
		Status:      p.Status,
		Progress:    p.Progress,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func ProjectsToResponse(list []*Project) []ProjectResponse {
	resp := make([]ProjectResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, p.ToResponse())
	}
	return resp
}
