package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ProjectService ведёт проекты клиентов. Список и карточка проекта открыты всем
// авторизованным пользователям, менять и удалять проект может только его клиент или администратор.
type ProjectService interface {
	CreateProject(ctx context.Context, actor models.Principal, in models.CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error)
	UpdateProject(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, actor models.Principal, id uuid.UUID) error
}

// ProjectServiceImpl реализует ProjectService.
type ProjectServiceImpl struct {
	tx       TxManager
	users    UserStorage
	projects ProjectStorage
	events   EventPublisher
	logger   *zap.Logger
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(tx TxManager, users UserStorage, projects ProjectStorage, events EventPublisher, log *zap.Logger) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		tx:       tx,
		users:    users,
		projects: projects,
		events:   events,
		logger:   logger.OrNop(log),
	}
}

// CreateProject создаёт проект в статусе PENDING. Назначенный ремесленник получает project_created.
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, actor models.Principal, in models.CreateProjectInput) (*models.Project, error) {
	switch actor.Role {
	case models.RoleClient:
		in.ClientID = actor.UserID
	case models.RoleAdmin:
		if in.ClientID == uuid.Nil {
			return nil, invalid("client_id", "is required")
		}
		if err := requireUserRole(ctx, s.users, in.ClientID, models.RoleClient, "client_id"); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnauthorized
	}

	p := &models.Project{
		ID:          uuid.New(),
		ClientID:    in.ClientID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Budget:      in.Budget,
		Location:    strings.TrimSpace(in.Location),
		Category:    strings.TrimSpace(in.Category),
		Status:      models.ProjectStatusPending,
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}
	images, err := normalizeImages(in.Images)
	if err != nil {
		return nil, err
	}
	p.Images = images

	if in.ArtisanID != nil {
		if err := requireUserRole(ctx, s.users, *in.ArtisanID, models.RoleArtisan, "artisan_id"); err != nil {
			return nil, err
		}
		artisan := *in.ArtisanID
		p.ArtisanID = &artisan
	}

	if err := s.projects.Create(ctx, p); err != nil {
		return nil, storeError("create project", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("client_id", p.ClientID.String()),
	)
	s.announce(ctx, p, p.ArtisanID)
	return p, nil
}

// GetProject возвращает проект.
func (s *ProjectServiceImpl) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get project", err)
	}
	return p, nil
}

// ListProjects возвращает страницу проектов по фильтру.
func (s *ProjectServiceImpl) ListProjects(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, invalid("status", "is not a project status")
	}
	list, total, err := s.projects.List(ctx, filter, page)
	if err != nil {
		return nil, 0, storeError("list projects", err)
	}
	return list, total, nil
}

// UpdateProject меняет содержимое проекта под блокировкой строки.
// Новый назначенный ремесленник получает project_created.
func (s *ProjectServiceImpl) UpdateProject(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateProjectInput) (*models.Project, error) {
	var images json.RawMessage
	if in.Images != nil {
		var err error
		if images, err = normalizeImages(in.Images); err != nil {
			return nil, err
		}
	}
	if in.ArtisanID != nil {
		if err := requireUserRole(ctx, s.users, *in.ArtisanID, models.RoleArtisan, "artisan_id"); err != nil {
			return nil, err
		}
	}

	var (
		p          *models.Project
		newArtisan *uuid.UUID
	)
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = s.projects.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return storeError("lock project", err)
		}
		if !p.IsOwner(actor) {
			return ErrUnauthorized
		}

		if in.ArtisanID != nil && (p.ArtisanID == nil || *p.ArtisanID != *in.ArtisanID) {
			artisan := *in.ArtisanID
			p.ArtisanID = &artisan
			newArtisan = &artisan
		}
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			p.Description = strings.TrimSpace(*in.Description)
		}
		if in.Budget != nil {
			p.Budget = *in.Budget
		}
		if in.Location != nil {
			p.Location = strings.TrimSpace(*in.Location)
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}
		if images != nil {
			p.Images = images
		}
		if err := validateProject(p); err != nil {
			return err
		}

		if err := s.projects.UpdateFieldsTx(ctx, tx, p); err != nil {
			return storeError("update project", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("update project", err)
	}

	s.announce(ctx, p, newArtisan)
	return p, nil
}

// DeleteProject удаляет проект клиента.
func (s *ProjectServiceImpl) DeleteProject(ctx context.Context, actor models.Principal, id uuid.UUID) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return storeError("get project", err)
	}
	if !p.IsOwner(actor) {
		return ErrUnauthorized
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return storeError("delete project", err)
	}
	return nil
}

func (s *ProjectServiceImpl) announce(ctx context.Context, p *models.Project, artisan *uuid.UUID) {
	if artisan == nil {
		return
	}
	publish(ctx, s.events, s.logger, []uuid.UUID{*artisan}, notify.EventProjectCreated, map[string]any{
		"project_id": p.ID,
		"client_id":  p.ClientID,
		"title":      p.Title,
		"category":   p.Category,
		"budget":     p.Budget.StringFixed(2),
	})
}

func validateProject(p *models.Project) error {
	for _, f := range []struct{ name, value string }{
		{"title", p.Title},
		{"description", p.Description},
		{"location", p.Location},
		{"category", p.Category},
	} {
		if f.value == "" {
			return invalid(f.name, "is required")
		}
	}
	if p.Budget.IsNegative() {
		return invalid("budget", "must not be negative")
	}
	return checkMoney("budget", p.Budget)
}

// normalizeImages принимает JSON-массив ссылок; пустое значение становится [].
func normalizeImages(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`[]`), nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, invalid("images", "must be an array of strings")
	}
	return raw, nil
}
