package handlers

import (
	"net/http"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProjectHandler обрабатывает доску проектов клиентов.
type ProjectHandler struct {
	projects services.ProjectService
	logger   *zap.Logger
}

func NewProjectHandler(projects services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger.OrNop(log)}
}

// Create обрабатывает POST /api/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projects.CreateProject(c.Request().Context(), p, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusCreated, project.ToResponse())
}

// List обрабатывает GET /api/projects.
func (h *ProjectHandler) List(c echo.Context) error {
	if _, err := auth.GetPrincipal(c); err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	filter, err := parseProjectFilter(c)
	if err != nil {
		return err
	}

	projects, total, err := h.projects.ListProjects(c.Request().Context(), filter, page)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, models.NewPageResponse(models.ProjectsToResponse(projects), total, page))
}

// Get обрабатывает GET /api/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	if _, err := auth.GetPrincipal(c); err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	project, err := h.projects.GetProject(c.Request().Context(), id)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, project.ToResponse())
}

// Update обрабатывает PUT /api/projects/:id.
func (h *ProjectHandler) Update(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projects.UpdateProject(c.Request().Context(), p, id, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, project.ToResponse())
}

// Delete обрабатывает DELETE /api/projects/:id.
func (h *ProjectHandler) Delete(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.projects.DeleteProject(c.Request().Context(), p, id); err != nil {
		return respondError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseProjectFilter(c echo.Context) (models.ProjectFilter, error) {
	f := models.ProjectFilter{
		Status:   models.ProjectStatus(c.QueryParam("status")),
		Category: c.QueryParam("category"),
	}
	for _, q := range []struct {
		name string
		dst  *uuid.UUID
	}{
		{"client_id", &f.ClientID},
		{"artisan_id", &f.ArtisanID},
	} {
		raw := c.QueryParam(q.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return models.ProjectFilter{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+q.name)
		}
		*q.dst = id
	}
	return f, nil
}
