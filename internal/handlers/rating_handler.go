package handlers

import (
	"net/http"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RatingHandler обрабатывает оценки и сводки рейтинга.
type RatingHandler struct {
	ratings services.RatingService
	logger  *zap.Logger
}

func NewRatingHandler(ratings services.RatingService, log *zap.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, logger: logger.OrNop(log)}
}

// Create обрабатывает POST /api/ratings. Роль оценивающего берётся из токена.
func (h *RatingHandler) Create(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateRatingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rating, err := h.ratings.CreateRating(c.Request().Context(), models.CreateRatingInput{
		Rater:     p,
		RateeID:   req.RateeID,
		OrderID:   req.OrderID,
		OrderType: models.OrderType(req.OrderType),
		Score:     req.Score,
		Comment:   req.Comment.Ptr(),
	})
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusCreated, rating.ToResponse())
}

// Update обрабатывает PUT /api/ratings/:id.
func (h *RatingHandler) Update(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRatingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rating, err := h.ratings.UpdateRating(c.Request().Context(), p, id, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, rating.ToResponse())
}

// Delete обрабатывает DELETE /api/ratings/:id.
func (h *RatingHandler) Delete(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.ratings.DeleteRating(c.Request().Context(), p, id); err != nil {
		return respondError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForUser обрабатывает GET /api/users/:id/ratings.
func (h *RatingHandler) ListForUser(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}

	ratings, total, err := h.ratings.ListRatingsForUser(c.Request().Context(), userID, page)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, models.NewPageResponse(models.RatingsToResponse(ratings), total, page))
}

// Stats обрабатывает GET /api/users/:id/rating-stats.
func (h *RatingHandler) Stats(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.ratings.GetRatingStats(c.Request().Context(), userID)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ClientOrderRatings обрабатывает GET /api/client-orders/:id/ratings: заказ вместе с оценками.
func (h *RatingHandler) ClientOrderRatings(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	order, ratings, err := h.ratings.GetClientOrderWithRatings(c.Request().Context(), p, id)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"order":   order.ToResponse(),
		"ratings": models.RatingsToResponse(ratings),
	})
}

// ArtisanOrderRatings обрабатывает GET /api/artisan-orders/:id/ratings.
func (h *RatingHandler) ArtisanOrderRatings(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	ratings, err := h.ratings.ListRatingsForOrder(c.Request().Context(), id, models.OrderTypeArtisan)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, models.RatingsToResponse(ratings))
}

// RecomputeAverage обрабатывает POST /api/admin/users/:id/recompute-rating.
func (h *RatingHandler) RecomputeAverage(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.ratings.RecomputeAverage(c.Request().Context(), userID)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
