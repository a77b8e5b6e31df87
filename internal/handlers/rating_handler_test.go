package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingHandler_Create(t *testing.T) {
	client := models.Principal{UserID: uuid.New(), Role: models.RoleClient}
	artisanID, orderID := uuid.New(), uuid.New()
	valid := fmt.Sprintf(`{"ratee_id":%q,"order_id":%q,"order_type":"CLIENT_ORDER","score":4,"comment":"nice"}`, artisanID, orderID)

	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{name: "created", body: valid, expectedStatus: http.StatusCreated},
		{name: "unknown order type", body: fmt.Sprintf(`{"ratee_id":%q,"order_id":%q,"order_type":"GIFT","score":4}`, artisanID, orderID),
			expectedStatus: http.StatusBadRequest},
		{name: "score out of range", body: valid, err: &services.ValidationError{Field: "score", Message: "Score must be between 1 and 5"},
			expectedStatus: http.StatusBadRequest, expectedMsg: "Score must be between 1 and 5"},
		{name: "order not completed", body: valid, err: services.ErrOrderNotFinalized, expectedStatus: http.StatusForbidden},
		{name: "not a participant", body: valid, err: services.ErrNotAuthorizedToRate, expectedStatus: http.StatusForbidden,
			expectedMsg: "You are not authorized to rate this user for this order"},
		{name: "ratee missing", body: valid, err: services.ErrRateeNotFound, expectedStatus: http.StatusNotFound},
		{name: "duplicate", body: valid, err: fmt.Errorf("create rating: %w", services.ErrDuplicateRating), expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRatingService{
				CreateFunc: func(ctx context.Context, in models.CreateRatingInput) (*models.Rating, error) {
					assert.Equal(t, client, in.Rater)
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.Rating{ID: uuid.New(), Score: in.Score, Comment: in.Comment, RaterID: in.Rater.UserID,
						RateeID: in.RateeID, RaterType: in.Rater.Role, RateeType: models.RoleArtisan,
						OrderID: in.OrderID, OrderType: in.OrderType}, nil
				},
			}
			c, rec := newContext(t, request{method: http.MethodPost, body: tt.body, actor: &client})

			err := NewRatingHandler(mock, nil).Create(c)
			assertStatus(t, err, rec, tt.expectedStatus)
			if tt.expectedMsg != "" {
				assert.Contains(t, err.Error(), tt.expectedMsg)
			}
			if tt.expectedStatus == http.StatusCreated {
				var resp models.RatingResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 4, resp.Score)
				assert.Equal(t, models.RoleClient, resp.RaterType)
			}
		})
	}
}

func TestRatingHandler_Update(t *testing.T) {
	rater := models.Principal{UserID: uuid.New(), Role: models.RoleArtisan}
	id := uuid.New()

	var got models.UpdateRatingInput
	mock := &mockRatingService{
		UpdateFunc: func(ctx context.Context, actor models.Principal, gotID uuid.UUID, in models.UpdateRatingInput) (*models.Rating, error) {
			got = in
			return &models.Rating{ID: gotID, Score: *in.Score}, nil
		},
	}

	c, rec := newContext(t, request{method: http.MethodPut, body: `{"score":2}`, params: map[string]string{"id": id.String()}, actor: &rater})
	assertStatus(t, NewRatingHandler(mock, nil).Update(c), rec, http.StatusOK)
	require.NotNil(t, got.Score)
	assert.Equal(t, 2, *got.Score)
	assert.Nil(t, got.Comment)
}

func TestRatingHandler_DeleteAndRecompute(t *testing.T) {
	admin := models.Principal{UserID: uuid.New(), Role: models.RoleAdmin}
	id := uuid.New()
	mock := &mockRatingService{
		DeleteFunc: func(ctx context.Context, actor models.Principal, gotID uuid.UUID) error {
			if gotID != id {
				return services.ErrRatingNotFound
			}
			return nil
		},
		RecomputeFunc: func(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
			stats := services.StatsFromDistribution(map[int]int{5: 1, 4: 1, 2: 1})
			return stats, nil
		},
	}
	h := NewRatingHandler(mock, nil)

	c, rec := newContext(t, request{method: http.MethodDelete, params: map[string]string{"id": id.String()}, actor: &admin})
	assertStatus(t, h.Delete(c), rec, http.StatusNoContent)

	c, rec = newContext(t, request{method: http.MethodDelete, params: map[string]string{"id": uuid.NewString()}, actor: &admin})
	assertStatus(t, h.Delete(c), rec, http.StatusNotFound)

	c, rec = newContext(t, request{method: http.MethodPost, params: map[string]string{"id": uuid.NewString()}, actor: &admin})
	assertStatus(t, h.RecomputeAverage(c), rec, http.StatusOK)
	var stats models.RatingStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalRatings)
	assert.InDelta(t, 3.67, stats.AverageRating, 0.001)
}

func TestRatingHandler_Listings(t *testing.T) {
	viewer := models.Principal{UserID: uuid.New(), Role: models.RoleClient}
	orderID := uuid.New()
	mock := &mockRatingService{
		ListForUserFunc: func(ctx context.Context, userID uuid.UUID, p models.Page) ([]*models.Rating, int, error) {
			return []*models.Rating{{ID: uuid.New(), Score: 5, RateeID: userID}}, 1, nil
		},
		StatsFunc: func(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
			return models.NewRatingStats(), nil
		},
		ListForOrderFunc: func(ctx context.Context, id uuid.UUID, ot models.OrderType) ([]*models.Rating, error) {
			assert.Equal(t, models.OrderTypeArtisan, ot)
			return nil, services.ErrOrderNotFound
		},
		OrderWithRatingsF: func(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ClientOrder, []*models.Rating, error) {
			return &models.ClientOrder{ID: id}, []*models.Rating{{ID: uuid.New(), OrderID: id}}, nil
		},
	}
	h := NewRatingHandler(mock, nil)
	params := map[string]string{"id": orderID.String()}

	c, rec := newContext(t, request{method: http.MethodGet, target: "/api/users/x/ratings?limit=5", params: params, actor: &viewer})
	assertStatus(t, h.ListForUser(c), rec, http.StatusOK)
	var page models.PageResponse[models.RatingResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 5, page.PerPage)
	assert.Len(t, page.Items, 1)

	c, rec = newContext(t, request{method: http.MethodGet, params: params, actor: &viewer})
	assertStatus(t, h.Stats(c), rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"total_ratings":0`)

	c, rec = newContext(t, request{method: http.MethodGet, params: params, actor: &viewer})
	assertStatus(t, h.ArtisanOrderRatings(c), rec, http.StatusNotFound)

	c, rec = newContext(t, request{method: http.MethodGet, params: params, actor: &viewer})
	assertStatus(t, h.ClientOrderRatings(c), rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"ratings"`)
	assert.Contains(t, rec.Body.String(), orderID.String())
}
