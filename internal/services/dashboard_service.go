package services

import (
	"context"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/shopspring/decimal"
)

const (
	dashboardRecentOrders  = 10
	dashboardTopArtisans   = 5
	dashboardRecentRatings = 5
)

// DashboardService собирает сводки для личных кабинетов.
type DashboardService struct {
	clientOrders  ClientOrderStorage
	artisanOrders ArtisanOrderStorage
	ratings       RatingService
}

// NewDashboardService создаёт сервис сводок.
func NewDashboardService(clientOrders ClientOrderStorage, artisanOrders ArtisanOrderStorage, ratings RatingService) *DashboardService {
	return &DashboardService{
		clientOrders:  clientOrders,
		artisanOrders: artisanOrders,
		ratings:       ratings,
	}
}

// ClientDashboard - последние заказы клиента, ожидающие заказы и лучшие ремесленники.
func (s *DashboardService) ClientDashboard(ctx context.Context, actor models.Principal) (*models.ClientDashboard, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrUnauthorized
	}

	own := models.OrderFilter{ParticipantID: actor.UserID, Role: models.RoleClient}
	recent, _, err := s.clientOrders.List(ctx, own, models.Page{Page: 1, Limit: dashboardRecentOrders})
	if err != nil {
		return nil, storeError("list recent orders", err)
	}

	pendingFilter := own
	pendingFilter.Status = models.OrderStatusPending
	pending, pendingCount, err := s.clientOrders.List(ctx, pendingFilter, models.Page{Page: 1, Limit: dashboardRecentOrders})
	if err != nil {
		return nil, storeError("list pending orders", err)
	}

	top, err := s.ratings.TopRated(ctx, models.RoleArtisan, dashboardTopArtisans)
	if err != nil {
		return nil, err
	}

	return &models.ClientDashboard{
		RecentOrders:  recent,
		PendingOrders: pending,
		PendingCount:  pendingCount,
		TopArtisans:   top,
	}, nil
}

// ArtisanDashboard - заказы ремесленника, доля завершённых и последние оценки.
func (s *DashboardService) ArtisanDashboard(ctx context.Context, actor models.Principal) (*models.ArtisanDashboard, error) {
	if actor.Role != models.RoleArtisan {
		return nil, ErrUnauthorized
	}

	page := models.Page{Page: 1, Limit: dashboardRecentOrders}
	own := models.OrderFilter{ParticipantID: actor.UserID, Role: models.RoleArtisan}

	clientOrders, _, err := s.clientOrders.List(ctx, own, page)
	if err != nil {
		return nil, storeError("list client orders", err)
	}
	supplyOrders, _, err := s.artisanOrders.List(ctx, own, page)
	if err != nil {
		return nil, storeError("list supply orders", err)
	}

	counts, err := s.clientOrders.StatusCounts(ctx, actor.UserID)
	if err != nil {
		return nil, storeError("count orders by status", err)
	}
	total, completed, rate := CompletionRate(counts)

	ratings, _, err := s.ratings.ListRatingsForUser(ctx, actor.UserID, models.Page{Page: 1, Limit: dashboardRecentRatings})
	if err != nil {
		return nil, err
	}
	stats, err := s.ratings.GetRatingStats(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	return &models.ArtisanDashboard{
		RecentClientOrders: clientOrders,
		RecentSupplyOrders: supplyOrders,
		TotalClientOrders:  total,
		CompletedOrders:    completed,
		CompletionRate:     rate,
		RecentRatings:      ratings,
		RatingStats:        stats,
	}, nil
}

// CompletionRate считает долю завершённых заказов среди вышедших из PENDING, в процентах
// с двумя знаками.
func CompletionRate(counts map[models.OrderStatus]int) (total, completed int, rate float64) {
	for _, n := range counts {
		total += n
	}
	completed = counts[models.OrderStatusCompleted]

	handled := total - counts[models.OrderStatusPending]
	if handled <= 0 {
		return total, completed, 0
	}
	rate, _ = decimal.NewFromInt(int64(completed)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(handled)), 2).
		Float64()
	return total, completed, rate
}
