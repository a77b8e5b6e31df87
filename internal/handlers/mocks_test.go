package handlers

import (
	"context"
	"errors"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/google/uuid"
)

var errNotMocked = errors.New("not mocked")

type mockOrderService struct {
	CreateClientFunc  func(ctx context.Context, actor models.Principal, in models.CreateClientOrderInput) (*models.ClientOrder, error)
	CreateArtisanFunc func(ctx context.Context, actor models.Principal, in models.CreateArtisanOrderInput) (*models.ArtisanOrder, error)
	GetClientFunc     func(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ClientOrder, error)
	ListClientFunc    func(ctx context.Context, actor models.Principal, f models.OrderFilter, p models.Page) ([]*models.ClientOrder, int, error)
	UpdateClientFunc  func(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateClientOrderInput) (*models.ClientOrder, error)
	UpdateArtisanFunc func(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateArtisanOrderInput) (*models.ArtisanOrder, error)
	ChangeStatusFunc  func(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID, s models.OrderStatus, comment *string) (models.Order, error)
	DeleteFunc        func(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID) error
	TimelineFunc      func(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID) ([]models.TimelineEntry, error)
}

func (m *mockOrderService) CreateClientOrder(ctx context.Context, actor models.Principal, in models.CreateClientOrderInput) (*models.ClientOrder, error) {
	if m.CreateClientFunc != nil {
		return m.CreateClientFunc(ctx, actor, in)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) CreateArtisanOrder(ctx context.Context, actor models.Principal, in models.CreateArtisanOrderInput) (*models.ArtisanOrder, error) {
	if m.CreateArtisanFunc != nil {
		return m.CreateArtisanFunc(ctx, actor, in)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) GetClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ClientOrder, error) {
	if m.GetClientFunc != nil {
		return m.GetClientFunc(ctx, actor, id)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) GetArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.ArtisanOrder, error) {
	return nil, errNotMocked
}

func (m *mockOrderService) ListClientOrders(ctx context.Context, actor models.Principal, f models.OrderFilter, p models.Page) ([]*models.ClientOrder, int, error) {
	if m.ListClientFunc != nil {
		return m.ListClientFunc(ctx, actor, f, p)
	}
	return nil, 0, errNotMocked
}

func (m *mockOrderService) ListArtisanOrders(ctx context.Context, actor models.Principal, f models.OrderFilter, p models.Page) ([]*models.ArtisanOrder, int, error) {
	return nil, 0, errNotMocked
}

func (m *mockOrderService) UpdateClientOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateClientOrderInput) (*models.ClientOrder, error) {
	if m.UpdateClientFunc != nil {
		return m.UpdateClientFunc(ctx, actor, id, in)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) UpdateArtisanOrder(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateArtisanOrderInput) (*models.ArtisanOrder, error) {
	if m.UpdateArtisanFunc != nil {
		return m.UpdateArtisanFunc(ctx, actor, id, in)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) ChangeStatus(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID, s models.OrderStatus, comment *string) (models.Order, error) {
	if m.ChangeStatusFunc != nil {
		return m.ChangeStatusFunc(ctx, actor, t, id, s, comment)
	}
	return nil, errNotMocked
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, t, id)
	}
	return errNotMocked
}

func (m *mockOrderService) GetStatusTimeline(ctx context.Context, actor models.Principal, t models.OrderType, id uuid.UUID) ([]models.TimelineEntry, error) {
	if m.TimelineFunc != nil {
		return m.TimelineFunc(ctx, actor, t, id)
	}
	return nil, errNotMocked
}

type mockPaymentService struct {
	RecordFunc func(ctx context.Context, actor models.Principal, orderID uuid.UUID, in services.RecordPaymentInput) (*models.PaymentResult, error)
	ListFunc   func(ctx context.Context, actor models.Principal, orderID uuid.UUID) ([]*models.Payment, error)
}

func (m *mockPaymentService) RecordPayment(ctx context.Context, actor models.Principal, orderID uuid.UUID, in services.RecordPaymentInput) (*models.PaymentResult, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, actor, orderID, in)
	}
	return nil, errNotMocked
}

func (m *mockPaymentService) ListPayments(ctx context.Context, actor models.Principal, orderID uuid.UUID) ([]*models.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, actor, orderID)
	}
	return nil, errNotMocked
}

type mockRatingService struct {
	CreateFunc        func(ctx context.Context, in models.CreateRatingInput) (*models.Rating, error)
	UpdateFunc        func(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateRatingInput) (*models.Rating, error)
	DeleteFunc        func(ctx context.Context, actor models.Principal, id uuid.UUID) error
	RecomputeFunc     func(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error)
	ListForUserFunc   func(ctx context.Context, userID uuid.UUID, p models.Page) ([]*models.Rating, int, error)
	StatsFunc         func(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error)
	ListForOrderFunc  func(ctx context.Context, orderID uuid.UUID, t models.OrderType) ([]*models.Rating, error)
	OrderWithRatingsF func(ctx context.Context, actor models.Principal, orderID uuid.UUID) (*models.ClientOrder, []*models.Rating, error)
}

func (m *mockRatingService) CreateRating(ctx context.Context, in models.CreateRatingInput) (*models.Rating, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return nil, errNotMocked
}

func (m *mockRatingService) UpdateRating(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateRatingInput) (*models.Rating, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, in)
	}
	return nil, errNotMocked
}

func (m *mockRatingService) DeleteRating(ctx context.Context, actor models.Principal, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return errNotMocked
}

func (m *mockRatingService) RecomputeAverage(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
	if m.RecomputeFunc != nil {
		return m.RecomputeFunc(ctx, userID)
	}
	return nil, errNotMocked
}

func (m *mockRatingService) ListRatingsForUser(ctx context.Context, userID uuid.UUID, p models.Page) ([]*models.Rating, int, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID, p)
	}
	return nil, 0, errNotMocked
}

func (m *mockRatingService) GetRatingStats(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, userID)
	}
	return nil, errNotMocked
}

func (m *mockRatingService) ListRatingsForOrder(ctx context.Context, orderID uuid.UUID, t models.OrderType) ([]*models.Rating, error) {
	if m.ListForOrderFunc != nil {
		return m.ListForOrderFunc(ctx, orderID, t)
	}
	return nil, errNotMocked
}

func (m *mockRatingService) GetClientOrderWithRatings(ctx context.Context, actor models.Principal, orderID uuid.UUID) (*models.ClientOrder, []*models.Rating, error) {
	if m.OrderWithRatingsF != nil {
		return m.OrderWithRatingsF(ctx, actor, orderID)
	}
	return nil, nil, errNotMocked
}

func (m *mockRatingService) TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	return nil, errNotMocked
}

type mockNotifications struct {
	ListFunc      func(ctx context.Context, userID uuid.UUID, unreadOnly bool, p models.Page) ([]*models.Notification, int, error)
	MarkReadFunc  func(ctx context.Context, userID, id uuid.UUID) error
	MarkAllFunc   func(ctx context.Context, userID uuid.UUID) (int64, error)
	ToRoleFunc    func(ctx context.Context, role models.Role, event notify.Event, payload any) error
	BroadcastFunc func(ctx context.Context, event notify.Event, payload any) error
}

func (m *mockNotifications) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, p models.Page) ([]*models.Notification, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, unreadOnly, p)
	}
	return nil, 0, errNotMocked
}

func (m *mockNotifications) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, id)
	}
	return errNotMocked
}

func (m *mockNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.MarkAllFunc != nil {
		return m.MarkAllFunc(ctx, userID)
	}
	return 0, errNotMocked
}

func (m *mockNotifications) PublishToRole(ctx context.Context, role models.Role, event notify.Event, payload any) error {
	if m.ToRoleFunc != nil {
		return m.ToRoleFunc(ctx, role, event, payload)
	}
	return errNotMocked
}

func (m *mockNotifications) Broadcast(ctx context.Context, event notify.Event, payload any) error {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, event, payload)
	}
	return errNotMocked
}

type mockDashboards struct {
	ClientFunc  func(ctx context.Context, actor models.Principal) (*models.ClientDashboard, error)
	ArtisanFunc func(ctx context.Context, actor models.Principal) (*models.ArtisanDashboard, error)
}

func (m *mockDashboards) ClientDashboard(ctx context.Context, actor models.Principal) (*models.ClientDashboard, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx, actor)
	}
	return nil, errNotMocked
}

func (m *mockDashboards) ArtisanDashboard(ctx context.Context, actor models.Principal) (*models.ArtisanDashboard, error) {
	if m.ArtisanFunc != nil {
		return m.ArtisanFunc(ctx, actor)
	}
	return nil, errNotMocked
}

type mockProjectService struct {
	CreateFunc func(ctx context.Context, actor models.Principal, in models.CreateProjectInput) (*models.Project, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListFunc   func(ctx context.Context, f models.ProjectFilter, p models.Page) ([]*models.Project, int, error)
	UpdateFunc func(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateProjectInput) (*models.Project, error)
	DeleteFunc func(ctx context.Context, actor models.Principal, id uuid.UUID) error
}

func (m *mockProjectService) CreateProject(ctx context.Context, actor models.Principal, in models.CreateProjectInput) (*models.Project, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, in)
	}
	return nil, errNotMocked
}

func (m *mockProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *mockProjectService) ListProjects(ctx context.Context, f models.ProjectFilter, p models.Page) ([]*models.Project, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f, p)
	}
	return nil, 0, errNotMocked
}

func (m *mockProjectService) UpdateProject(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateProjectInput) (*models.Project, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, in)
	}
	return nil, errNotMocked
}

func (m *mockProjectService) DeleteProject(ctx context.Context, actor models.Principal, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, id)
	}
	return errNotMocked
}
