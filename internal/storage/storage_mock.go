package storage

import (
	"context"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MockTxManager выполняет функцию без настоящей транзакции (tx == nil).
type MockTxManager struct {
	// Err, если задана, возвращается после успешного выполнения fn, как ошибка фиксации.
	Err error
}

func (m *MockTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return m.Err
}

// MockUserStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockUserStorage struct {
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateAverageRatingFunc func(ctx context.Context, id uuid.UUID, average float64) error
	TopRatedFunc            func(ctx context.Context, role models.Role, limit int) ([]*models.User, error)
}

func (m *MockUserStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStorage) UpdateAverageRating(ctx context.Context, id uuid.UUID, average float64) error {
	if m.UpdateAverageRatingFunc != nil {
		return m.UpdateAverageRatingFunc(ctx, id, average)
	}
	return nil
}

func (m *MockUserStorage) TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	if m.TopRatedFunc != nil {
		return m.TopRatedFunc(ctx, role, limit)
	}
	return nil, nil
}

// MockClientOrderStorage - мок хранилища клиентских заказов.
type MockClientOrderStorage struct {
	CreateTxFunc              func(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*models.ClientOrder, error)
	GetForUpdateTxFunc        func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClientOrder, error)
	ListFunc                  func(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error)
	UpdateFieldsTxFunc        func(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error
	UpdateStatusTxFunc        func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error
	UpdatePaymentStatusTxFunc func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.PaymentStatus) error
	DeleteFunc                func(ctx context.Context, id uuid.UUID) error
	StatusCountsFunc          func(ctx context.Context, artisanID uuid.UUID) (map[models.OrderStatus]int, error)
}

func (m *MockClientOrderStorage) CreateTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, order)
	}
	return nil
}

func (m *MockClientOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.ClientOrder, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrClientOrderNotFound
}

func (m *MockClientOrderStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClientOrder, error) {
	if m.GetForUpdateTxFunc != nil {
		return m.GetForUpdateTxFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockClientOrderStorage) List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page)
	}
	return nil, 0, nil
}

func (m *MockClientOrderStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error {
	if m.UpdateFieldsTxFunc != nil {
		return m.UpdateFieldsTxFunc(ctx, tx, order)
	}
	return nil
}

func (m *MockClientOrderStorage) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
	if m.UpdateStatusTxFunc != nil {
		return m.UpdateStatusTxFunc(ctx, tx, id, status)
	}
	return nil
}

func (m *MockClientOrderStorage) UpdatePaymentStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.PaymentStatus) error {
	if m.UpdatePaymentStatusTxFunc != nil {
		return m.UpdatePaymentStatusTxFunc(ctx, tx, id, status)
	}
	return nil
}

func (m *MockClientOrderStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockClientOrderStorage) StatusCounts(ctx context.Context, artisanID uuid.UUID) (map[models.OrderStatus]int, error) {
	if m.StatusCountsFunc != nil {
		return m.StatusCountsFunc(ctx, artisanID)
	}
	return map[models.OrderStatus]int{}, nil
}

// MockArtisanOrderStorage - мок хранилища заказов материалов.
type MockArtisanOrderStorage struct {
	CreateTxFunc       func(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error)
	GetForUpdateTxFunc func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ArtisanOrder, error)
	ListFunc           func(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error)
	UpdateFieldsTxFunc func(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error
	UpdateStatusTxFunc func(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *MockArtisanOrderStorage) CreateTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, order)
	}
	return nil
}

func (m *MockArtisanOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrArtisanOrderNotFound
}

func (m *MockArtisanOrderStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ArtisanOrder, error) {
	if m.GetForUpdateTxFunc != nil {
		return m.GetForUpdateTxFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockArtisanOrderStorage) List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page)
	}
	return nil, 0, nil
}

func (m *MockArtisanOrderStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error {
	if m.UpdateFieldsTxFunc != nil {
		return m.UpdateFieldsTxFunc(ctx, tx, order)
	}
	return nil
}

func (m *MockArtisanOrderStorage) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error {
	if m.UpdateStatusTxFunc != nil {
		return m.UpdateStatusTxFunc(ctx, tx, id, status)
	}
	return nil
}

func (m *MockArtisanOrderStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockHistoryStorage запоминает записи журнала в памяти.
type MockHistoryStorage struct {
	Rows          []*models.StatusHistory
	CreateTxErr   error
	ListByOrderFn func(ctx context.Context, orderType models.OrderType, orderID uuid.UUID) ([]*models.StatusHistory, error)
}

func (m *MockHistoryStorage) CreateTx(ctx context.Context, tx pgx.Tx, h *models.StatusHistory) error {
	if m.CreateTxErr != nil {
		return m.CreateTxErr
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	m.Rows = append(m.Rows, h)
	return nil
}

func (m *MockHistoryStorage) ListByOrder(ctx context.Context, orderType models.OrderType, orderID uuid.UUID) ([]*models.StatusHistory, error) {
	if m.ListByOrderFn != nil {
		return m.ListByOrderFn(ctx, orderType, orderID)
	}
	var out []*models.StatusHistory
	for _, h := range m.Rows {
		if h.OrderType == orderType && h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// MockPaymentStorage - журнал оплат в памяти. Записи, добавленные внутри
// неудачной транзакции, остаются в Payments: откат проверяется по вызовам.
type MockPaymentStorage struct {
	Payments    []*models.Payment
	CreateTxErr error
	SumErr      error
}

func (m *MockPaymentStorage) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	if m.CreateTxErr != nil {
		return m.CreateTxErr
	}
	m.Payments = append(m.Payments, p)
	return nil
}

func (m *MockPaymentStorage) SumByOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (decimal.Decimal, error) {
	if m.SumErr != nil {
		return decimal.Zero, m.SumErr
	}
	sum := decimal.Zero
	for _, p := range m.Payments {
		if p.OrderID == orderID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (m *MockPaymentStorage) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range m.Payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockRatingStorage - хранилище оценок в памяти с проверкой уникальности кортежа.
type MockRatingStorage struct {
	Ratings   map[uuid.UUID]*models.Rating
	CreateErr error
	// SkipExists заставляет Exists всегда возвращать false, чтобы проверить гонку на вставке.
	SkipExists bool
}

func NewMockRatingStorage() *MockRatingStorage {
	return &MockRatingStorage{Ratings: make(map[uuid.UUID]*models.Rating)}
}

func (m *MockRatingStorage) Create(ctx context.Context, r *models.Rating) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.exists(r.RaterID, r.RateeID, r.OrderID, r.OrderType) {
		return ErrDuplicateRating
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.Ratings[r.ID] = r
	return nil
}

func (m *MockRatingStorage) Exists(ctx context.Context, raterID, rateeID, orderID uuid.UUID, orderType models.OrderType) (bool, error) {
	if m.SkipExists {
		return false, nil
	}
	return m.exists(raterID, rateeID, orderID, orderType), nil
}

func (m *MockRatingStorage) exists(raterID, rateeID, orderID uuid.UUID, orderType models.OrderType) bool {
	for _, r := range m.Ratings {
		if r.RaterID == raterID && r.RateeID == rateeID && r.OrderID == orderID && r.OrderType == orderType {
			return true
		}
	}
	return false
}

func (m *MockRatingStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	r, ok := m.Ratings[id]
	if !ok {
		return nil, ErrRatingNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRatingStorage) Update(ctx context.Context, r *models.Rating) error {
	if _, ok := m.Ratings[r.ID]; !ok {
		return ErrRatingNotFound
	}
	cp := *r
	m.Ratings[r.ID] = &cp
	return nil
}

func (m *MockRatingStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Ratings[id]; !ok {
		return ErrRatingNotFound
	}
	delete(m.Ratings, id)
	return nil
}

func (m *MockRatingStorage) ListByRatee(ctx context.Context, rateeID uuid.UUID, page models.Page) ([]*models.Rating, int, error) {
	var all []*models.Rating
	for _, r := range m.Ratings {
		if r.RateeID == rateeID {
			all = append(all, r)
		}
	}
	page = page.Normalize()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *MockRatingStorage) ListByOrder(ctx context.Context, orderID uuid.UUID, orderType models.OrderType) ([]*models.Rating, error) {
	var out []*models.Rating
	for _, r := range m.Ratings {
		if r.OrderID == orderID && r.OrderType == orderType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRatingStorage) ScoreDistribution(ctx context.Context, rateeID uuid.UUID) (map[int]int, error) {
	dist := make(map[int]int)
	for _, r := range m.Ratings {
		if r.RateeID == rateeID {
			dist[r.Score]++
		}
	}
	return dist, nil
}

// MockProjectStorage - мок хранилища проектов. Без заданных функций работает в памяти.
type MockProjectStorage struct {
	Projects map[uuid.UUID]*models.Project

	CreateFunc         func(ctx context.Context, p *models.Project) error
	UpdateFieldsTxFunc func(ctx context.Context, tx pgx.Tx, p *models.Project) error
	ListFunc           func(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error)
}

func NewMockProjectStorage() *MockProjectStorage {
	return &MockProjectStorage{Projects: make(map[uuid.UUID]*models.Project)}
}

func (m *MockProjectStorage) Create(ctx context.Context, p *models.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.Projects[p.ID] = &cp
	return nil
}

func (m *MockProjectStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := m.Projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProjectStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error) {
	return m.GetByID(ctx, id)
}

func (m *MockProjectStorage) List(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page)
	}
	var out []*models.Project
	for _, p := range m.Projects {
		if filter.ClientID != uuid.Nil && p.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *MockProjectStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, p *models.Project) error {
	if m.UpdateFieldsTxFunc != nil {
		return m.UpdateFieldsTxFunc(ctx, tx, p)
	}
	if _, ok := m.Projects[p.ID]; !ok {
		return ErrProjectNotFound
	}
	cp := *p
	m.Projects[p.ID] = &cp
	return nil
}

func (m *MockProjectStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.Projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(m.Projects, id)
	return nil
}
