package services

import (
	"context"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxManager выполняет функцию в одной транзакции хранилища.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// UserStorage определяет интерфейс для работы с пользователями.
type UserStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateAverageRating(ctx context.Context, id uuid.UUID, average float64) error
	TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error)
}

// ClientOrderStorage определяет интерфейс для работы с клиентскими заказами.
type ClientOrderStorage interface {
	CreateTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClientOrder, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClientOrder, error)
	List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ClientOrder, int, error)
	UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ClientOrder) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error
	UpdatePaymentStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.PaymentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	StatusCounts(ctx context.Context, artisanID uuid.UUID) (map[models.OrderStatus]int, error)
}

// ArtisanOrderStorage определяет интерфейс для работы с заказами материалов.
type ArtisanOrderStorage interface {
	CreateTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ArtisanOrder, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ArtisanOrder, error)
	List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]*models.ArtisanOrder, int, error)
	UpdateFieldsTx(ctx context.Context, tx pgx.Tx, order *models.ArtisanOrder) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryStorage определяет интерфейс журнала статусов.
type HistoryStorage interface {
	CreateTx(ctx context.Context, tx pgx.Tx, h *models.StatusHistory) error
	ListByOrder(ctx context.Context, orderType models.OrderType, orderID uuid.UUID) ([]*models.StatusHistory, error)
}

// PaymentStorage определяет интерфейс журнала оплат.
type PaymentStorage interface {
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	SumByOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (decimal.Decimal, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error)
}

// RatingStorage определяет интерфейс для работы с оценками.
type RatingStorage interface {
	Create(ctx context.Context, r *models.Rating) error
	Exists(ctx context.Context, raterID, rateeID, orderID uuid.UUID, orderType models.OrderType) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rating, error)
	Update(ctx context.Context, r *models.Rating) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRatee(ctx context.Context, rateeID uuid.UUID, page models.Page) ([]*models.Rating, int, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID, orderType models.OrderType) ([]*models.Rating, error)
	ScoreDistribution(ctx context.Context, rateeID uuid.UUID) (map[int]int, error)
}

// RatingStatsCache кэширует сводки оценок. Промах не является ошибкой.
// Get при промахе возвращает версию записи, Set сохраняет сводку только если версия не изменилась,
// Invalidate увеличивает версию. Так сводка, посчитанная до пересчёта, не попадает в кэш после него.
type RatingStatsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (stats *models.RatingStats, version int64, ok bool)
	Set(ctx context.Context, userID uuid.UUID, version int64, stats *models.RatingStats)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// ProjectStorage определяет интерфейс для работы с проектами клиентов.
type ProjectStorage interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error)
	UpdateFieldsTx(ctx context.Context, tx pgx.Tx, p *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher публикует доменные события после фиксации транзакции.
type EventPublisher interface {
	PublishToUsers(ctx context.Context, userIDs []uuid.UUID, event notify.Event, payload any) error
}
