package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationColumns = `id, user_id, event, content, status, delivered_at, created_at`

// PostgresNotificationStorage хранит уведомления до и после доставки.
type PostgresNotificationStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationStorage создаёт новый экземпляр PostgresNotificationStorage.
func NewPostgresNotificationStorage(pool *pgxpool.Pool) *PostgresNotificationStorage {
	return &PostgresNotificationStorage{pool: pool}
}

// CreateBatch сохраняет уведомления одной транзакцией: либо все, либо ни одного.
func (s *PostgresNotificationStorage) CreateBatch(ctx context.Context, list []*models.Notification) error {
	if len(list) == 0 {
		return nil
	}

	query := `
		INSERT INTO notifications (id, user_id, event, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	return WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, n := range list {
			if n.ID == uuid.Nil {
				n.ID = uuid.New()
			}
			if n.Status == "" {
				n.Status = models.NotificationUnread
			}
			err := tx.QueryRow(ctx, query, n.ID, n.UserID, n.Event, n.Content, n.Status).Scan(&n.CreatedAt)
			if err != nil {
				return classifyError(err, "create notification", nil, nil)
			}
		}
		return nil
	})
}

// MarkDelivered отмечает уведомления доставленными в реальном времени.
func (s *PostgresNotificationStorage) MarkDelivered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE notifications SET delivered_at = NOW() WHERE id = ANY($1) AND delivered_at IS NULL`, ids)
	return classifyError(err, "mark notifications delivered", nil, nil)
}

// ListByUser возвращает страницу уведомлений пользователя и их общее количество.
func (s *PostgresNotificationStorage) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page models.Page) ([]*models.Notification, int, error) {
	page = page.Normalize()

	base := psql.Select().From("notifications").Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("status = ?", models.NotificationUnread)
	}

	countQuery, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError(err, "count notifications", nil, nil)
	}

	query, args, err := base.
		Column(notificationColumns).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	list, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListUndelivered возвращает недоставленные уведомления указанных пользователей, созданные
// до createdBefore, старые первыми.
func (s *PostgresNotificationStorage) ListUndelivered(ctx context.Context, userIDs []uuid.UUID, createdBefore time.Time, limit int) ([]*models.Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ANY($1) AND delivered_at IS NULL AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`, userIDs, createdBefore, limit)
}

// MarkRead отмечает уведомление прочитанным. Чужое уведомление считается отсутствующим.
func (s *PostgresNotificationStorage) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `UPDATE notifications SET status = $1 WHERE id = $2 AND user_id = $3`,
		models.NotificationRead, id, userID)
	if err != nil {
		return classifyError(err, "mark notification read", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными и возвращает их число.
func (s *PostgresNotificationStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.pool.Exec(ctx, `UPDATE notifications SET status = $1 WHERE user_id = $2 AND status = $3`,
		models.NotificationRead, userID, models.NotificationUnread)
	if err != nil {
		return 0, classifyError(err, "mark all notifications read", nil, nil)
	}
	return result.RowsAffected(), nil
}

func (s *PostgresNotificationStorage) query(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "query notifications", nil, nil)
	}
	defer rows.Close()

	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Event, &n.Content, &n.Status, &n.DeliveredAt, &n.CreatedAt); err != nil {
			return nil, classifyError(err, "scan notification", nil, nil)
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate notifications", nil, nil)
	}

	return list, nil
}
