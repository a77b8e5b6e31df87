package storage

import (
	"context"
	"fmt"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ratingColumns = `id, score, comment, rater_id, ratee_id, rater_type, ratee_type, order_id, order_type, created_at, updated_at`

// PostgresRatingStorage хранит оценки.
type PostgresRatingStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresRatingStorage создаёт новый экземпляр PostgresRatingStorage.
func NewPostgresRatingStorage(pool *pgxpool.Pool) *PostgresRatingStorage {
	return &PostgresRatingStorage{pool: pool}
}

// Create сохраняет оценку. Уникальное ограничение кортежа - окончательная защита от дублей.
func (s *PostgresRatingStorage) Create(ctx context.Context, r *models.Rating) error {
	query := `
		INSERT INTO ratings (id, score, comment, rater_id, ratee_id, rater_type, ratee_type, order_id, order_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		r.ID,
		r.Score,
		r.Comment,
		r.RaterID,
		r.RateeID,
		r.RaterType,
		r.RateeType,
		r.OrderID,
		r.OrderType,
	).Scan(&r.CreatedAt, &r.UpdatedAt)

	return classifyError(err, "create rating", nil, ErrDuplicateRating)
}

// Exists проверяет, оставлена ли уже оценка для кортежа.
func (s *PostgresRatingStorage) Exists(ctx context.Context, raterID, rateeID, orderID uuid.UUID, orderType models.OrderType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings
			WHERE rater_id = $1 AND ratee_id = $2 AND order_id = $3 AND order_type = $4
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, raterID, rateeID, orderID, orderType).Scan(&exists); err != nil {
		return false, classifyError(err, "check rating exists", nil, nil)
	}
	return exists, nil
}

// GetByID возвращает оценку.
func (s *PostgresRatingStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	r, err := scanRating(s.pool.QueryRow(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id))
	if err != nil {
		return nil, classifyError(err, "get rating", ErrRatingNotFound, nil)
	}
	return r, nil
}

// Update сохраняет оценку и комментарий.
func (s *PostgresRatingStorage) Update(ctx context.Context, r *models.Rating) error {
	query := `
		UPDATE ratings
		SET score = $1, comment = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := s.pool.QueryRow(ctx, query, r.Score, r.Comment, r.ID).Scan(&r.UpdatedAt)
	return classifyError(err, "update rating", ErrRatingNotFound, nil)
}

// Delete удаляет оценку.
func (s *PostgresRatingStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "delete rating", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// ListByRatee возвращает страницу оценок пользователя (новые первыми) и их общее количество.
func (s *PostgresRatingStorage) ListByRatee(ctx context.Context, rateeID uuid.UUID, page models.Page) ([]*models.Rating, int, error) {
	page = page.Normalize()

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings WHERE ratee_id = $1`, rateeID).Scan(&total); err != nil {
		return nil, 0, classifyError(err, "count ratings", nil, nil)
	}

	query, args, err := psql.
		Select(ratingColumns).
		From("ratings").
		Where("ratee_id = ?", rateeID).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build ratings query: %w", err)
	}

	list, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByOrder возвращает оценки, оставленные по заказу.
func (s *PostgresRatingStorage) ListByOrder(ctx context.Context, orderID uuid.UUID, orderType models.OrderType) ([]*models.Rating, error) {
	return s.query(ctx, `
		SELECT `+ratingColumns+`
		FROM ratings
		WHERE order_id = $1 AND order_type = $2
		ORDER BY created_at DESC
	`, orderID, orderType)
}

// ScoreDistribution возвращает число оценок пользователя по каждому баллу.
// Это полный набор оценок в агрегированном виде, по нему пересчитывается средняя.
func (s *PostgresRatingStorage) ScoreDistribution(ctx context.Context, rateeID uuid.UUID) (map[int]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT score, COUNT(*)
		FROM ratings
		WHERE ratee_id = $1
		GROUP BY score
	`, rateeID)
	if err != nil {
		return nil, classifyError(err, "query score distribution", nil, nil)
	}
	defer rows.Close()

	dist := make(map[int]int)
	for rows.Next() {
		var score, n int
		if err := rows.Scan(&score, &n); err != nil {
			return nil, classifyError(err, "scan score distribution", nil, nil)
		}
		dist[score] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate score distribution", nil, nil)
	}

	return dist, nil
}

func (s *PostgresRatingStorage) query(ctx context.Context, query string, args ...any) ([]*models.Rating, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "query ratings", nil, nil)
	}
	defer rows.Close()

	var list []*models.Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, classifyError(err, "scan rating", nil, nil)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate ratings", nil, nil)
	}

	return list, nil
}

func scanRating(row pgx.Row) (*models.Rating, error) {
	var r models.Rating
	err := row.Scan(
		&r.ID,
		&r.Score,
		&r.Comment,
		&r.RaterID,
		&r.RateeID,
		&r.RaterType,
		&r.RateeType,
		&r.OrderID,
		&r.OrderType,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
