package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, client_id, artisan_id, title, description, budget, location, category, images, status, progress, created_at, updated_at`

// PostgresProjectStorage хранит проекты клиентов.
type PostgresProjectStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresProjectStorage создаёт новый экземпляр PostgresProjectStorage.
func NewPostgresProjectStorage(pool *pgxpool.Pool) *PostgresProjectStorage {
	return &PostgresProjectStorage{pool: pool}
}

// Create сохраняет проект.
func (s *PostgresProjectStorage) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, client_id, artisan_id, title, description, budget, location, category, images, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		p.ID,
		p.ClientID,
		p.ArtisanID,
		p.Title,
		p.Description,
		p.Budget,
		p.Location,
		p.Category,
		p.Images,
		p.Status,
		p.Progress,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	return classifyError(err, "create project", nil, nil)
}

// GetByID возвращает проект.
func (s *PostgresProjectStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.get(ctx, s.pool, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

// GetForUpdateTx читает проект и блокирует строку до конца транзакции.
func (s *PostgresProjectStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error) {
	return s.get(ctx, tx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresProjectStorage) get(ctx context.Context, q querier, query string, id uuid.UUID) (*models.Project, error) {
	p, err := scanProject(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, "get project", ErrProjectNotFound, nil)
	}
	return p, nil
}

// List возвращает страницу проектов по фильтру, новые первыми, и общее количество.
func (s *PostgresProjectStorage) List(ctx context.Context, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error) {
	page = page.Normalize()
	where := projectWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("projects").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyError(err, "count projects", nil, nil)
	}

	query, args, err := psql.
		Select(projectColumns).
		From("projects").
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classifyError(err, "query projects", nil, nil)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, classifyError(err, "scan project", nil, nil)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterate projects", nil, nil)
	}

	return projects, total, nil
}

// UpdateFieldsTx сохраняет содержимое проекта в рамках транзакции. Статус и прогресс не меняются.
func (s *PostgresProjectStorage) UpdateFieldsTx(ctx context.Context, tx pgx.Tx, p *models.Project) error {
	query := `
		UPDATE projects
		SET artisan_id = $1, title = $2, description = $3, budget = $4, location = $5, category = $6,
		    images = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.ArtisanID,
		p.Title,
		p.Description,
		p.Budget,
		p.Location,
		p.Category,
		p.Images,
		p.ID,
	).Scan(&p.UpdatedAt)
	return classifyError(err, "update project", ErrProjectNotFound, nil)
}

// Delete удаляет проект.
func (s *PostgresProjectStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "delete project", nil, nil)
	}
	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func projectWhere(filter models.ProjectFilter) sq.And {
	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.ClientID != uuid.Nil {
		where = append(where, sq.Eq{"client_id": filter.ClientID})
	}
	if filter.ArtisanID != uuid.Nil {
		where = append(where, sq.Eq{"artisan_id": filter.ArtisanID})
	}
	if filter.Category != "" {
		where = append(where, sq.Eq{"category": filter.Category})
	}
	return where
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.ArtisanID,
		&p.Title,
		&p.Description,
		&p.Budget,
		&p.Location,
		&p.Category,
		&p.Images,
		&p.Status,
		&p.Progress,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
