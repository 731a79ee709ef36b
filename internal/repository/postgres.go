package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"PortfolioCMS/internal/model"
)

// ErrNotFound возвращается при отсутствии записи
var ErrNotFound = errors.New("record not found")

// ErrEmptyTitle возвращается при попытке сохранить проект без названия
var ErrEmptyTitle = &emptyFieldError{field: "title"}

// ErrEmptyInstitution возвращается при попытке сохранить образование без учебного заведения
var ErrEmptyInstitution = &emptyFieldError{field: "institution"}

type emptyFieldError struct {
	field string
}

func (e *emptyFieldError) Error() string {
	return e.field + " cannot be empty"
}

func (e *emptyFieldError) Is(target error) bool {
	return target != nil && target.Error() == e.Error()
}

const projectColumns = `id, title, description, link, image_url, featured, position, created_at, updated_at`

// ProjectRepository реализует доступ к таблице projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository создает новый репозиторий проектов
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject добавляет новый проект.
// position берётся от вызывающего как есть; если nil - срабатывает значение по умолчанию 0
func (r *ProjectRepository) CreateProject(ctx context.Context, id string, in model.ProjectInput, position *int) (*model.Project, error) {
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	query := `INSERT INTO projects(id, title, description, link, image_url, featured, position)
		VALUES($1, $2, $3, $4, $5, $6, COALESCE($7, 0))
		RETURNING position, created_at, updated_at`
	p := model.Project{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Link:        in.Link,
		ImageURL:    in.ImageURL,
		Featured:    in.Featured,
	}
	err := r.db.QueryRowContext(ctx, query, id, in.Title, in.Description, in.Link, in.ImageURL, in.Featured, position).
		Scan(&p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return &p, nil
}

// GetProject возвращает проект по id
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// UpdateProject обновляет редактируемые поля проекта с блокировкой строки.
// position здесь не меняется никогда
func (r *ProjectRepository) UpdateProject(ctx context.Context, id string, in model.ProjectInput) (*model.Project, error) {
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	// выборка с блокировкой
	selectQuery := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1 FOR UPDATE`
	p, err := scanProject(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select project for update: %w", err)
	}
	updateQuery := `UPDATE projects SET title=$1, description=$2, link=$3, image_url=$4, featured=$5, updated_at=now()
		WHERE id=$6 RETURNING updated_at`
	err = tx.QueryRowContext(ctx, updateQuery, in.Title, in.Description, in.Link, in.ImageURL, in.Featured, id).
		Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Link = in.Link
	p.ImageURL = in.ImageURL
	p.Featured = in.Featured
	return p, nil
}

// DeleteProject удаляет строку проекта. Позиции остальных строк не уплотняются
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProjects возвращает страницу проектов в порядке отображения и общее число подходящих строк
func (r *ProjectRepository) ListProjects(ctx context.Context, f model.ListFilter) ([]model.Project, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM projects WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')`
	if err := r.db.QueryRowContext(ctx, countQuery, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}
	listQuery := `SELECT ` + projectColumns + ` FROM projects
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		ORDER BY position ASC NULLS LAST, created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, listQuery, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select projects list: %w", err)
	}
	defer rows.Close()
	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, total, nil
}

// rowScanner - общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Link, &p.ImageURL, &p.Featured, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
