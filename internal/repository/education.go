package repository

import (
	"context"
	"database/sql"
	"fmt"

	"PortfolioCMS/internal/model"
)

const educationColumns = `id, institution, degree, field, start_year, end_year, description, position, created_at, updated_at`

// EducationRepository реализует доступ к таблице education
type EducationRepository struct {
	db *sql.DB
}

// NewEducationRepository создает новый репозиторий образования
func NewEducationRepository(db *sql.DB) *EducationRepository {
	return &EducationRepository{db: db}
}

// CreateEducation добавляет запись в конец списка: position = max(position) + 1, для пустой таблицы 1.
// Максимум считается в том же INSERT, но без блокировки: два параллельных создания могут получить одну позицию
func (r *EducationRepository) CreateEducation(ctx context.Context, id string, in model.EducationInput) (*model.Education, error) {
	if in.Institution == "" {
		return nil, ErrEmptyInstitution
	}
	query := `INSERT INTO education(id, institution, degree, field, start_year, end_year, description, position)
		VALUES($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(position), 0) + 1 FROM education))
		RETURNING position, created_at, updated_at`
	e := model.Education{
		ID:          id,
		Institution: in.Institution,
		Degree:      in.Degree,
		Field:       in.Field,
		StartYear:   in.StartYear,
		EndYear:     in.EndYear,
		Description: in.Description,
	}
	err := r.db.QueryRowContext(ctx, query, id, in.Institution, in.Degree, in.Field, in.StartYear, in.EndYear, in.Description).
		Scan(&e.Position, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert education: %w", err)
	}
	return &e, nil
}

// GetEducation возвращает запись по id
func (r *EducationRepository) GetEducation(ctx context.Context, id string) (*model.Education, error) {
	query := `SELECT ` + educationColumns + ` FROM education WHERE id=$1`
	e, err := scanEducation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get education: %w", err)
	}
	return e, nil
}

// UpdateEducation обновляет редактируемые поля записи с блокировкой строки
func (r *EducationRepository) UpdateEducation(ctx context.Context, id string, in model.EducationInput) (*model.Education, error) {
	if in.Institution == "" {
		return nil, ErrEmptyInstitution
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	selectQuery := `SELECT ` + educationColumns + ` FROM education WHERE id=$1 FOR UPDATE`
	e, err := scanEducation(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select education for update: %w", err)
	}
	updateQuery := `UPDATE education SET institution=$1, degree=$2, field=$3, start_year=$4, end_year=$5, description=$6, updated_at=now()
		WHERE id=$7 RETURNING updated_at`
	err = tx.QueryRowContext(ctx, updateQuery, in.Institution, in.Degree, in.Field, in.StartYear, in.EndYear, in.Description, id).
		Scan(&e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update education: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	e.Institution = in.Institution
	e.Degree = in.Degree
	e.Field = in.Field
	e.StartYear = in.StartYear
	e.EndYear = in.EndYear
	e.Description = in.Description
	return e, nil
}

// DeleteEducation удаляет запись; дыры в позициях допустимы
func (r *EducationRepository) DeleteEducation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM education WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete education: %w", err)
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

// ListEducation возвращает страницу записей в порядке отображения и общее число подходящих строк
func (r *EducationRepository) ListEducation(ctx context.Context, f model.ListFilter) ([]model.Education, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM education WHERE ($1 = '' OR institution ILIKE '%' || $1 || '%')`
	if err := r.db.QueryRowContext(ctx, countQuery, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count education: %w", err)
	}
	listQuery := `SELECT ` + educationColumns + ` FROM education
		WHERE ($1 = '' OR institution ILIKE '%' || $1 || '%')
		ORDER BY position ASC NULLS LAST, created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, listQuery, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select education list: %w", err)
	}
	defer rows.Close()
	items := make([]model.Education, 0)
	for rows.Next() {
		e, err := scanEducation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan education: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate education: %w", err)
	}
	return items, total, nil
}

func scanEducation(row rowScanner) (*model.Education, error) {
	var e model.Education
	err := row.Scan(&e.ID, &e.Institution, &e.Degree, &e.Field, &e.StartYear, &e.EndYear, &e.Description, &e.Position, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
