package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"PortfolioCMS/internal/model"
)

// OrderRepository пишет колонку position упорядоченных коллекций
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает репозиторий позиций
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// UpdatePosition записывает позицию одной строки и время изменения.
// Возвращает число затронутых строк: 0 для неизвестного id, это не ошибка
func (r *OrderRepository) UpdatePosition(ctx context.Context, table, id string, position int, at time.Time) (int64, error) {
	query, err := updatePositionQuery(table)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, position, at, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update position of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// UpdatePositionsTx применяет весь пакет в одной транзакции: либо все позиции, либо ни одной
func (r *OrderRepository) UpdatePositionsTx(ctx context.Context, table string, updates []model.PositionUpdate, at time.Time) (int64, error) {
	query, err := updatePositionQuery(table)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	var total int64
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.Position, at, u.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update position of %s: %w", u.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

// updatePositionQuery строит UPDATE только для таблиц известных коллекций
func updatePositionQuery(table string) (string, error) {
	for _, c := range model.Collections() {
		if c.Table == table {
			return `UPDATE ` + pq.QuoteIdentifier(table) + ` SET position=$1, updated_at=$2 WHERE id=$3`, nil
		}
	}
	return "", fmt.Errorf("table %q is not an ordered collection", table)
}
