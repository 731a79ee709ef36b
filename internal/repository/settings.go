package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"PortfolioCMS/internal/model"
)

// SettingsRepository реализует доступ к таблице settings (ключ-значение)
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает репозиторий настроек
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ListSettings возвращает все строки таблицы, включая неизвестные ключи
func (r *SettingsRepository) ListSettings(ctx context.Context) ([]model.SettingRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}
	defer rows.Close()
	var out []model.SettingRow
	for rows.Next() {
		var s model.SettingRow
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}
	return out, nil
}

// UpsertSettings записывает набор ключей в одной транзакции
func (r *SettingsRepository) UpsertSettings(ctx context.Context, values map[string]string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	// ключи по порядку, чтобы блокировки брались одинаково
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	query := `INSERT INTO settings(key, value, updated_at) VALUES($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, k, values[k], at); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
