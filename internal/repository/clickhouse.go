package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"PortfolioCMS/internal/model"
)

// ClickhouseRepo реализует пакетную запись журнала изменений в ClickHouse
type ClickhouseRepo struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClickhouseRepo создаёт новый репозиторий для ClickHouse
func NewClickhouseRepo(db *sql.DB, log *slog.Logger) *ClickhouseRepo {
	return &ClickhouseRepo{db: db, log: log}
}

// BatchInsertRecords записывает пакет записей журнала в таблицу position_events
func (r *ClickhouseRepo) BatchInsertRecords(ctx context.Context, records []model.AuditRecord) error {
	// clickhouse-go собирает блок из всех Exec внутри "транзакции"
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	r.log.Debug("clickhouse batch insert started", "records", len(records))
	query := `INSERT INTO position_events (EventType, Collection, ItemId, Position, Actor, EventTime) VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Type, string(rec.Collection), rec.ItemID,
			nullableInt32(rec.Position), rec.Actor, rec.At,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.log.Info("clickhouse batch inserted", "records", len(records))
	return nil
}

// nullableInt32 переводит *int в значение для колонки Nullable(Int32)
func nullableInt32(v *int) any {
	if v == nil {
		return nil
	}
	return int32(*v)
}
