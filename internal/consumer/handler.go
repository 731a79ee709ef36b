package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

// maxBatches - сколько пакетов буфер держит при недоступном ClickHouse,
// сверх этого самые старые строки отбрасываются
const maxBatches = 100

// Repo - пакетная запись журнала в ClickHouse
type Repo interface {
	BatchInsertRecords(ctx context.Context, records []model.AuditRecord) error
}

// Consumer переводит события CMS из NATS в строки журнала и пишет их пакетами.
// Пакет уходит в ClickHouse, когда в буфере набирается batchSize строк.
// Неудачный пакет возвращается в начало буфера и уходит со следующей отправкой
type Consumer struct {
	repo      Repo
	log       *slog.Logger
	batchSize int
	records   []model.AuditRecord
	mu        sync.Mutex
}

// NewConsumer создаёт Consumer с указанным репозиторием и размером пакета
func NewConsumer(repo Repo, batchSize int, log *slog.Logger) *Consumer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Consumer{repo: repo, log: log, batchSize: batchSize, records: make([]model.AuditRecord, 0, batchSize)}
}

// HandleMessage разбирает сообщение, добавляет строки в буфер и при заполнении сбрасывает его
func (c *Consumer) HandleMessage(ctx context.Context, data []byte) error {
	records, err := decode(data)
	if err != nil {
		return err
	}
	c.log.Debug("event received", "records", len(records))
	c.mu.Lock()
	c.records = append(c.records, records...)
	if len(c.records) < c.batchSize {
		c.mu.Unlock()
		return nil
	}
	batch := c.take()
	c.mu.Unlock()
	return c.send(ctx, batch)
}

// Flush отправляет все накопленные строки, если они есть
func (c *Consumer) Flush(ctx context.Context) error {
	c.mu.Lock()
	if len(c.records) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.take()
	c.mu.Unlock()
	return c.send(ctx, batch)
}

// Pending возвращает число строк, ждущих отправки
func (c *Consumer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Consumer) send(ctx context.Context, batch []model.AuditRecord) error {
	err := c.repo.BatchInsertRecords(ctx, batch)
	if err == nil {
		return nil
	}
	c.mu.Lock()
	c.records = append(batch, c.records...)
	dropped := 0
	if limit := c.batchSize * maxBatches; len(c.records) > limit {
		dropped = len(c.records) - limit
		c.records = c.records[dropped:]
	}
	pending := len(c.records)
	c.mu.Unlock()
	if dropped > 0 {
		c.log.Error("audit buffer overflow, records dropped", "dropped", dropped, logger.Err(err))
	}
	c.log.Warn("batch insert failed, records requeued", "records", len(batch), "pending", pending, logger.Err(err))
	return err
}

// take забирает буфер; вызывается под mu
func (c *Consumer) take() []model.AuditRecord {
	batch := make([]model.AuditRecord, len(c.records))
	copy(batch, c.records)
	c.records = c.records[:0]
	return batch
}

// decode превращает событие в строки журнала: пакет позиций даёт строку на каждую пару
func decode(data []byte) ([]model.AuditRecord, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	switch head.Type {
	case model.EventReordered:
		var e model.PositionEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode position event: %w", err)
		}
		out := make([]model.AuditRecord, 0, len(e.Items))
		for _, it := range e.Items {
			pos := it.Position
			out = append(out, model.AuditRecord{
				Type:       e.Type,
				Collection: e.Collection,
				ItemID:     it.ID,
				Position:   &pos,
				Actor:      e.Actor,
				At:         e.AppliedAt,
			})
		}
		return out, nil
	case model.EventCreated, model.EventUpdated, model.EventDeleted, model.EventSettings:
		var e model.EntityEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode entity event: %w", err)
		}
		return []model.AuditRecord{{
			Type:       e.Type,
			Collection: e.Collection,
			ItemID:     e.ID,
			Position:   e.Position,
			Actor:      e.Actor,
			At:         e.At,
		}}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
}
