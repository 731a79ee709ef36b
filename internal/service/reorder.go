package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

// PositionWriter пишет позиции строк коллекции
type PositionWriter interface {
	UpdatePosition(ctx context.Context, table, id string, position int, at time.Time) (int64, error)
	UpdatePositionsTx(ctx context.Context, table string, updates []model.PositionUpdate, at time.Time) (int64, error)
}

// ReorderResult - итог применения пакета
type ReorderResult struct {
	Requested int   `json:"requested"`
	Applied   int64 `json:"applied"`
}

// ReorderOptions настраивают запись пакета позиций
type ReorderOptions struct {
	// Concurrency ограничивает число одновременных UPDATE одного пакета
	Concurrency int
	// Atomic включает запись всего пакета в одной транзакции
	Atomic bool
}

// ReorderService применяет пакеты (id, position) к упорядоченным коллекциям.
// По умолчанию каждая пара пишется независимым UPDATE параллельно с остальными:
// упавшая запись не отменяет и не откатывает соседние
type ReorderService struct {
	writer PositionWriter
	cache  Cache
	pub    Publisher
	log    *slog.Logger
	opts   ReorderOptions
	now    func() time.Time
}

// NewReorderService создаёт сервис переупорядочивания
func NewReorderService(w PositionWriter, c Cache, p Publisher, log *slog.Logger, opts ReorderOptions) *ReorderService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &ReorderService{writer: w, cache: c, pub: p, log: log, opts: opts, now: time.Now}
}

// Reorder проверяет и применяет пакет позиций коллекции.
// Пустой пакет - успешный no-op без записей
func (s *ReorderService) Reorder(ctx context.Context, collection string, items []model.PositionUpdate, actor string) (*ReorderResult, error) {
	spec, err := model.LookupCollection(collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validateBatch(items); err != nil {
		return nil, err
	}
	res := &ReorderResult{Requested: len(items)}
	if len(items) == 0 {
		return res, nil
	}
	at := s.now().UTC()
	log := s.log.With("collection", collection, "items", len(items))

	if s.opts.Atomic {
		n, err := s.writer.UpdatePositionsTx(ctx, spec.Table, items, at)
		if err != nil {
			log.Error("reorder transaction failed", logger.Err(err))
			return nil, fmt.Errorf("reorder transaction failed: %w", err)
		}
		res.Applied = n
	} else {
		applied, err := s.applyIndependent(ctx, spec.Table, items, at, log)
		res.Applied = applied
		if err != nil {
			// часть строк уже изменилась: старые страницы кеша неверны
			if applied > 0 {
				s.invalidate(ctx, spec.Name, items)
			}
			return res, err
		}
	}

	s.invalidate(ctx, spec.Name, items)
	event := model.PositionEvent{
		Type:       model.EventReordered,
		Collection: spec.Name,
		Items:      items,
		Actor:      actor,
		AppliedAt:  at,
	}
	if err := s.pub.PublishJSON(event); err != nil {
		log.Error("failed to publish position event", logger.Err(err))
	}
	log.Info("reorder applied", "applied", res.Applied)
	return res, nil
}

// applyIndependent пишет пары параллельно. errgroup без WithContext:
// ошибка одной записи не отменяет остальные, Wait дожидается всех
func (s *ReorderService) applyIndependent(ctx context.Context, table string, items []model.PositionUpdate, at time.Time, log *slog.Logger) (int64, error) {
	// запросы уже отправлены в базу, обрыв клиента их не отменяет
	ctx = context.WithoutCancel(ctx)
	var (
		g       errgroup.Group
		applied atomic.Int64
		failed  atomic.Int64
	)
	g.SetLimit(s.opts.Concurrency)
	for _, it := range items {
		it := it
		g.Go(func() error {
			n, err := s.writer.UpdatePosition(ctx, table, it.ID, it.Position, at)
			if err != nil {
				failed.Add(1)
				log.Warn("position update failed", "id", it.ID, "position", it.Position, logger.Err(err))
				return err
			}
			applied.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return applied.Load(), fmt.Errorf("%w: %d of %d failed: %v", ErrPartialWrite, failed.Load(), len(items), err)
	}
	return applied.Load(), nil
}

// invalidate сбрасывает страницы списка и записи пакета: в них лежит старая position
func (s *ReorderService) invalidate(ctx context.Context, c model.Collection, items []model.PositionUpdate) {
	if _, err := s.cache.InvalidatePrefix(ctx, listPrefix(c)); err != nil {
		s.log.Warn("list cache invalidation failed", "collection", string(c), logger.Err(err))
	}
	for _, it := range items {
		if err := s.cache.Invalidate(ctx, itemKey(c, it.ID)); err != nil {
			s.log.Warn("item cache invalidation failed", "collection", string(c), "id", it.ID, logger.Err(err))
		}
	}
}

// validateBatch: непустые уникальные id и неотрицательные позиции
func validateBatch(items []model.PositionUpdate) error {
	seen := make(map[string]struct{}, len(items))
	var errs []error
	for i, it := range items {
		if it.ID == "" {
			errs = append(errs, fmt.Errorf("items[%d]: id is required", i))
			continue
		}
		if it.Position < 0 {
			errs = append(errs, fmt.Errorf("items[%d]: position must not be negative", i))
		}
		if _, dup := seen[it.ID]; dup {
			errs = append(errs, fmt.Errorf("items[%d]: duplicate id %s", i, it.ID))
		}
		seen[it.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}
