package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/cache"
	"PortfolioCMS/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Store - CRUD одной упорядоченной коллекции
type Store[T any, I any] interface {
	Create(ctx context.Context, id string, in I, position *int) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, in I) (*T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f model.ListFilter) ([]T, int, error)
}

// Items реализует CRUD коллекции поверх Store:
// валидация, кеш страниц и записей, публикация событий.
// position меняется только через ReorderService
type Items[T any, I any] struct {
	spec  model.CollectionSpec
	store Store[T, I]
	cache Cache
	pub   Publisher
	log   *slog.Logger
	ttl   time.Duration
	newID func() string
	now   func() time.Time

	validate func(I) error
	input    func(*T) I
	position func(*T) *int
}

func newItems[T any, I any](spec model.CollectionSpec, store Store[T, I], c Cache, p Publisher, log *slog.Logger, ttl time.Duration) *Items[T, I] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Items[T, I]{
		spec:  spec,
		store: store,
		cache: c,
		pub:   p,
		log:   log.With("collection", string(spec.Name)),
		ttl:   ttl,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Collection возвращает имя коллекции
func (s *Items[T, I]) Collection() model.Collection {
	return s.spec.Name
}

// List возвращает страницу коллекции; сначала смотрит в кеш
func (s *Items[T, I]) List(ctx context.Context, f model.ListFilter) (any, error) {
	f = normalizeFilter(f)
	key := listKey(s.spec.Name, f)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var page model.Page[T]
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
		s.log.Warn("broken list cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache get failed", "key", key, logger.Err(err))
	}
	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page := &model.Page[T]{Items: items, Meta: model.PageMeta{Total: total, Limit: f.Limit, Offset: f.Offset}}
	s.setCache(ctx, key, page)
	return page, nil
}

// Get возвращает запись по id
func (s *Items[T, I]) Get(ctx context.Context, id string) (any, error) {
	key := itemKey(s.spec.Name, id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var item T
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
	}
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setCache(ctx, key, item)
	return item, nil
}

// createBody - позиция из тела запроса на создание, включая старые имена поля
type createBody struct {
	Position      *int `json:"position"`
	PriorityIndex *int `json:"priorityIndex"`
	OrderIndex    *int `json:"orderIndex"`
}

func (b createBody) value() *int {
	switch {
	case b.Position != nil:
		return b.Position
	case b.PriorityIndex != nil:
		return b.PriorityIndex
	default:
		return b.OrderIndex
	}
}

// Create создаёт запись из JSON-тела.
// Для коллекций с AppendOnCreate позиция из тела игнорируется и считается базой
func (s *Items[T, I]) Create(ctx context.Context, body []byte, actor string) (any, error) {
	var in I
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, validationf("invalid body: %v", err)
	}
	var pos createBody
	if err := json.Unmarshal(body, &pos); err != nil {
		return nil, validationf("invalid position: %v", err)
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}
	var position *int
	if !s.spec.AppendOnCreate {
		position = pos.value()
		if position != nil && *position < 0 {
			return nil, validationf("position must not be negative")
		}
	}
	id := s.newID()
	item, err := s.store.Create(ctx, id, in, position)
	if err != nil {
		return nil, err
	}
	s.invalidateList(ctx)
	s.publish(model.EventCreated, id, item, actor)
	return item, nil
}

// Update применяет JSON Patch или merge patch к редактируемым полям записи
func (s *Items[T, I]) Update(ctx context.Context, id string, patch []byte, contentType, actor string) (any, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(s.input(current))
	if err != nil {
		return nil, err
	}
	patched, err := applyPatch(doc, patch, contentType)
	if err != nil {
		return nil, err
	}
	var in I
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, validationf("patched document is invalid: %v", err)
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}
	item, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidateItem(ctx, id)
	s.publish(model.EventUpdated, id, item, actor)
	return item, nil
}

// Delete удаляет запись; позиции остальных не уплотняются
func (s *Items[T, I]) Delete(ctx context.Context, id, actor string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateItem(ctx, id)
	s.publish(model.EventDeleted, id, nil, actor)
	return nil
}

func (s *Items[T, I]) setCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn("cache set failed", "key", key, logger.Err(err))
	}
}

func (s *Items[T, I]) invalidateList(ctx context.Context) {
	if _, err := s.cache.InvalidatePrefix(ctx, listPrefix(s.spec.Name)); err != nil {
		s.log.Warn("list cache invalidation failed", logger.Err(err))
	}
}

func (s *Items[T, I]) invalidateItem(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, itemKey(s.spec.Name, id)); err != nil {
		s.log.Warn("item cache invalidation failed", "id", id, logger.Err(err))
	}
	s.invalidateList(ctx)
}

// publish отправляет событие; ошибка брокера не отменяет уже выполненную запись
func (s *Items[T, I]) publish(eventType, id string, item *T, actor string) {
	event := model.EntityEvent{
		Type:       eventType,
		Collection: s.spec.Name,
		ID:         id,
		Actor:      actor,
		At:         s.now().UTC(),
	}
	if item != nil {
		event.Position = s.position(item)
		if data, err := json.Marshal(item); err == nil {
			event.Payload = data
		}
	}
	if err := s.pub.PublishJSON(event); err != nil {
		s.log.Error("failed to publish entity event", "type", eventType, "id", id, logger.Err(err))
	}
}

func normalizeFilter(f model.ListFilter) model.ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
