package dashboard

import (
	"context"
	"sync"

	"PortfolioCMS/internal/model"
)

// FetchFunc загружает текущий список коллекции с сервера
type FetchFunc func(ctx context.Context, collection model.Collection) ([]Row, error)

type queryEntry struct {
	rows  []Row
	stale bool
}

// QueryCache хранит последние загруженные списки по коллекциям.
// Invalidate помечает список устаревшим, перезагружает его и раздаёт подписчикам
type QueryCache struct {
	fetch FetchFunc

	mu      sync.Mutex
	entries map[model.Collection]*queryEntry
	subs    map[model.Collection]map[int]func([]Row)
	nextSub int
}

// NewQueryCache создаёт кэш поверх функции загрузки
func NewQueryCache(fetch FetchFunc) *QueryCache {
	return &QueryCache{
		fetch:   fetch,
		entries: make(map[model.Collection]*queryEntry),
		subs:    make(map[model.Collection]map[int]func([]Row)),
	}
}

// Get возвращает список из кэша, загружая его при отсутствии или устаревании
func (q *QueryCache) Get(ctx context.Context, collection model.Collection) ([]Row, error) {
	q.mu.Lock()
	e, ok := q.entries[collection]
	if ok && !e.stale {
		rows := cloneRows(e.rows)
		q.mu.Unlock()
		return rows, nil
	}
	q.mu.Unlock()
	return q.refetch(ctx, collection)
}

// Subscribe регистрирует получателя свежих списков коллекции; возвращает отписку
func (q *QueryCache) Subscribe(collection model.Collection, fn func([]Row)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.subs[collection] == nil {
		q.subs[collection] = make(map[int]func([]Row))
	}
	id := q.nextSub
	q.nextSub++
	q.subs[collection][id] = fn
	return func() {
		q.mu.Lock()
		delete(q.subs[collection], id)
		q.mu.Unlock()
	}
}

// Invalidate помечает список устаревшим и сразу перезагружает его.
// При ошибке загрузки список остаётся устаревшим до следующего Get
func (q *QueryCache) Invalidate(ctx context.Context, collection model.Collection) error {
	q.mu.Lock()
	if e, ok := q.entries[collection]; ok {
		e.stale = true
	}
	q.mu.Unlock()
	_, err := q.refetch(ctx, collection)
	return err
}

func (q *QueryCache) refetch(ctx context.Context, collection model.Collection) ([]Row, error) {
	rows, err := q.fetch(ctx, collection)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.entries[collection] = &queryEntry{rows: cloneRows(rows)}
	subs := make([]func([]Row), 0, len(q.subs[collection]))
	for _, fn := range q.subs[collection] {
		subs = append(subs, fn)
	}
	q.mu.Unlock()

	for _, fn := range subs {
		fn(cloneRows(rows))
	}
	return rows, nil
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r
		if r.Position != nil {
			p := *r.Position
			out[i].Position = &p
		}
	}
	return out
}
