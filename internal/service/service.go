// Пакет service содержит бизнес-логику CMS: CRUD коллекций, переупорядочивание и настройки
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PortfolioCMS/internal/model"
)

// ErrValidation - входные данные отклонены; HTTP-слой отвечает 400
var ErrValidation = errors.New("validation failed")

// ErrPartialWrite - часть записей пакета позиций не применилась.
// Уже записанные позиции не откатываются
var ErrPartialWrite = errors.New("one or more position updates failed")

// validationf оборачивает сообщение в ErrValidation
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Cache определяет интерфейс кеша (Redis)
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) (int64, error)
}

// Publisher публикует доменные события (NATS)
type Publisher interface {
	PublishJSON(event any) error
}

// DefaultCacheTTL - время жизни записей кеша, если не задано иное
const DefaultCacheTTL = time.Minute

func itemKey(c model.Collection, id string) string {
	return fmt.Sprintf("%s:item:%s", c, id)
}

func listPrefix(c model.Collection) string {
	return string(c) + ":list:"
}

func listKey(c model.Collection, f model.ListFilter) string {
	return fmt.Sprintf("%s%d:%d:%s", listPrefix(c), f.Limit, f.Offset, f.Search)
}

const settingsKey = "settings"
