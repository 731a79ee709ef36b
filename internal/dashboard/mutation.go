package dashboard

import (
	"context"
	"errors"

	"PortfolioCMS/internal/model"
)

// FailedToUpdateOrder - сообщение об ошибке, когда сервер не прислал своего
const FailedToUpdateOrder = "Failed to update order"

// Reorderer отправляет пакет позиций на сервер
type Reorderer interface {
	Reorder(ctx context.Context, collection model.Collection, items []model.PositionUpdate) (string, error)
}

// Invalidator сбрасывает закэшированный список коллекции
type Invalidator interface {
	Invalidate(ctx context.Context, collection model.Collection) error
}

// ReorderMutation оборачивает вызов переупорядочивания уведомлениями.
// После ошибки локальный порядок не откатывается: его поправит следующая загрузка списка
type ReorderMutation struct {
	api    Reorderer
	cache  Invalidator
	notify Notifier
}

func NewReorderMutation(api Reorderer, cache Invalidator, notify Notifier) *ReorderMutation {
	return &ReorderMutation{api: api, cache: cache, notify: notify}
}

// Run отправляет пакет и при успехе инвалидирует список коллекции
func (m *ReorderMutation) Run(ctx context.Context, collection model.Collection, items []model.PositionUpdate) error {
	m.notify.Pending("Updating order...")
	msg, err := m.api.Reorder(ctx, collection, items)
	if err != nil {
		m.notify.Failure(failureMessage(err))
		return err
	}
	if msg == "" {
		msg = "Order updated"
	}
	m.notify.Success(msg)
	return m.cache.Invalidate(ctx, collection)
}

func failureMessage(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return FailedToUpdateOrder
	}
}
