package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

// Mutator запускает мутацию переупорядочивания
type Mutator interface {
	Run(ctx context.Context, collection model.Collection, items []model.PositionUpdate) error
}

// ListController держит отображаемый порядок коллекции и превращает
// перетаскивание в пакет позиций для всех видимых строк
type ListController struct {
	spec     model.CollectionSpec
	mutation Mutator
	log      *slog.Logger

	mu      sync.Mutex
	rows    []Row
	gesture *Gesture
	wg      sync.WaitGroup
}

func NewListController(spec model.CollectionSpec, mutation Mutator, log *slog.Logger) *ListController {
	return &ListController{spec: spec, mutation: mutation, log: log}
}

// Hydrate заменяет отображаемый список данными с сервера
func (c *ListController) Hydrate(rows []Row) {
	c.mu.Lock()
	c.rows = cloneRows(rows)
	c.mu.Unlock()
}

// Rows возвращает копию отображаемого списка
func (c *ListController) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRows(c.rows)
}

// Drag начинает жест для строки с указанным id
func (c *ListController) Drag(id string) (*Gesture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture != nil {
		if s := c.gesture.State(); s == Dragging || s == Dropped {
			return nil, fmt.Errorf("drag of %q already in progress", c.gesture.ID)
		}
	}
	from := c.indexOf(id)
	if from < 0 {
		return nil, fmt.Errorf("row %q is not displayed", id)
	}
	g := newGesture(id, from)
	if err := g.to(Dragging); err != nil {
		return nil, err
	}
	c.gesture = g
	return g, nil
}

// Drop завершает жест на позиции to. Строка ищется по id заново: между Drag и Drop
// список мог перезагрузиться. Если позиция не изменилась,
// жест возвращается в Idle без запроса и Drop возвращает nil пакет.
// Неверный индекс или пропавшая строка тоже возвращают жест в Idle.
// Иначе порядок меняется сразу, а мутация уходит в фоне без ожидания
func (c *ListController) Drop(g *Gesture, to int) ([]model.PositionUpdate, error) {
	c.mu.Lock()
	if to < 0 || to >= len(c.rows) {
		c.mu.Unlock()
		_ = g.to(Idle)
		return nil, fmt.Errorf("drop index %d out of range [0, %d)", to, len(c.rows))
	}
	from := c.indexOf(g.ID)
	if from < 0 {
		c.mu.Unlock()
		_ = g.to(Idle)
		return nil, fmt.Errorf("row %q is no longer displayed", g.ID)
	}
	if to == from {
		c.mu.Unlock()
		return nil, g.to(Idle)
	}
	if err := g.to(Dropped); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.rows = MoveItem(c.rows, from, to)
	batch := AssignPositions(c.rows, c.spec.PositionBase)
	for i := range c.rows {
		p := batch[i].Position
		c.rows[i].Position = &p
	}
	_ = g.to(Reordering)
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		err := c.mutation.Run(context.Background(), c.spec.Name, batch)
		if err != nil {
			c.log.Warn("reorder failed", "collection", c.spec.Name, logger.Err(err))
		}
		g.finish(err)
	}()
	return batch, nil
}

// Cancel прерывает перетаскивание без изменения порядка
func (c *ListController) Cancel(g *Gesture) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return g.to(Idle)
}

func (c *ListController) indexOf(id string) int {
	for i, r := range c.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Wait ждёт завершения всех запущенных мутаций
func (c *ListController) Wait() {
	c.wg.Wait()
}

// MoveItem возвращает новый срез, в котором элемент from перенесён на место to
func MoveItem[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{items[from]}, out[to:]...)...)
	return out
}

// AssignPositions нумерует все строки подряд начиная с base
func AssignPositions(rows []Row, base int) []model.PositionUpdate {
	out := make([]model.PositionUpdate, len(rows))
	for i, r := range rows {
		out[i] = model.PositionUpdate{ID: r.ID, Position: i + base}
	}
	return out
}
