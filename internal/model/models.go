package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPositionRequired - в паре пакета нет ни position, ни старого имени поля
var ErrPositionRequired = errors.New("position is required")

// Project представляет проект портфолио (таблица projects)
type Project struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Link        *string   `db:"link" json:"link,omitempty"`
	ImageURL    *string   `db:"image_url" json:"imageUrl,omitempty"`
	Featured    bool      `db:"featured" json:"featured"`
	Position    *int      `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Education представляет запись об образовании (таблица education)
type Education struct {
	ID          string    `db:"id" json:"id"`
	Institution string    `db:"institution" json:"institution"`
	Degree      string    `db:"degree" json:"degree"`
	Field       *string   `db:"field" json:"field,omitempty"`
	StartYear   *int      `db:"start_year" json:"startYear,omitempty"`
	EndYear     *int      `db:"end_year" json:"endYear,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Position    *int      `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ProjectInput - редактируемые поля проекта.
// Используется и при создании, и как документ для PATCH
type ProjectInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Featured    bool    `json:"featured"`
}

// EducationInput - редактируемые поля записи об образовании
type EducationInput struct {
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Field       *string `json:"field,omitempty"`
	StartYear   *int    `json:"startYear,omitempty"`
	EndYear     *int    `json:"endYear,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Input возвращает редактируемую часть проекта
func (p *Project) Input() ProjectInput {
	return ProjectInput{
		Title:       p.Title,
		Description: p.Description,
		Link:        p.Link,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
	}
}

// Input возвращает редактируемую часть записи об образовании
func (e *Education) Input() EducationInput {
	return EducationInput{
		Institution: e.Institution,
		Degree:      e.Degree,
		Field:       e.Field,
		StartYear:   e.StartYear,
		EndYear:     e.EndYear,
		Description: e.Description,
	}
}

// ListFilter задаёт параметры выборки списка
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// PositionUpdate - пара (id, position) из пакета переупорядочивания.
// На проводе каноническое имя поля - position; старые имена priorityIndex (projects)
// и orderIndex (education) принимаются при декодировании
type PositionUpdate struct {
	ID       string `db:"id" json:"id"`
	Position int    `db:"position" json:"position"`
}

// UnmarshalJSON принимает position, priorityIndex или orderIndex.
// Пара без позиции отклоняется: ноль по умолчанию перетёр бы порядок
func (p *PositionUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string `json:"id"`
		Position      *int   `json:"position"`
		PriorityIndex *int   `json:"priorityIndex"`
		OrderIndex    *int   `json:"orderIndex"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	switch {
	case raw.Position != nil:
		p.Position = *raw.Position
	case raw.PriorityIndex != nil:
		p.Position = *raw.PriorityIndex
	case raw.OrderIndex != nil:
		p.Position = *raw.OrderIndex
	default:
		return fmt.Errorf("item %q: %w", raw.ID, ErrPositionRequired)
	}
	return nil
}

// ReorderRequest - тело PATCH /api/{collection}/reorder
type ReorderRequest struct {
	Items []PositionUpdate `json:"items"`
}

// PositionEvent публикуется в NATS после применения пакета переупорядочивания
type PositionEvent struct {
	Type       string           `json:"type"`
	Collection Collection       `json:"collection"`
	Items      []PositionUpdate `json:"items"`
	Actor      string           `json:"actor,omitempty"`
	AppliedAt  time.Time        `json:"appliedAt"`
}

// EntityEvent публикуется в NATS после создания, изменения или удаления записи
type EntityEvent struct {
	Type       string          `json:"type"`
	Collection Collection      `json:"collection"`
	ID         string          `json:"id"`
	Position   *int            `json:"position,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	At         time.Time       `json:"at"`
}

// Типы событий
const (
	EventReordered = "reordered"
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventSettings  = "settings"
)

// Session - сессия администратора
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuditRecord - строка журнала изменений в ClickHouse (таблица position_events)
type AuditRecord struct {
	Type       string     `json:"type"`
	Collection Collection `json:"collection"`
	ItemID     string     `json:"itemId"`
	Position   *int       `json:"position,omitempty"`
	Actor      string     `json:"actor,omitempty"`
	At         time.Time  `json:"at"`
}

// PageMeta - метаданные страницы списка
type PageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Page - страница списка коллекции в порядке отображения
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}
