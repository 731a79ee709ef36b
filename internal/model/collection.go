package model

import "fmt"

// Collection - имя упорядоченной коллекции, совпадает с сегментом пути API
type Collection string

const (
	CollectionProjects  Collection = "projects"
	CollectionEducation Collection = "education"
)

// CollectionSpec описывает, как коллекция хранится и упорядочивается
type CollectionSpec struct {
	Name Collection
	// Table - таблица Postgres, в которой лежат строки коллекции
	Table string
	// LabelColumn - колонка для поиска и отображения строки в списке
	LabelColumn string
	// LabelField - JSON-поле с подписью строки в ответе списка
	LabelField string
	// PositionBase - 0 или 1, с чего начинается нумерация после drag-and-drop
	PositionBase int
	// AppendOnCreate - при создании ставить position = max + 1
	AppendOnCreate bool
	// LegacyPositionField - старое имя поля позиции в клиенте
	LegacyPositionField string
}

var collections = map[Collection]CollectionSpec{
	CollectionProjects: {
		Name:                CollectionProjects,
		Table:               "projects",
		LabelColumn:         "title",
		LabelField:          "title",
		PositionBase:        0,
		AppendOnCreate:      false,
		LegacyPositionField: "priorityIndex",
	},
	CollectionEducation: {
		Name:                CollectionEducation,
		Table:               "education",
		LabelColumn:         "institution",
		LabelField:          "institution",
		PositionBase:        1,
		AppendOnCreate:      true,
		LegacyPositionField: "orderIndex",
	},
}

// LookupCollection возвращает описание коллекции по имени
func LookupCollection(name string) (CollectionSpec, error) {
	spec, ok := collections[Collection(name)]
	if !ok {
		return CollectionSpec{}, fmt.Errorf("unknown collection %q", name)
	}
	return spec, nil
}

// Collections возвращает все известные коллекции в стабильном порядке
func Collections() []CollectionSpec {
	return []CollectionSpec{collections[CollectionProjects], collections[CollectionEducation]}
}

// Spec возвращает описание коллекции; для неизвестного имени - нулевое значение
func (c Collection) Spec() CollectionSpec {
	return collections[c]
}
