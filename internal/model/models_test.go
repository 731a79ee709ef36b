package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectDBTags(t *testing.T) {
	// получаем тип структуры Project для анализа рефлексией
	typ := reflect.TypeOf(Project{})
	field, found := typ.FieldByName("ID")
	if !found {
		t.Errorf("Поле ID не найдено в структуре Project")
	}
	if field.Tag.Get("db") != "id" {
		t.Errorf("Ожидался тег db:'id' для поля ID, получили '%s'", field.Tag.Get("db"))
	}
	// position - общая колонка упорядочивания
	field, _ = typ.FieldByName("Position")
	if field.Tag.Get("db") != "position" {
		t.Errorf("Ожидался тег db:'position' для поля Position, получили '%s'", field.Tag.Get("db"))
	}
}

func TestEducationDBTags(t *testing.T) {
	typ := reflect.TypeOf(Education{})
	field, _ := typ.FieldByName("Position")
	if field.Tag.Get("db") != "position" {
		t.Errorf("Ожидался тег db:'position' для поля Position, получили '%s'", field.Tag.Get("db"))
	}
	field, _ = typ.FieldByName("CreatedAt")
	if field.Tag.Get("db") != "created_at" {
		t.Errorf("Ожидался тег db:'created_at' для поля CreatedAt, получили '%s'", field.Tag.Get("db"))
	}
}

// TestPositionUpdate_LegacyNames проверяет декодирование старых имён поля позиции
func TestPositionUpdate_LegacyNames(t *testing.T) {
	cases := map[string]PositionUpdate{
		`{"id":"a","position":3}`:      {ID: "a", Position: 3},
		`{"id":"b","priorityIndex":4}`: {ID: "b", Position: 4},
		`{"id":"c","orderIndex":5}`:    {ID: "c", Position: 5},
		// каноническое имя побеждает
		`{"id":"e","position":1,"orderIndex":9}`: {ID: "e", Position: 1},
	}
	for in, want := range cases {
		var got PositionUpdate
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		require.Equal(t, want, got, in)
	}
}

// TestPositionUpdate_MissingPosition: пара без позиции не превращается в position=0
func TestPositionUpdate_MissingPosition(t *testing.T) {
	var got PositionUpdate
	err := json.Unmarshal([]byte(`{"id":"d"}`), &got)
	require.ErrorIs(t, err, ErrPositionRequired)
	require.Contains(t, err.Error(), `"d"`)

	var req ReorderRequest
	err = json.Unmarshal([]byte(`{"items":[{"id":"a","position":0},{"id":"b","prio":3}]}`), &req)
	require.ErrorIs(t, err, ErrPositionRequired)

	// явный ноль допустим
	require.NoError(t, json.Unmarshal([]byte(`{"id":"z","position":0}`), &got))
	require.Equal(t, PositionUpdate{ID: "z", Position: 0}, got)
}

func TestReorderRequest_Decode(t *testing.T) {
	var req ReorderRequest
	err := json.Unmarshal([]byte(`{"items":[{"id":"C","position":0},{"id":"A","position":1}]}`), &req)
	require.NoError(t, err)
	require.Equal(t, []PositionUpdate{{ID: "C", Position: 0}, {ID: "A", Position: 1}}, req.Items)
}

func TestLookupCollection(t *testing.T) {
	spec, err := LookupCollection("education")
	require.NoError(t, err)
	require.Equal(t, "education", spec.Table)
	require.Equal(t, 1, spec.PositionBase)
	require.True(t, spec.AppendOnCreate)

	spec, err = LookupCollection("projects")
	require.NoError(t, err)
	require.Equal(t, 0, spec.PositionBase)
	require.False(t, spec.AppendOnCreate)

	_, err = LookupCollection("skills")
	require.Error(t, err)
}

func TestSettingsFromRows(t *testing.T) {
	rows := []SettingRow{
		{Key: "siteTitle", Value: "Jane Doe"},
		{Key: "legacyFooter", Value: "x"},
	}
	s, unknown := SettingsFromRows(rows)
	require.Equal(t, "Jane Doe", s[SettingSiteTitle])
	// отсутствующие ключи получают значения по умолчанию
	require.Equal(t, "true", s[SettingShowMarketNews])
	require.Len(t, s, len(SettingKeys()))
	require.Equal(t, []string{"legacyFooter"}, unknown)
}
