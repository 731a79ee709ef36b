// Пакет repository содержит unit-тесты для слоя доступа к данным
package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"PortfolioCMS/internal/model"
)

var projectCols = []string{"id", "title", "description", "link", "image_url", "featured", "position", "created_at", "updated_at"}

// Тест создания проекта: позиция вызывающего передаётся без изменений, остальное возвращает RETURNING
func TestCreateProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects(id, title, description, link, image_url, featured, position)")).
		WithArgs("p1", "Portfolio", nil, nil, nil, true, 7).
		WillReturnRows(sqlmock.NewRows([]string{"position", "created_at", "updated_at"}).AddRow(7, now, now))

	p, err := repo.CreateProject(ctx, "p1", model.ProjectInput{Title: "Portfolio", Featured: true}, intPtr(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" || p.Title != "Portfolio" || p.Position == nil || *p.Position != 7 {
		t.Errorf("unexpected project result: %+v", p)
	}

	// ошибка при пустом названии, в базу не ходим
	_, err = repo.CreateProject(ctx, "p2", model.ProjectInput{}, nil)
	if !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected empty title error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCreateProject_DefaultPosition: без позиции срабатывает значение по умолчанию базы
func TestCreateProject_DefaultPosition(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE($7, 0)")).
		WithArgs("p1", "T", nil, nil, nil, false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"position", "created_at", "updated_at"}).AddRow(0, now, now))
	p, err := repo.CreateProject(context.Background(), "p1", model.ProjectInput{Title: "T"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Position == nil || *p.Position != 0 {
		t.Errorf("expected default position 0, got %v", p.Position)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCreateProject_InsertError: при ошибке INSERT возвращается обёрнутая ошибка
func TestCreateProject_InsertError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	mockErr := errors.New("insert failed")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).WillReturnError(mockErr)
	_, err := repo.CreateProject(context.Background(), "p1", model.ProjectInput{Title: "T"}, nil)
	if err == nil || !strings.Contains(err.Error(), mockErr.Error()) {
		t.Errorf("expected insert error, got %v", err)
	}
}

// Тест получения проекта: успешное чтение и ErrNotFound
func TestGetProject(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now()
	query := regexp.QuoteMeta("SELECT " + projectColumns + " FROM projects WHERE id=$1")
	mock.ExpectQuery(query).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow("p1", "T", "D", nil, nil, false, nil, now, now))

	p, err := repo.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" || p.Description == nil || *p.Description != "D" {
		t.Errorf("unexpected project fields: %+v", p)
	}
	// NULL в position сканируется в nil
	if p.Position != nil {
		t.Errorf("expected nil position, got %v", *p.Position)
	}

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetProject(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// Тест обновления проекта: SELECT FOR UPDATE + UPDATE + COMMIT, позиция не трогается
func TestUpdateProject(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now()
	later := now.Add(time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + projectColumns + " FROM projects WHERE id=$1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow("p1", "Old", nil, nil, nil, false, 4, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE projects SET title=$1, description=$2, link=$3, image_url=$4, featured=$5, updated_at=now()")).
		WithArgs("New", nil, nil, nil, true, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))
	mock.ExpectCommit()

	p, err := repo.UpdateProject(ctx, "p1", model.ProjectInput{Title: "New", Featured: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "New" || !p.Featured || *p.Position != 4 || !p.UpdatedAt.Equal(later) {
		t.Errorf("unexpected project: %+v", p)
	}

	// not found: транзакция откатывается
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id=$1 FOR UPDATE")).
		WithArgs("p2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	_, err = repo.UpdateProject(ctx, "p2", model.ProjectInput{Title: "N"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestUpdateProject_CommitError: ошибка Commit пробрасывается
func TestUpdateProject_CommitError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow("p1", "Old", nil, nil, nil, false, 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE projects SET")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
	_, err := repo.UpdateProject(context.Background(), "p1", model.ProjectInput{Title: "New"})
	if err == nil || !strings.Contains(err.Error(), "commit failed") {
		t.Errorf("expected commit error, got %v", err)
	}
}

// Тест удаления проекта: строка удаляется, позиции остальных не уплотняются
func TestDeleteProject(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id=$1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DeleteProject(ctx, "p1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id=$1")).
		WithArgs("p2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.DeleteProject(ctx, "p2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// Тест списка проектов: порядок position ASC, created_at DESC и пустой результат
func TestListProjects(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects")).
		WithArgs("port").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY position ASC NULLS LAST, created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("port", 10, 0).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("c", "Portfolio C", nil, nil, nil, false, 0, now, now).
			AddRow("a", "Portfolio A", nil, nil, nil, false, 1, now, now))

	items, total, err := repo.ListProjects(ctx, model.ListFilter{Search: "port", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 || items[0].ID != "c" || items[1].ID != "a" {
		t.Errorf("unexpected list: total=%d items=%+v", total, items)
	}

	// пустой результат - пустой срез, не ошибка
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects")).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects")).
		WithArgs("", 10, 20).
		WillReturnRows(sqlmock.NewRows(projectCols))
	items, total, err = repo.ListProjects(ctx, model.ListFilter{Limit: 10, Offset: 20})
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil list, got %v %d %v", items, total, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// intPtr возвращает указатель на int, используется для nullable position в тестах
func intPtr(i int) *int {
	return &i
}

// ptr возвращает указатель на строку
func ptr(s string) *string {
	return &s
}
