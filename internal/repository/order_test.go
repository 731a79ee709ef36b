package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/model"
)

const updateProjectsPosition = `UPDATE "projects" SET position=$1, updated_at=$2 WHERE id=$3`

func TestUpdatePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewOrderRepository(db)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(updateProjectsPosition)).
		WithArgs(2, at, "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := repo.UpdatePosition(context.Background(), "projects", "a", 2, at)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// неизвестный id не ошибка: ноль затронутых строк
	mock.ExpectExec(regexp.QuoteMeta(updateProjectsPosition)).
		WithArgs(0, at, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = repo.UpdatePosition(context.Background(), "projects", "ghost", 0, at)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePosition_UnknownTable(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewOrderRepository(db)
	_, err := repo.UpdatePosition(context.Background(), "users; DROP TABLE projects", "a", 1, time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePosition_ExecError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewOrderRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "education"`)).WillReturnError(errors.New("conn reset"))
	_, err := repo.UpdatePosition(context.Background(), "education", "a", 1, time.Now())
	require.ErrorContains(t, err, "conn reset")
}

func TestUpdatePositionsTx(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewOrderRepository(db)
	at := time.Now()
	updates := []model.PositionUpdate{{ID: "c", Position: 0}, {ID: "a", Position: 1}, {ID: "b", Position: 2}}

	mock.ExpectBegin()
	for _, u := range updates {
		mock.ExpectExec(regexp.QuoteMeta(updateProjectsPosition)).
			WithArgs(u.Position, at, u.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	n, err := repo.UpdatePositionsTx(context.Background(), "projects", updates, at)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdatePositionsTx_RollsBack: при ошибке середины пакета транзакция откатывается целиком
func TestUpdatePositionsTx_RollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewOrderRepository(db)
	at := time.Now()
	updates := []model.PositionUpdate{{ID: "c", Position: 0}, {ID: "a", Position: 1}, {ID: "b", Position: 2}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateProjectsPosition)).
		WithArgs(0, at, "c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateProjectsPosition)).
		WithArgs(1, at, "a").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := repo.UpdatePositionsTx(context.Background(), "projects", updates, at)
	require.ErrorContains(t, err, "deadlock detected")
	require.NoError(t, mock.ExpectationsWereMet())
}
