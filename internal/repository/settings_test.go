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

func TestListSettings(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewSettingsRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM settings ORDER BY key")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("heroHeadline", "Hi").
			AddRow("siteTitle", "Jane"))
	rows, err := repo.ListSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.SettingRow{{Key: "heroHeadline", Value: "Hi"}, {Key: "siteTitle", Value: "Jane"}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSettings(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewSettingsRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	// ключи пишутся в алфавитном порядке
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings(key, value, updated_at)")).
		WithArgs("heroHeadline", "Hi", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (key) DO UPDATE")).
		WithArgs("siteTitle", "Jane", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpsertSettings(context.Background(), map[string]string{"siteTitle": "Jane", "heroHeadline": "Hi"}, at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSettings_ExecError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	repo := NewSettingsRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	err := repo.UpsertSettings(context.Background(), map[string]string{"siteTitle": "Jane"}, time.Now())
	require.ErrorContains(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}
