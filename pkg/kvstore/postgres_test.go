package kvstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresGet(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT value, version FROM kv_entries WHERE key = \$1`).
		WithArgs("studentsData_main").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}).AddRow([]byte(`[]`), 3))

	value, version, err := kv.Get(context.Background(), "studentsData_main")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), value)
	assert.Equal(t, uint64(3), version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissing(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT value, version FROM kv_entries WHERE key = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}))

	_, _, err := kv.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetUpserts(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs("noticesData", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Set(context.Background(), "noticesData", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompareAndSwap(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectExec(`UPDATE kv_entries`).
		WithArgs("studentsData_main", []byte(`[{}]`), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.CompareAndSwap(context.Background(), "studentsData_main", []byte(`[{}]`), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompareAndSwapConflict(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectExec(`UPDATE kv_entries`).
		WithArgs("studentsData_main", []byte(`[{}]`), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := kv.CompareAndSwap(context.Background(), "studentsData_main", []byte(`[{}]`), 2)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompareAndSwapCreateOnly(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs("freshData", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := kv.CompareAndSwap(context.Background(), "freshData", []byte(`[]`), 0)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	kv, mock := newPostgresMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, kv.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
