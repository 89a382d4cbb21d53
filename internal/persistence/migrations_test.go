package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"001_init.sql":  {Data: []byte("CREATE TABLE users ()")},
		"002_auths.sql": {Data: []byte("CREATE TABLE auths ()")},
		"README.md":     {Data: []byte("ignored")},
	}
}

func TestApplyMigrationsSkipsApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	exists := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name=$1)`)
	record := regexp.QuoteMeta(`INSERT INTO schema_migrations (name) VALUES ($1)`)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(exists).WithArgs("001_init.sql").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(exists).WithArgs("002_auths.sql").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE auths ()")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(record).WithArgs("002_auths.sql").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, applyMigrations(context.Background(), mock, migrationFS(), zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsRollsBackFailedFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	exists := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name=$1)`)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(exists).WithArgs("001_init.sql").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users ()")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = applyMigrations(context.Background(), mock, migrationFS(), zap.NewNop())
	assert.ErrorContains(t, err, "apply migration 001_init.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
