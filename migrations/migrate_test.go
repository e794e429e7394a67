package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockQuery    = regexp.QuoteMeta(`SELECT pg_advisory_lock($1)`)
	unlockQuery  = regexp.QuoteMeta(`SELECT pg_advisory_unlock($1)`)
	ensureQuery  = regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)
	appliedQuery = regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`)
	recordQuery  = regexp.QuoteMeta(`INSERT INTO schema_migrations (name) VALUES ($1)`)
)

func TestNames_Ordered(t *testing.T) {
	names, err := Names()

	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_reservation_indexes.sql"}, names)
}

func TestApply_RunsPendingOnly(t *testing.T) {
	mockDb, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDb.Close()

	mockDb.ExpectExec(lockQuery).WithArgs(lockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockDb.ExpectExec(ensureQuery).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	mockDb.ExpectQuery(appliedQuery).WithArgs("0001_init.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mockDb.ExpectQuery(appliedQuery).WithArgs("0002_reservation_indexes.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mockDb.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS reservations_live_resource_idx`)).
		WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	mockDb.ExpectExec(recordQuery).WithArgs("0002_reservation_indexes.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mockDb.ExpectExec(unlockQuery).WithArgs(lockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	err = apply(context.Background(), mockDb)

	require.NoError(t, err)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestApply_FailedMigrationIsNotRecorded(t *testing.T) {
	mockDb, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDb.Close()

	mockDb.ExpectExec(lockQuery).WithArgs(lockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockDb.ExpectExec(ensureQuery).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mockDb.ExpectQuery(appliedQuery).WithArgs("0001_init.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mockDb.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS aircraft`)).
		WillReturnError(errors.New("permission denied"))
	mockDb.ExpectExec(unlockQuery).WithArgs(lockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	err = apply(context.Background(), mockDb)

	assert.ErrorContains(t, err, "exec migration 0001_init.sql")
	assert.NoError(t, mockDb.ExpectationsWereMet())
}
