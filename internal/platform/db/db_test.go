package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTx_CommitAndRollback(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err = RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "UPDATE books SET is_available = 0")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = RunInTx(context.Background(), conn, nil, func(context.Context, DBTX) error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOnly_RollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("gone"))
	mock.ExpectRollback()
	err = ReadOnly(context.Background(), conn, func(ctx context.Context, tx DBTX) error {
		var n int
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n)
	})
	assert.EqualError(t, err, "gone")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLErrorClassifiers(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}

func TestDSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 3307, Username: "u", Password: "p", DBName: "bookbnb"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3307)/bookbnb?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
}

func TestSchema_Embedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS loans")
}
