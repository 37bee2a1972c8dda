package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-backup-sync/internal/backup"
)

func newMockChecker(t *testing.T) (*Checker, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	checker := NewChecker(backup.MySQLConfig{
		Host:     "db.example.com",
		Port:     3306,
		Username: "backup",
		Password: "secret",
	}, "appdb")
	checker.open = func(driverName string, dataSourceName string) (*sql.DB, error) {
		return db, nil
	}
	return checker, mock
}

func TestChecker_Check_Success(t *testing.T) {
	checker, mock := newMockChecker(t)
	mock.ExpectPing()

	err := checker.Check(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecker_Check_PingFails(t *testing.T) {
	checker, mock := newMockChecker(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := checker.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping")
	assert.Contains(t, err.Error(), "db.example.com:3306")
}

func TestChecker_Check_OpenFails(t *testing.T) {
	checker := NewChecker(backup.MySQLConfig{Host: "db.example.com"}, "appdb")
	checker.open = func(driverName string, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("bad dsn")
	}

	err := checker.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open connection")
}

func TestChecker_DSN(t *testing.T) {
	checker := NewChecker(backup.MySQLConfig{
		Host:     "db.example.com",
		Port:     3307,
		Username: "backup",
		Password: "secret",
	}, "appdb")

	dsn := checker.dsn()
	assert.Contains(t, dsn, "backup:secret@")
	assert.Contains(t, dsn, "tcp(db.example.com:3307)")
	assert.Contains(t, dsn, "/appdb")
}

func TestChecker_Defaults(t *testing.T) {
	checker := NewChecker(backup.MySQLConfig{}, "appdb")
	assert.Equal(t, "127.0.0.1:3306", checker.addr())

	// Default timeout applies when none is configured.
	assert.Equal(t, time.Duration(0), checker.cfg.Timeout)
}
