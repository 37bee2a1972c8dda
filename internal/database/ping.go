// Package database provides the read-only MySQL connectivity check used by
// preflight. The actual export is delegated to the external mysqldump
// collaborator; this package only verifies the server is reachable before
// any side effect occurs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"mysql-backup-sync/internal/backup"
)

// defaultTimeout bounds the connectivity check when no timeout is configured.
// It bounds only the ping, never the export itself.
const defaultTimeout = 10 * time.Second

// Checker implements backup.ConnectionChecker against a MySQL server
type Checker struct {
	cfg      backup.MySQLConfig
	database string

	// open is swappable for tests
	open func(driverName string, dataSourceName string) (*sql.DB, error)
}

// NewChecker creates a connectivity checker for the given connection settings
func NewChecker(cfg backup.MySQLConfig, database string) *Checker {
	return &Checker{
		cfg:      cfg,
		database: database,
		open:     sql.Open,
	}
}

// Check opens a connection and pings the server. It performs no writes.
func (c *Checker) Check(ctx context.Context) error {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := c.open("mysql", c.dsn())
	if err != nil {
		return fmt.Errorf("failed to open connection to %s: %w", c.addr(), err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", c.addr(), err)
	}
	return nil
}

// dsn builds the driver DSN from the connection settings
func (c *Checker) dsn() string {
	dsnConfig := mysql.NewConfig()
	dsnConfig.Net = "tcp"
	dsnConfig.Addr = c.addr()
	dsnConfig.User = c.cfg.Username
	dsnConfig.Passwd = c.cfg.Password
	dsnConfig.DBName = c.database
	return dsnConfig.FormatDSN()
}

func (c *Checker) addr() string {
	host := c.cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.cfg.Port
	if port <= 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%d", host, port)
}
