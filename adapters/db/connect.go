package db

import (
	"context"
	"fmt"
	"strings"

	"promohypo/adapters/db/migrations"
	apperrors "promohypo/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DetectDriver picks a driver from the connection URL when none is configured
func DetectDriver(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the database and applies pending migrations
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	if driver == "" {
		driver = DetectDriver(url)
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driver))
	}

	conn, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, fmt.Errorf("connecting to %s: %w", driver, err))
	}
	if driver == DriverSQLite {
		// sqlite serializes writers; one connection also keeps :memory: databases shared
		conn.SetMaxOpenConns(1)
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
		}
	}

	if err := migrations.NewMigrator(conn).Up(ctx); err != nil {
		conn.Close()
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return conn, nil
}
