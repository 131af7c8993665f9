package sqldb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var defaultSchema string

const (
	SQLITE_DRIVER   = "sqlite3"
	POSTGRES_DRIVER = "pgx"

	UNIQUE_VIOLATION = "23505"
)

// Open connects to sqlite or postgres depending on the storage kind.
func Open(ctx context.Context, storage, dsn string) (*sql.DB, error) {
	driver := SQLITE_DRIVER
	if storage == config.STORAGE_POSTGRES {
		driver = POSTGRES_DRIVER
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == SQLITE_DRIVER {
		// sqlite allows one writer and every :memory: connection is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

// DatabaseInit runs the schema from schemaFile, or the embedded one when schemaFile is empty.
func DatabaseInit(ctx context.Context, db *sql.DB, schemaFile string) error {
	query := defaultSchema
	if schemaFile != "" {
		queryFile, err := os.Open(schemaFile)
		if err != nil {
			return fmt.Errorf("failed to open schema file: %w", err)
		}
		defer queryFile.Close()

		raw, err := io.ReadAll(queryFile)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		query = string(raw)
	}

	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	return nil
}

// mapError turns driver constraint violations into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UNIQUE_VIOLATION {
		return errors.Join(interfaces.ErrAlreadyExists, err)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return errors.Join(interfaces.ErrAlreadyExists, err)
	}
	return err
}
