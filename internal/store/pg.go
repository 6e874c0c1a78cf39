package store

import (
	"context"
	"database/sql"
	"fmt"

	"bankauth/internal/config"
	"bankauth/internal/logger"
	"bankauth/internal/store/pg/migrations"
	"bankauth/internal/store/pg/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	DB      *sql.DB
	Queries *repository.Queries
}

// InitializeDB opens the pool, checks connectivity within cfg.DBTimeout and
// applies pending migrations when enabled.
func InitializeDB(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.RunMigrationsOnStart {
		if err := migrations.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, &MigrationError{Err: err}
		}
	}

	logger.Info().Msg("database successfully connected")
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{DB: db, Queries: repository.New(db)}
}

func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// MigrationError separates a failed migration from a failed connection.
type MigrationError struct {
	Err error
}

func (e *MigrationError) Error() string { return "run migrations: " + e.Err.Error() }

func (e *MigrationError) Unwrap() error { return e.Err }
