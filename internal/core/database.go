// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
)

const (
	dbPingTimeout  = 5 * time.Second
	dbRetryBackoff = time.Second
)

//go:embed schema.sql
var schemaSQL string

// Database wraps the pgx-backed sqlx pool shared by every repository.
type Database struct {
	DB *sqlx.DB
}

// NewDatabase opens the pool and pings it, retrying with a growing pause
// until cfg.ConnectAttempts is used up. Postgres often comes up after the
// api in compose setups.
func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db}
	attempts := max(cfg.ConnectAttempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = d.Ping(ctx); err == nil {
			return d, nil
		}
		if attempt == attempts {
			break
		}

		slog.WarnContext(ctx, "database not reachable yet",
			"attempt", attempt,
			"of", attempts,
			"error", err,
		)
		select {
		case <-ctx.Done():
			_ = db.Close() //nolint:errcheck // cleanup on cancelled startup
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * dbRetryBackoff):
		}
	}

	_ = db.Close() //nolint:errcheck // cleanup on connection failure
	return nil, fmt.Errorf("connect to database: %w", err)
}

func (d *Database) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// Migrate applies the embedded schema in one transaction. Every statement
// is idempotent, so it is safe on each start.
func (d *Database) Migrate(ctx context.Context) error {
	return InTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		for i, stmt := range splitStatements(schemaSQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// splitStatements breaks a script on semicolons. The schema has no
// function bodies or string literals containing one.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so repositories run the
// same queries inside or outside a transaction.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// InTx runs fn in a transaction, committing on nil and rolling back on an
// error or panic.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

// jitteredDuration spreads connection recycling so the pool does not
// reconnect all at once.
func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	return base + time.Duration(rand.Int64N(int64(base/7)+1))
}
