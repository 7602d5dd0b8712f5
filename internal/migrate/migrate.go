package migrate

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/centralino/internal/db"
)

//go:embed *.sql
var fs embed.FS

// lockKey serializes migrations across processes sharing one database.
const lockKey int64 = 0x63656e7472616c

// Files lists the embedded migrations in the order Up applies them.
func Files() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Up applies every pending migration, each in its own transaction.
func Up(ctx context.Context, d *db.DB) error {
	files, err := Files()
	if err != nil {
		return err
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, f := range files {
		b, err := fs.ReadFile(f)
		if err != nil {
			return err
		}
		var applied bool
		err = d.WithTx(ctx, func(tx pgx.Tx) error {
			var aerr error
			applied, aerr = apply(ctx, tx, f, string(b))
			return aerr
		})
		if err != nil {
			return err
		}
		if applied {
			slog.Info("migration applied", "version", f)
		}
	}

	return nil
}

// querier is the part of pgx.Tx a single migration needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// apply runs one migration unless it is already recorded. It reports whether it ran.
func apply(ctx context.Context, q querier, version, sql string) (bool, error) {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return false, fmt.Errorf("lock migrations: %w", err)
	}

	var done bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&done); err != nil {
		return false, fmt.Errorf("check %s: %w", version, err)
	}
	if done {
		return false, nil
	}

	if _, err := q.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("apply %s: %w", version, err)
	}
	if _, err := q.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, version); err != nil {
		return false, fmt.Errorf("record %s: %w", version, err)
	}
	return true, nil
}
