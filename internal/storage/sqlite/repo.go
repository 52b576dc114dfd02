package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// Repository is a handle on one open SQLite database.
type Repository struct {
	db *sqlx.DB
}

// NewRepository opens the database at cfg.Path and returns a Repository plus
// a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, nil, errors.New("sqlite: path must not be empty")
	}

	db, err := sqlx.Open(driverName, cfg.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sqlite: open")
	}
	// One writer, no pooling across documents.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "sqlite: ping")
	}

	if cfg.ForeignKeys {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, nil, errors.Wrap(err, "sqlite: enable foreign keys")
		}
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// DB exposes the underlying handle for read-only consumers such as reports.
func (r *Repository) DB() *sqlx.DB { return r.db }

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return errors.Wrap(err, "sqlite: exec")
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	stx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite: begin tx")
	}
	if err := fn(&Tx{tx: stx}); err != nil {
		_ = stx.Rollback()
		return err
	}
	if err := stx.Commit(); err != nil {
		return errors.Wrap(err, "sqlite: commit")
	}
	return nil
}

// IsConstraintViolation reports whether err is a SQLite constraint failure
// (primary key, unique, not null, check, or a trigger RAISE).
func IsConstraintViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
