package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/devfolio/internal/metrics"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.TxManager = (*DB)(nil)

type txKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction carried by ctx, or the pool.
func (db *DB) q(ctx context.Context) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db.conn
}

// RunInTx executes fn within a write transaction.
//
// On success: commits. On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
//
// If ctx already carries a transaction, fn joins it and the outer caller
// owns commit and rollback. A busy or locked database is retried with
// exponential backoff (see RetryConfig); fn must therefore be safe to run
// more than once, which holds as long as it only touches the database.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	start := time.Now()
	defer func() {
		metrics.DBTxDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	return retryWithBackoff(ctx, db.logger, db.retry, func() error {
		return db.runOnce(ctx, fn)
	})
}

func (db *DB) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", mapError(err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn("rollback failed",
				slog.String("error", rbErr.Error()),
				slog.String("cause", err.Error()),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", mapError(err))
	}

	return nil
}
