package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.StarLedger = (*DB)(nil)

// starTable describes where stars of one target kind live.
type starTable struct {
	stars   string // junction table
	fk      string // junction column pointing at the content row
	content string // table holding star_count
}

func starTableFor(target model.StarTarget) (starTable, error) {
	switch target {
	case model.StarTargetProject:
		return starTable{stars: "project_stars", fk: "project_id", content: "projects"}, nil
	case model.StarTargetSnippet:
		return starTable{stars: "snippet_stars", fk: "snippet_id", content: "snippets"}, nil
	}
	return starTable{}, apperror.ValidationFailed("target", fmt.Sprintf("unknown star target %q", target))
}

// AddStar records userID's star on targetID and increments star_count.
//
// ATOMICITY:
// The junction insert and the counter increment run in one transaction,
// so star_count always equals the number of junction rows.
//
// IDEMPOTENCY:
// INSERT ... ON CONFLICT DO NOTHING absorbs a duplicate without an error;
// zero affected rows means "already starred" and the counter is left alone.
// Two concurrent first-stars for the same pair are serialised by the
// write lock, so exactly one of them sees an inserted row.
//
// Returns apperror.ErrNotFound if the target or the user does not exist.
func (db *DB) AddStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	tbl, err := starTableFor(target)
	if err != nil {
		return false, err
	}

	var added bool
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		added = false

		if err := db.ensureExists(ctx, tbl.content, string(target), targetID); err != nil {
			return err
		}

		query, args, err := sb.Insert(tbl.stars).
			Columns("user_id", tbl.fk, "created_at").
			Values(userID, targetID, time.Now().UTC()).
			Suffix(fmt.Sprintf("ON CONFLICT (user_id, %s) DO NOTHING", tbl.fk)).
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: building star insert: %w", err)
		}

		inserted, err := db.execCount(ctx, query, args)
		if err != nil {
			return fmt.Errorf("sqlite: inserting %s star: %w", target, err)
		}
		if inserted == 0 {
			return nil
		}

		if err := db.adjustStarCount(ctx, tbl, targetID, +1); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return added, nil
}

// RemoveStar deletes userID's star on targetID and decrements star_count,
// never below zero. Removing a star that does not exist is a no-op that
// returns (false, nil).
func (db *DB) RemoveStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	tbl, err := starTableFor(target)
	if err != nil {
		return false, err
	}

	var removed bool
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		removed = false

		query, args, err := sb.Delete(tbl.stars).
			Where(sq.Eq{"user_id": userID, tbl.fk: targetID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: building star delete: %w", err)
		}

		deleted, err := db.execCount(ctx, query, args)
		if err != nil {
			return fmt.Errorf("sqlite: deleting %s star: %w", target, err)
		}
		if deleted == 0 {
			return nil
		}

		if err := db.adjustStarCount(ctx, tbl, targetID, -1); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

// HasStar reports whether userID has starred targetID.
func (db *DB) HasStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	tbl, err := starTableFor(target)
	if err != nil {
		return false, err
	}
	return db.exists(ctx, sb.Select("1").From(tbl.stars).
		Where(sq.Eq{"user_id": userID, tbl.fk: targetID}))
}

// adjustStarCount applies delta to star_count with a single SQL expression.
// Decrements are floored at zero.
func (db *DB) adjustStarCount(ctx context.Context, tbl starTable, targetID int64, delta int) error {
	expr := sq.Expr("star_count + 1")
	if delta < 0 {
		expr = sq.Expr("MAX(star_count - 1, 0)")
	}

	query, args, err := sb.Update(tbl.content).
		Set("star_count", expr).
		Where(sq.Eq{"id": targetID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building star_count update: %w", err)
	}

	if _, err := db.execCount(ctx, query, args); err != nil {
		return fmt.Errorf("sqlite: updating %s star_count: %w", tbl.content, err)
	}
	return nil
}

// ensureExists returns apperror.NotFound(resource, id) unless a row with id
// exists in table.
func (db *DB) ensureExists(ctx context.Context, table, resource string, id int64) error {
	ok, err := db.exists(ctx, sb.Select("1").From(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// exists runs SELECT EXISTS(<inner>).
func (db *DB) exists(ctx context.Context, inner sq.SelectBuilder) (bool, error) {
	innerSQL, args, err := inner.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("sqlite: building exists query: %w", err)
	}

	var found bool
	err = db.q(ctx).QueryRowContext(ctx, "SELECT EXISTS ("+innerSQL+")", args...).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking existence: %w", mapError(err))
	}
	return found, nil
}

// execCount executes query and returns the number of affected rows.
func (db *DB) execCount(ctx context.Context, query string, args []any) (int64, error) {
	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
