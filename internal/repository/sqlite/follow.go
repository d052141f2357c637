package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.FollowLedger = (*DB)(nil)

// AddFollow records followerID → followingID and bumps both profile
// counters (the target's follower_count, the actor's following_count) in
// the same transaction. Missing profile rows are created on the way.
//
// Returns (false, nil) if the edge already exists, apperror.ErrSelfReference
// for a self-follow and apperror.ErrNotFound if either user is missing.
func (db *DB) AddFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	if followerID == followingID {
		return false, apperror.SelfReference("cannot follow yourself")
	}

	var added bool
	err := db.RunInTx(ctx, func(ctx context.Context) error {
		added = false

		if err := db.ensureExists(ctx, "users", "user", followingID); err != nil {
			return err
		}

		query, args, err := sb.Insert("follows").
			Columns("follower_id", "following_id", "created_at").
			Values(followerID, followingID, time.Now().UTC()).
			Suffix("ON CONFLICT (follower_id, following_id) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: building follow insert: %w", err)
		}

		inserted, err := db.execCount(ctx, query, args)
		if err != nil {
			return fmt.Errorf("sqlite: inserting follow: %w", err)
		}
		if inserted == 0 {
			return nil
		}

		if err := db.bumpProfileCounter(ctx, followingID, "follower_count", +1); err != nil {
			return err
		}
		if err := db.bumpProfileCounter(ctx, followerID, "following_count", +1); err != nil {
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

// RemoveFollow deletes the edge and decrements both counters, floored at
// zero. A missing edge is a no-op returning (false, nil).
func (db *DB) RemoveFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	var removed bool
	err := db.RunInTx(ctx, func(ctx context.Context) error {
		removed = false

		query, args, err := sb.Delete("follows").
			Where(sq.Eq{"follower_id": followerID, "following_id": followingID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: building follow delete: %w", err)
		}

		deleted, err := db.execCount(ctx, query, args)
		if err != nil {
			return fmt.Errorf("sqlite: deleting follow: %w", err)
		}
		if deleted == 0 {
			return nil
		}

		if err := db.bumpProfileCounter(ctx, followingID, "follower_count", -1); err != nil {
			return err
		}
		if err := db.bumpProfileCounter(ctx, followerID, "following_count", -1); err != nil {
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

// IsFollowing reports whether the edge followerID → followingID exists.
func (db *DB) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	return db.exists(ctx, sb.Select("1").From("follows").
		Where(sq.Eq{"follower_id": followerID, "following_id": followingID}))
}
