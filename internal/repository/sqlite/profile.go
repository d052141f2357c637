package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

var profileColumns = []string{
	"user_id", "avatar_url", "bio", "location", "website", "github", "twitter", "linkedin",
	"skills", "follower_count", "following_count", "created_at", "updated_at",
}

// GetProfile returns the profile row for userID.
// Returns apperror.ErrNotFound when the user has never edited their profile
// and nobody has followed them yet.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	query, args, err := sb.Select(profileColumns...).From("profiles").
		Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building profile query: %w", err)
	}

	var p model.Profile
	err = db.q(ctx).QueryRowContext(ctx, query, args...).Scan(
		&p.UserID,
		&p.AvatarURL,
		&p.Bio,
		&p.Location,
		&p.Website,
		&p.GitHub,
		&p.Twitter,
		&p.LinkedIn,
		&p.Skills,
		&p.FollowerCount,
		&p.FollowingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %d: %w", userID, mapError(err))
	}

	return &p, nil
}

// UpsertProfile writes the editable profile fields.
//
// The follower/following counters are deliberately absent from the
// DO UPDATE list: only the follow ledger changes them. After the write the
// stored row (including current counters) is copied back into profile.
func (db *DB) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	now := time.Now().UTC()

	query, args, err := sb.Insert("profiles").
		Columns("user_id", "avatar_url", "bio", "location", "website", "github", "twitter", "linkedin",
			"skills", "created_at", "updated_at").
		Values(profile.UserID, profile.AvatarURL, profile.Bio, profile.Location, profile.Website,
			profile.GitHub, profile.Twitter, profile.LinkedIn, profile.Skills, now, now).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			avatar_url = excluded.avatar_url,
			bio = excluded.bio,
			location = excluded.location,
			website = excluded.website,
			github = excluded.github,
			twitter = excluded.twitter,
			linkedin = excluded.linkedin,
			skills = excluded.skills,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building profile upsert: %w", err)
	}

	if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: upserting profile %d: %w", profile.UserID, mapError(err))
	}

	stored, err := db.GetProfile(ctx, profile.UserID)
	if err != nil {
		return err
	}
	*profile = *stored

	return nil
}

// bumpProfileCounter adds delta to column on userID's profile, creating the
// row when it does not exist yet. Decrements never go below zero.
// Must be called inside RunInTx.
func (db *DB) bumpProfileCounter(ctx context.Context, userID int64, column string, delta int) error {
	now := time.Now().UTC()

	var (
		query string
		args  []any
		err   error
	)
	if delta > 0 {
		query, args, err = sb.Insert("profiles").
			Columns("user_id", column, "created_at", "updated_at").
			Values(userID, delta, now, now).
			Suffix(fmt.Sprintf(
				"ON CONFLICT (user_id) DO UPDATE SET %[1]s = %[1]s + %[2]d, updated_at = excluded.updated_at",
				column, delta)).
			ToSql()
	} else {
		query, args, err = sb.Update("profiles").
			Set(column, sq.Expr(fmt.Sprintf("MAX(%[1]s - %[2]d, 0)", column, -delta))).
			Set("updated_at", now).
			Where(sq.Eq{"user_id": userID}).
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("sqlite: building %s update: %w", column, err)
	}

	if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: updating %s for user %d: %w", column, userID, mapError(err))
	}
	return nil
}
