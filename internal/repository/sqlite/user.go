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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

var userColumns = []string{
	"id", "open_id", "name", "email", "login_method", "role",
	"created_at", "updated_at", "last_signed_in",
}

// UpsertByOpenID inserts or updates a user keyed by their external identity.
//
// ON CONFLICT DO UPDATE keeps the existing internal id (and so every star,
// follow and project that refers to it) while refreshing the fields the
// provider may have changed. created_at is only written on first insert.
func (db *DB) UpsertByOpenID(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	query, args, err := sb.Insert("users").
		Columns("open_id", "name", "email", "login_method", "role", "created_at", "updated_at", "last_signed_in").
		Values(user.OpenID, user.Name, user.Email, user.LoginMethod, user.Role, now, now, now).
		Suffix(`ON CONFLICT (open_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			login_method = excluded.login_method,
			role = excluded.role,
			updated_at = excluded.updated_at,
			last_signed_in = excluded.last_signed_in`).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building user upsert: %w", err)
	}

	if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: upserting user %q: %w", user.OpenID, mapError(err))
	}

	stored, err := db.getUser(ctx, sq.Eq{"open_id": user.OpenID})
	if err != nil {
		return fmt.Errorf("sqlite: reading back user %q: %w", user.OpenID, err)
	}
	*user = *stored

	return nil
}

// GetUserByID retrieves a user by internal id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := db.getUser(ctx, sq.Eq{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (db *DB) getUser(ctx context.Context, where sq.Eq) (*model.User, error) {
	query, args, err := sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var u model.User
	err = db.q(ctx).QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.OpenID,
		&u.Name,
		&u.Email,
		&u.LoginMethod,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastSignedIn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, mapError(err)
	}
	return &u, nil
}
