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

var _ repository.SnippetRepository = (*DB)(nil)

var snippetColumns = []string{
	"id", "user_id", "title", "description", "code", "language", "tags",
	"star_count", "view_count", "visibility", "created_at", "updated_at",
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var s model.Snippet
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Description,
		&s.Code,
		&s.Language,
		&s.Tags,
		&s.StarCount,
		&s.ViewCount,
		&s.Visibility,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSnippet inserts snippet and fills in ID, counters and timestamps.
func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now().UTC()
	if snippet.Visibility == "" {
		snippet.Visibility = model.VisibilityPublic
	}

	query, args, err := sb.Insert("snippets").
		Columns("user_id", "title", "description", "code", "language", "tags", "visibility",
			"created_at", "updated_at").
		Values(snippet.UserID, snippet.Title, snippet.Description, snippet.Code, snippet.Language,
			snippet.Tags, snippet.Visibility, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building snippet insert: %w", err)
	}

	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: inserting snippet: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading snippet id: %w", err)
	}

	snippet.ID = id
	snippet.StarCount = 0
	snippet.ViewCount = 0
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	return nil
}

// GetSnippetByID retrieves a snippet by id.
// Returns apperror.ErrNotFound if it does not exist.
func (db *DB) GetSnippetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	query, args, err := sb.Select(snippetColumns...).From("snippets").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building snippet query: %w", err)
	}

	s, err := scanSnippet(db.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, mapError(err))
	}

	return s, nil
}

// ListSnippets returns snippets newest first, optionally for one owner
// and one language.
func (db *DB) ListSnippets(ctx context.Context, filter repository.ContentFilter) ([]model.Snippet, error) {
	builder := sb.Select(snippetColumns...).From("snippets").
		OrderBy("created_at DESC", "id DESC")
	builder = paginate(builder, filter.ListOptions)
	if filter.UserID > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Language != "" {
		builder = builder.Where(sq.Eq{"language": filter.Language})
	}
	if !filter.IncludePrivate {
		builder = builder.Where(sq.Eq{"visibility": model.VisibilityPublic})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building snippet list: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", mapError(err))
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", mapError(err))
	}

	return snippets, nil
}

// UpdateSnippet saves the editable fields.
func (db *DB) UpdateSnippet(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now().UTC()

	query, args, err := sb.Update("snippets").
		Set("title", snippet.Title).
		Set("description", snippet.Description).
		Set("code", snippet.Code).
		Set("language", snippet.Language).
		Set("tags", snippet.Tags).
		Set("visibility", snippet.Visibility).
		Set("updated_at", now).
		Where(sq.Eq{"id": snippet.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building snippet update: %w", err)
	}

	if err := db.execOne(ctx, "snippet", snippet.ID, query, args); err != nil {
		return err
	}
	snippet.UpdatedAt = now
	return nil
}

// DeleteSnippet removes a snippet and, by cascade, its stars.
func (db *DB) DeleteSnippet(ctx context.Context, id int64) error {
	query, args, err := sb.Delete("snippets").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building snippet delete: %w", err)
	}
	return db.execOne(ctx, "snippet", id, query, args)
}

// IncrementSnippetViews adds one to view_count in a single statement.
func (db *DB) IncrementSnippetViews(ctx context.Context, id int64) error {
	return db.incrementViews(ctx, "snippets", "snippet", id)
}
