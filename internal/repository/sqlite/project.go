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

var _ repository.ProjectRepository = (*DB)(nil)

var projectColumns = []string{
	"id", "user_id", "title", "description", "readme_content", "repository_url", "live_url",
	"thumbnail_url", "tech_stack", "tags", "star_count", "view_count", "featured", "visibility",
	"created_at", "updated_at",
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.ReadmeContent,
		&p.RepositoryURL,
		&p.LiveURL,
		&p.ThumbnailURL,
		&p.TechStack,
		&p.Tags,
		&p.StarCount,
		&p.ViewCount,
		&p.Featured,
		&p.Visibility,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts project and fills in ID, counters and timestamps.
// A missing owner surfaces as apperror.ErrNotFound via the foreign key.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()
	if project.Visibility == "" {
		project.Visibility = model.VisibilityPublic
	}

	query, args, err := sb.Insert("projects").
		Columns("user_id", "title", "description", "readme_content", "repository_url", "live_url",
			"thumbnail_url", "tech_stack", "tags", "featured", "visibility", "created_at", "updated_at").
		Values(project.UserID, project.Title, project.Description, project.ReadmeContent,
			project.RepositoryURL, project.LiveURL, project.ThumbnailURL, project.TechStack,
			project.Tags, project.Featured, project.Visibility, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building project insert: %w", err)
	}

	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading project id: %w", err)
	}

	project.ID = id
	project.StarCount = 0
	project.ViewCount = 0
	project.CreatedAt = now
	project.UpdatedAt = now

	return nil
}

// GetProjectByID retrieves a project by id.
// Returns apperror.ErrNotFound if it does not exist.
func (db *DB) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	query, args, err := sb.Select(projectColumns...).From("projects").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building project query: %w", err)
	}

	p, err := scanProject(db.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %d: %w", id, mapError(err))
	}

	return p, nil
}

// ListProjects returns projects newest first.
func (db *DB) ListProjects(ctx context.Context, filter repository.ContentFilter) ([]model.Project, error) {
	builder := sb.Select(projectColumns...).From("projects").
		OrderBy("created_at DESC", "id DESC")
	builder = paginate(builder, filter.ListOptions)
	if filter.UserID > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if !filter.IncludePrivate {
		builder = builder.Where(sq.Eq{"visibility": model.VisibilityPublic})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building project list: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", mapError(err))
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", mapError(err))
	}

	return projects, nil
}

// UpdateProject saves the editable fields. Counters and ownership are not
// writable through this path.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()

	query, args, err := sb.Update("projects").
		Set("title", project.Title).
		Set("description", project.Description).
		Set("readme_content", project.ReadmeContent).
		Set("repository_url", project.RepositoryURL).
		Set("live_url", project.LiveURL).
		Set("thumbnail_url", project.ThumbnailURL).
		Set("tech_stack", project.TechStack).
		Set("tags", project.Tags).
		Set("featured", project.Featured).
		Set("visibility", project.Visibility).
		Set("updated_at", now).
		Where(sq.Eq{"id": project.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building project update: %w", err)
	}

	if err := db.execOne(ctx, "project", project.ID, query, args); err != nil {
		return err
	}
	project.UpdatedAt = now
	return nil
}

// DeleteProject removes a project; its star rows go with it (ON DELETE CASCADE).
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	query, args, err := sb.Delete("projects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building project delete: %w", err)
	}
	return db.execOne(ctx, "project", id, query, args)
}

// IncrementProjectViews adds one to view_count in a single statement.
func (db *DB) IncrementProjectViews(ctx context.Context, id int64) error {
	return db.incrementViews(ctx, "projects", "project", id)
}

func (db *DB) incrementViews(ctx context.Context, table, resource string, id int64) error {
	query, args, err := sb.Update(table).
		Set("view_count", sq.Expr("view_count + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building %s view update: %w", resource, err)
	}
	return db.execOne(ctx, resource, id, query, args)
}

// paginate applies LIMIT/OFFSET. SQLite rejects OFFSET without LIMIT, so a
// zero limit leaves both off.
func paginate(b sq.SelectBuilder, opts repository.ListOptions) sq.SelectBuilder {
	if opts.Limit <= 0 {
		return b
	}
	b = b.Limit(uint64(opts.Limit))
	if opts.Offset > 0 {
		b = b.Offset(uint64(opts.Offset))
	}
	return b
}

// execOne runs a statement that must touch exactly one row identified by id.
// Zero affected rows means the row does not exist.
func (db *DB) execOne(ctx context.Context, resource string, id int64, query string, args []any) error {
	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s %d: %w", resource, id, mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
