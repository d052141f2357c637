package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// SnippetInput carries the editable fields of a snippet.
type SnippetInput struct {
	Title       string           `json:"title"       validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Code        string           `json:"code"        validate:"required,max=100000"`
	Language    string           `json:"language"    validate:"required,max=50"`
	Tags        []string         `json:"tags"        validate:"max=30,dive,max=50"`
	Visibility  model.Visibility `json:"visibility"  validate:"omitempty,oneof=public private"`
}

func (in *SnippetInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	// Languages are matched exactly by the list filter.
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	in.Tags = trimAll(in.Tags)
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
}

func (in SnippetInput) applyTo(sn *model.Snippet) {
	sn.Title = in.Title
	sn.Description = in.Description
	sn.Code = in.Code
	sn.Language = in.Language
	sn.Tags = in.Tags
	sn.Visibility = in.Visibility
}

// SnippetService handles business logic for code snippets.
//
// The fields are unexported; other packages talk to it through methods only.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{repo: repo, logger: logger}
}

// Create validates and saves a new snippet owned by userID.
func (s *SnippetService) Create(ctx context.Context, userID int64, in SnippetInput) (*model.Snippet, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	sn := &model.Snippet{UserID: userID}
	in.applyTo(sn)

	if err := s.repo.CreateSnippet(ctx, sn); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", sn.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", sn.ID),
		slog.Int64("owner", userID),
		slog.String("language", sn.Language),
	)
	return sn, nil
}

// GetByID retrieves a snippet and counts the view. Private snippets are
// not found for anyone but the owner.
func (s *SnippetService) GetByID(ctx context.Context, viewerID, id int64) (*model.Snippet, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	sn, err := s.repo.GetSnippetByID(ctx, id)
	if err != nil {
		// Already an apperror; NotFound is a normal outcome, not worth logging.
		return nil, err
	}
	if sn.Visibility == model.VisibilityPrivate && sn.UserID != viewerID {
		return nil, apperror.NotFound("snippet", id)
	}

	if err := s.repo.IncrementSnippetViews(ctx, id); err != nil {
		s.logger.Warn("failed to count snippet view",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	} else {
		sn.ViewCount++
	}
	return sn, nil
}

// List retrieves snippets with pagination, optionally narrowed to one
// owner and one language.
//
// PAGINATION:
// limit is clamped to 1-100 (default 20); a negative offset becomes 0.
// Page 3 with 20 items per page → limit=20, offset=40.
func (s *SnippetService) List(ctx context.Context, viewerID, ownerID int64, language string, limit, offset int) ([]model.Snippet, error) {
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.ListSnippets(ctx, repository.ContentFilter{
		UserID:         ownerID,
		Language:       strings.ToLower(strings.TrimSpace(language)),
		IncludePrivate: ownerID > 0 && viewerID == ownerID,
		ListOptions:    repository.ListOptions{Limit: clampLimit(limit), Offset: offset},
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}
	return snippets, nil
}

// Update replaces the editable fields of snippet id.
//
// STRATEGY: fetch, check ownership, apply, save. The ownership check comes
// before validation so a stranger learns nothing about what would pass.
func (s *SnippetService) Update(ctx context.Context, userID, id int64, in SnippetInput) (*model.Snippet, error) {
	sn, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	in.applyTo(sn)

	if err := s.repo.UpdateSnippet(ctx, sn); err != nil {
		s.logger.Error("failed to update snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: updating snippet %d: %w", id, err)
	}

	s.logger.Info("snippet updated", slog.Int64("id", id), slog.Int64("owner", userID))
	return sn, nil
}

// Delete removes snippet id. Owner only.
func (s *SnippetService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteSnippet(ctx, id); err != nil {
		return fmt.Errorf("service/snippet: deleting snippet %d: %w", id, err)
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}

func (s *SnippetService) owned(ctx context.Context, userID, id int64) (*model.Snippet, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	sn, err := s.repo.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sn.UserID != userID {
		return nil, apperror.Forbidden("you do not own this snippet")
	}
	return sn, nil
}
