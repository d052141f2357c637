// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain Go values (ids, input structs), never *http.Request,
// and return apperror values; only the handler knows about status codes.
// Every collaborator is an interface from the repository package, injected
// through the constructor, so tests run against in-memory fakes.
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

// ProjectInput carries the editable fields of a project. Counters are not
// part of it: clients can never set them.
type ProjectInput struct {
	Title         string           `json:"title"         validate:"required,max=200"`
	Description   string           `json:"description"   validate:"max=5000"`
	ReadmeContent string           `json:"readmeContent" validate:"max=100000"`
	RepositoryURL string           `json:"repositoryUrl" validate:"omitempty,http_url"`
	LiveURL       string           `json:"liveUrl"       validate:"omitempty,http_url"`
	ThumbnailURL  string           `json:"thumbnailUrl"  validate:"omitempty,http_url"`
	TechStack     []string         `json:"techStack"     validate:"max=30,dive,max=50"`
	Tags          []string         `json:"tags"          validate:"max=30,dive,max=50"`
	Featured      bool             `json:"featured"`
	Visibility    model.Visibility `json:"visibility"    validate:"omitempty,oneof=public private"`
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RepositoryURL = strings.TrimSpace(in.RepositoryURL)
	in.LiveURL = strings.TrimSpace(in.LiveURL)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.TechStack = trimAll(in.TechStack)
	in.Tags = trimAll(in.Tags)
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
}

func (in ProjectInput) applyTo(p *model.Project) {
	p.Title = in.Title
	p.Description = in.Description
	p.ReadmeContent = in.ReadmeContent
	p.RepositoryURL = in.RepositoryURL
	p.LiveURL = in.LiveURL
	p.ThumbnailURL = in.ThumbnailURL
	p.TechStack = in.TechStack
	p.Tags = in.Tags
	p.Featured = in.Featured
	p.Visibility = in.Visibility
}

// ProjectService handles portfolio projects.
type ProjectService struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

func NewProjectService(repo repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, logger: logger}
}

// Create validates in and stores a new project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID int64, in ProjectInput) (*model.Project, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	p := &model.Project{UserID: userID}
	in.applyTo(p)

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("service/project: creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.Int64("id", p.ID),
		slog.Int64("owner", userID),
		slog.String("title", p.Title),
	)
	return p, nil
}

// GetByID returns the project and counts the view.
//
// viewerID is 0 for anonymous requests. Private projects are reported as
// not found to anyone but the owner. A failed view increment is logged and
// does not fail the read.
func (s *ProjectService) GetByID(ctx context.Context, viewerID, id int64) (*model.Project, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Visibility == model.VisibilityPrivate && p.UserID != viewerID {
		return nil, apperror.NotFound("project", id)
	}

	if err := s.repo.IncrementProjectViews(ctx, id); err != nil {
		s.logger.Warn("failed to count project view",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	} else {
		p.ViewCount++
	}
	return p, nil
}

// List returns ownerID's projects (all owners when ownerID is 0), newest
// first. Private projects are included only when the viewer is the owner.
func (s *ProjectService) List(ctx context.Context, viewerID, ownerID int64, limit, offset int) ([]model.Project, error) {
	if offset < 0 {
		offset = 0
	}

	projects, err := s.repo.ListProjects(ctx, repository.ContentFilter{
		UserID:         ownerID,
		IncludePrivate: ownerID > 0 && viewerID == ownerID,
		ListOptions:    repository.ListOptions{Limit: clampLimit(limit), Offset: offset},
	})
	if err != nil {
		return nil, fmt.Errorf("service/project: listing projects: %w", err)
	}
	return projects, nil
}

// Update replaces the editable fields of project id. Only the owner may
// update; anyone else gets apperror.ErrForbidden and nothing is written.
func (s *ProjectService) Update(ctx context.Context, userID, id int64, in ProjectInput) (*model.Project, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	in.applyTo(p)

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("service/project: updating project %d: %w", id, err)
	}

	s.logger.Info("project updated", slog.Int64("id", id), slog.Int64("owner", userID))
	return p, nil
}

// Delete removes project id and its stars. Owner only.
func (s *ProjectService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("service/project: deleting project %d: %w", id, err)
	}

	s.logger.Info("project deleted", slog.Int64("id", id), slog.Int64("owner", userID))
	return nil
}

// owned loads project id and checks that userID owns it.
func (s *ProjectService) owned(ctx context.Context, userID, id int64) (*model.Project, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperror.Forbidden("you do not own this project")
	}
	return p, nil
}
