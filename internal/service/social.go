package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/metrics"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// SocialService orchestrates stars and follows.
//
// THE ORDER OF EVERY MUTATION:
//
//	validate ids → resolve target → ledger (row + counter, one tx) → notify
//
// The ledger reports whether state actually changed. Notify runs only on a
// real transition and only after the ledger transaction committed, so a
// duplicate star or a repeated follow never produces a notification, and a
// failed notification never undoes the star or follow.
type SocialService struct {
	stars    repository.StarLedger
	follows  repository.FollowLedger
	projects repository.ProjectRepository
	snippets repository.SnippetRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *slog.Logger
}

// SocialDeps groups the collaborators of SocialService. *sqlite.DB
// satisfies every repository field.
type SocialDeps struct {
	Stars    repository.StarLedger
	Follows  repository.FollowLedger
	Projects repository.ProjectRepository
	Snippets repository.SnippetRepository
	Users    repository.UserRepository
	Notifier Notifier
}

func NewSocialService(deps SocialDeps, logger *slog.Logger) *SocialService {
	return &SocialService{
		stars:    deps.Stars,
		follows:  deps.Follows,
		projects: deps.Projects,
		snippets: deps.Snippets,
		users:    deps.Users,
		notifier: deps.Notifier,
		logger:   logger,
	}
}

// =========================================================================
// STARS
// =========================================================================

// StarProject stars projectID on behalf of userID. It returns true when a
// new star was recorded and false when the user had already starred it.
func (s *SocialService) StarProject(ctx context.Context, userID, projectID int64) (bool, error) {
	return s.star(ctx, model.StarTargetProject, userID, projectID)
}

// UnstarProject removes the star. It succeeds whether or not one existed.
func (s *SocialService) UnstarProject(ctx context.Context, userID, projectID int64) (bool, error) {
	return s.unstar(ctx, model.StarTargetProject, userID, projectID)
}

func (s *SocialService) IsProjectStarred(ctx context.Context, userID, projectID int64) (bool, error) {
	return s.isStarred(ctx, model.StarTargetProject, userID, projectID)
}

func (s *SocialService) StarSnippet(ctx context.Context, userID, snippetID int64) (bool, error) {
	return s.star(ctx, model.StarTargetSnippet, userID, snippetID)
}

func (s *SocialService) UnstarSnippet(ctx context.Context, userID, snippetID int64) (bool, error) {
	return s.unstar(ctx, model.StarTargetSnippet, userID, snippetID)
}

func (s *SocialService) IsSnippetStarred(ctx context.Context, userID, snippetID int64) (bool, error) {
	return s.isStarred(ctx, model.StarTargetSnippet, userID, snippetID)
}

func (s *SocialService) star(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	if err := validateStarArgs(target, userID, targetID); err != nil {
		return false, err
	}

	ownerID, err := s.resolveOwner(ctx, target, userID, targetID)
	if err != nil {
		s.record("star", string(target), metrics.ResultError)
		return false, err
	}

	added, err := s.stars.AddStar(ctx, target, userID, targetID)
	if err != nil {
		s.record("star", string(target), metrics.ResultError)
		return false, fmt.Errorf("service/social: starring %s %d: %w", target, targetID, err)
	}
	if !added {
		s.record("star", string(target), metrics.ResultNoop)
		return false, nil
	}
	s.record("star", string(target), metrics.ResultChanged)

	// Self-stars count but do not notify.
	if ownerID != userID {
		tid := targetID
		s.notify(ctx, NotifyInput{
			RecipientID: ownerID,
			ActorID:     userID,
			Kind:        model.NotificationStar,
			TargetKind:  notificationTargetFor(target),
			TargetID:    &tid,
		})
	}
	return true, nil
}

func (s *SocialService) unstar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	if err := validateStarArgs(target, userID, targetID); err != nil {
		return false, err
	}

	removed, err := s.stars.RemoveStar(ctx, target, userID, targetID)
	if err != nil {
		s.record("unstar", string(target), metrics.ResultError)
		return false, fmt.Errorf("service/social: unstarring %s %d: %w", target, targetID, err)
	}
	if removed {
		s.record("unstar", string(target), metrics.ResultChanged)
	} else {
		s.record("unstar", string(target), metrics.ResultNoop)
	}
	return true, nil
}

func (s *SocialService) isStarred(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	if err := validateStarArgs(target, userID, targetID); err != nil {
		return false, err
	}

	ok, err := s.stars.HasStar(ctx, target, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("service/social: checking %s star: %w", target, err)
	}
	return ok, nil
}

// resolveOwner loads the target and returns its owner. Private content is
// reported as missing to everyone but its owner.
func (s *SocialService) resolveOwner(ctx context.Context, target model.StarTarget, userID, targetID int64) (int64, error) {
	var (
		ownerID    int64
		visibility model.Visibility
	)
	switch target {
	case model.StarTargetProject:
		p, err := s.projects.GetProjectByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		ownerID, visibility = p.UserID, p.Visibility
	case model.StarTargetSnippet:
		sn, err := s.snippets.GetSnippetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		ownerID, visibility = sn.UserID, sn.Visibility
	default:
		return 0, apperror.ValidationFailed("target", fmt.Sprintf("unknown star target %q", target))
	}

	if visibility == model.VisibilityPrivate && ownerID != userID {
		return 0, apperror.NotFound(string(target), targetID)
	}
	return ownerID, nil
}

func validateStarArgs(target model.StarTarget, userID, targetID int64) error {
	if !target.Valid() {
		return apperror.ValidationFailed("target", fmt.Sprintf("unknown star target %q", target))
	}
	if err := requireID("userId", userID); err != nil {
		return err
	}
	return requireID(string(target)+"Id", targetID)
}

func notificationTargetFor(target model.StarTarget) model.NotificationTarget {
	if target == model.StarTargetSnippet {
		return model.TargetSnippet
	}
	return model.TargetProject
}

// =========================================================================
// FOLLOWS
// =========================================================================

// FollowUser makes followerID follow followingID. Following yourself is
// rejected with apperror.ErrSelfReference before anything is read or
// written. Returns false if the edge already existed.
func (s *SocialService) FollowUser(ctx context.Context, followerID, followingID int64) (bool, error) {
	if followerID == followingID {
		s.record("follow", "user", metrics.ResultError)
		return false, apperror.SelfReference("you cannot follow yourself")
	}
	if err := validateFollowArgs(followerID, followingID); err != nil {
		return false, err
	}

	if _, err := s.users.GetUserByID(ctx, followingID); err != nil {
		s.record("follow", "user", metrics.ResultError)
		return false, err
	}

	added, err := s.follows.AddFollow(ctx, followerID, followingID)
	if err != nil {
		s.record("follow", "user", metrics.ResultError)
		return false, fmt.Errorf("service/social: following user %d: %w", followingID, err)
	}
	if !added {
		s.record("follow", "user", metrics.ResultNoop)
		return false, nil
	}
	s.record("follow", "user", metrics.ResultChanged)

	s.notify(ctx, NotifyInput{
		RecipientID: followingID,
		ActorID:     followerID,
		Kind:        model.NotificationFollow,
		TargetKind:  model.TargetProfile,
	})
	return true, nil
}

// UnfollowUser removes the edge. It succeeds whether or not one existed.
func (s *SocialService) UnfollowUser(ctx context.Context, followerID, followingID int64) (bool, error) {
	if err := validateFollowArgs(followerID, followingID); err != nil {
		return false, err
	}

	removed, err := s.follows.RemoveFollow(ctx, followerID, followingID)
	if err != nil {
		s.record("unfollow", "user", metrics.ResultError)
		return false, fmt.Errorf("service/social: unfollowing user %d: %w", followingID, err)
	}
	if removed {
		s.record("unfollow", "user", metrics.ResultChanged)
	} else {
		s.record("unfollow", "user", metrics.ResultNoop)
	}
	return true, nil
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	if err := validateFollowArgs(followerID, followingID); err != nil {
		return false, err
	}

	ok, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("service/social: checking follow: %w", err)
	}
	return ok, nil
}

func validateFollowArgs(followerID, followingID int64) error {
	if err := requireID("followerId", followerID); err != nil {
		return err
	}
	return requireID("userId", followingID)
}

// =========================================================================
// HELPERS
// =========================================================================

// notify delivers a notification after the triggering change committed.
// Failures are logged and counted; the caller's result stands.
func (s *SocialService) notify(ctx context.Context, in NotifyInput) {
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(string(in.Kind)).Inc()
		level := slog.LevelError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "notification dropped",
			slog.String("kind", string(in.Kind)),
			slog.Int64("recipient", in.RecipientID),
			slog.Int64("actor", in.ActorID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *SocialService) record(action, target, result string) {
	metrics.SocialActionsTotal.WithLabelValues(action, target, result).Inc()
}
