package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// ProfileInput carries the editable fields of a profile. Follower counts
// are maintained by the follow ledger and are not accepted here.
type ProfileInput struct {
	AvatarURL string   `json:"avatarUrl" validate:"omitempty,http_url"`
	Bio       string   `json:"bio"       validate:"max=1000"`
	Location  string   `json:"location"  validate:"max=100"`
	Website   string   `json:"website"   validate:"omitempty,http_url"`
	GitHub    string   `json:"github"    validate:"max=100"`
	Twitter   string   `json:"twitter"   validate:"max=100"`
	LinkedIn  string   `json:"linkedin"  validate:"max=200"`
	Skills    []string `json:"skills"    validate:"max=50,dive,max=50"`
}

type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, profiles: profiles, logger: logger}
}

// GetProfile returns the user together with their profile. A user who
// never edited their profile and was never followed gets a zero profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*model.UserWithProfile, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	var (
		user    *model.User
		profile *model.Profile
	)

	// The two reads are independent; errgroup cancels the other on failure.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.GetUserByID(gctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, userID)
		if errors.Is(err, apperror.ErrNotFound) {
			p, err = &model.Profile{UserID: userID, Skills: model.StringList{}}, nil
		}
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/profile: loading user %d: %w", userID, err)
	}

	return &model.UserWithProfile{User: user, Profile: profile}, nil
}

// UpdateProfile writes userID's own profile. There is no way to address
// another user's profile through this method.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*model.Profile, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	in.Website = strings.TrimSpace(in.Website)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Location = strings.TrimSpace(in.Location)
	in.Skills = trimAll(in.Skills)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	p := &model.Profile{
		UserID:    userID,
		AvatarURL: in.AvatarURL,
		Bio:       in.Bio,
		Location:  in.Location,
		Website:   in.Website,
		GitHub:    strings.TrimSpace(in.GitHub),
		Twitter:   strings.TrimSpace(in.Twitter),
		LinkedIn:  strings.TrimSpace(in.LinkedIn),
		Skills:    in.Skills,
	}
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("service/profile: saving profile of user %d: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.Int64("userId", userID))
	return p, nil
}
