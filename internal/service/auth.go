package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// AuthService handles the authentication business logic.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT)
//
// It never sets cookies or reads requests; that is the handler's job.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	ownerOpenID string
	logger      *slog.Logger
}

// NewAuthService wires the service. ownerOpenID, when non-empty, is the
// external identity (e.g. "github:1234") that receives the admin role.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, ownerOpenID string, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		ownerOpenID: ownerOpenID,
		logger:      logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// GitHubOpenID is the namespaced external identity of a GitHub account.
func GitHubOpenID(githubID int64) string {
	return fmt.Sprintf("github:%d", githubID)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: it upserts the
// user by OpenID (create on first login, refresh name/email/last sign-in
// afterwards) and issues a session token.
//
// GitHub's numeric id is stable, the login name is not, so the id is what
// the OpenID is built from.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, errors.New("service/auth: GitHub user must not be empty")
	}

	name := strings.TrimSpace(ghUser.Name)
	if name == "" {
		name = ghUser.Login
	}

	user := &model.User{
		OpenID:      GitHubOpenID(ghUser.ID),
		Name:        name,
		Email:       ghUser.Email,
		LoginMethod: "github",
		Role:        model.RoleUser,
	}
	if s.ownerOpenID != "" && user.OpenID == s.ownerOpenID {
		user.Role = model.RoleAdmin
	}

	if err := s.users.UpsertByOpenID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user %s: %w", user.OpenID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userId", user.ID),
		slog.String("login", ghUser.Login),
		slog.String("role", string(user.Role)),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the user record of the authenticated caller (the /api/me
// endpoint).
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}
	return user, nil
}

// ValidateToken returns the user id encoded in tokenStr.
func (s *AuthService) ValidateToken(tokenStr string) (int64, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return 0, fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
