package service

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/model"
)

func newTestAuthService(t *testing.T, store *fakeStore, owner string) *AuthService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(store, ts, owner, quietLogger())
}

// =========================================================================
// LoginOrRegisterGitHub TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeStore(), "")

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    42,
		Login: "octocat",
		Email: "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	if result.Token == "" {
		t.Fatal("LoginOrRegisterGitHub() returned empty Token")
	}
	if result.User.ID == 0 {
		t.Error("User.ID should be set after upsert")
	}
	if result.User.OpenID != "github:42" {
		t.Errorf("OpenID = %q, want github:42", result.User.OpenID)
	}
	if result.User.Name != "octocat" {
		t.Errorf("Name = %q, want login as fallback", result.User.Name)
	}
	if result.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want user", result.User.Role)
	}
}

func TestLoginOrRegisterGitHub_SecondLoginKeepsID(t *testing.T) {
	svc := newTestAuthService(t, newFakeStore(), "")
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "old-login"})
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "new-login", Name: "New Name"})
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Errorf("ID changed: %d → %d", first.User.ID, second.User.ID)
	}
	if second.User.Name != "New Name" {
		t.Errorf("Name = %q, want refreshed display name", second.User.Name)
	}
}

func TestLoginOrRegisterGitHub_OwnerIsAdmin(t *testing.T) {
	svc := newTestAuthService(t, newFakeStore(), "github:1")

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "owner"})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if !result.User.IsAdmin() {
		t.Errorf("Role = %q, want admin", result.User.Role)
	}
}

func TestLoginOrRegisterGitHub_TokenCarriesUserID(t *testing.T) {
	svc := newTestAuthService(t, newFakeStore(), "")

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 5, Login: "x"})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	userID, err := svc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("token subject = %d, want %d", userID, result.User.ID)
	}
}

func TestLoginOrRegisterGitHub_EmptyUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeStore(), "")

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Error("nil GitHub user should fail")
	}
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{Login: "no-id"}); err == nil {
		t.Error("GitHub user without id should fail")
	}
}

// =========================================================================
// Me TESTS
// =========================================================================

func TestMe(t *testing.T) {
	store := newFakeStore()
	store.addUser(7, "grace")
	svc := newTestAuthService(t, store, "")

	u, err := svc.Me(context.Background(), 7)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if u.Name != "grace" {
		t.Errorf("Name = %q, want grace", u.Name)
	}

	if _, err := svc.Me(context.Background(), 8); err == nil {
		t.Error("Me() for unknown user should fail")
	}
}
