// Package repository declares the storage contracts the service layer depends on.
//
// Services import only this package; the sqlite package provides the one
// concrete implementation (*sqlite.DB satisfies every interface here).
// Service tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/devfolio/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ContentFilter narrows project and snippet listings.
type ContentFilter struct {
	UserID int64 // 0 = all owners
	// Language applies to snippets only; empty = any.
	Language string
	// IncludePrivate lists private rows too. Services set it only when the
	// caller owns the listing.
	IncludePrivate bool
	ListOptions
}

// TxManager runs fn inside one database transaction. Repository calls made
// with the ctx passed to fn join that transaction; a nested RunInTx joins
// the outer one instead of opening a second.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	// UpsertByOpenID creates the user on first login and refreshes name,
	// email, role and last sign-in on later ones. user.ID is filled in.
	UpsertByOpenID(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

type ProfileRepository interface {
	// GetProfile returns apperror.ErrNotFound when no profile row exists yet.
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	// UpsertProfile writes the editable fields; counters are never touched.
	UpsertProfile(ctx context.Context, profile *model.Profile) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProjectByID(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context, filter ContentFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id int64) error
	IncrementProjectViews(ctx context.Context, id int64) error
}

type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error
	GetSnippetByID(ctx context.Context, id int64) (*model.Snippet, error)
	ListSnippets(ctx context.Context, filter ContentFilter) ([]model.Snippet, error)
	UpdateSnippet(ctx context.Context, snippet *model.Snippet) error
	DeleteSnippet(ctx context.Context, id int64) error
	IncrementSnippetViews(ctx context.Context, id int64) error
}

// StarLedger records stars and keeps each target's star_count in step.
//
// Every method is idempotent with respect to the final state: adding an
// existing star or removing a missing one returns (false, nil) and leaves
// the counter untouched. The bool reports whether state actually changed.
type StarLedger interface {
	AddStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error)
	RemoveStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error)
	HasStar(ctx context.Context, target model.StarTarget, userID, targetID int64) (bool, error)
}

// FollowLedger records follow edges and keeps both users' profile counters
// in step. Same idempotency contract as StarLedger.
type FollowLedger interface {
	AddFollow(ctx context.Context, followerID, followingID int64) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followingID int64) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	// ListNotifications returns the newest first.
	ListNotifications(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error)
	// MarkNotificationRead reports false when no notification with that id
	// belongs to recipientID.
	MarkNotificationRead(ctx context.Context, recipientID, notificationID int64) (bool, error)
	CountUnread(ctx context.Context, recipientID int64) (int64, error)
}
