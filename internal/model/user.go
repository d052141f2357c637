// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account.
//
// OpenID is the external identity handed to us by the login provider,
// namespaced by provider (e.g. "github:1234567"). It is UNIQUE in the
// database, so one external account always maps to one internal user.
// The internal ID is a plain autoincrement integer; every relationship
// (ownership, stars, follows, notifications) refers to it.
type User struct {
	ID           int64     `json:"id"           db:"id"`
	OpenID       string    `json:"-"            db:"open_id"`
	Name         string    `json:"name"         db:"name"`
	Email        string    `json:"email"        db:"email"` // may be empty if hidden by the provider
	LoginMethod  string    `json:"loginMethod"  db:"login_method"`
	Role         Role      `json:"role"         db:"role"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
	LastSignedIn time.Time `json:"lastSignedIn" db:"last_signed_in"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
