package model

import "time"

// Visibility controls who can list and read a project or snippet.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibilities.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Project is a portfolio entry owned by one user.
//
// StarCount and ViewCount are derived counters. They are only ever changed
// by single-statement SQL arithmetic in the repository, never assigned from Go.
type Project struct {
	ID            int64      `json:"id"            db:"id"`
	UserID        int64      `json:"userId"        db:"user_id"`
	Title         string     `json:"title"         db:"title"`
	Description   string     `json:"description"   db:"description"`
	ReadmeContent string     `json:"readmeContent" db:"readme_content"`
	RepositoryURL string     `json:"repositoryUrl" db:"repository_url"`
	LiveURL       string     `json:"liveUrl"       db:"live_url"`
	ThumbnailURL  string     `json:"thumbnailUrl"  db:"thumbnail_url"`
	TechStack     StringList `json:"techStack"     db:"tech_stack"`
	Tags          StringList `json:"tags"          db:"tags"`
	StarCount     int64      `json:"starCount"     db:"star_count"`
	ViewCount     int64      `json:"viewCount"     db:"view_count"`
	Featured      bool       `json:"featured"      db:"featured"`
	Visibility    Visibility `json:"visibility"    db:"visibility"`
	CreatedAt     time.Time  `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt"     db:"updated_at"`
}
