package model

import "time"

// Snippet represents a shared piece of code.
// Like Project, its counters are owned by the repository.
type Snippet struct {
	ID          int64      `json:"id"          db:"id"`
	UserID      int64      `json:"userId"      db:"user_id"`
	Title       string     `json:"title"       db:"title"`
	Description string     `json:"description" db:"description"`
	Code        string     `json:"code"        db:"code"`
	Language    string     `json:"language"    db:"language"`
	Tags        StringList `json:"tags"        db:"tags"`
	StarCount   int64      `json:"starCount"   db:"star_count"`
	ViewCount   int64      `json:"viewCount"   db:"view_count"`
	Visibility  Visibility `json:"visibility"  db:"visibility"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`
}
