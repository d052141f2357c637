package model

import "time"

// Profile holds the public, editable part of a user's page plus the
// follower/following counters maintained by the follow ledger.
//
// A profile row is created lazily: either on the user's first edit or on
// the first follow that touches them. Until then, readers see a zero Profile.
type Profile struct {
	UserID         int64      `json:"userId"         db:"user_id"`
	AvatarURL      string     `json:"avatarUrl"      db:"avatar_url"`
	Bio            string     `json:"bio"            db:"bio"`
	Location       string     `json:"location"       db:"location"`
	Website        string     `json:"website"        db:"website"`
	GitHub         string     `json:"github"         db:"github"`
	Twitter        string     `json:"twitter"        db:"twitter"`
	LinkedIn       string     `json:"linkedin"       db:"linkedin"`
	Skills         StringList `json:"skills"         db:"skills"`
	FollowerCount  int64      `json:"followerCount"  db:"follower_count"`
	FollowingCount int64      `json:"followingCount" db:"following_count"`
	CreatedAt      time.Time  `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt"      db:"updated_at"`
}

// UserWithProfile is what the public profile page shows.
type UserWithProfile struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
}
