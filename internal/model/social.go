package model

import "time"

// StarTarget names the kind of content a star points at.
type StarTarget string

const (
	StarTargetProject StarTarget = "project"
	StarTargetSnippet StarTarget = "snippet"
)

// Valid reports whether t is a starrable kind.
func (t StarTarget) Valid() bool {
	return t == StarTargetProject || t == StarTargetSnippet
}

// Star is a (user, target) pair. At most one exists per pair.
type Star struct {
	UserID    int64      `json:"userId"    db:"user_id"`
	Target    StarTarget `json:"target"    db:"-"`
	TargetID  int64      `json:"targetId"  db:"target_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Follow is a directed (follower → following) edge. Self-edges never exist.
type Follow struct {
	FollowerID  int64     `json:"followerId"  db:"follower_id"`
	FollowingID int64     `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
