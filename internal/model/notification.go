package model

import "time"

// NotificationKind is what happened.
type NotificationKind string

const (
	NotificationStar    NotificationKind = "star"
	NotificationFollow  NotificationKind = "follow"
	NotificationComment NotificationKind = "comment"
)

// Valid reports whether k is a known kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationStar, NotificationFollow, NotificationComment:
		return true
	}
	return false
}

// NotificationTarget is what it happened to.
type NotificationTarget string

const (
	TargetProject NotificationTarget = "project"
	TargetSnippet NotificationTarget = "snippet"
	TargetProfile NotificationTarget = "profile"
)

// Valid reports whether t is a known target kind.
func (t NotificationTarget) Valid() bool {
	switch t {
	case TargetProject, TargetSnippet, TargetProfile:
		return true
	}
	return false
}

// Notification is an append-only record addressed to RecipientID.
// Only Read changes after creation.
type Notification struct {
	ID          int64              `json:"id"                 db:"id"`
	RecipientID int64              `json:"recipientId"        db:"recipient_id"`
	ActorID     int64              `json:"actorId"            db:"actor_id"`
	Kind        NotificationKind   `json:"kind"               db:"kind"`
	TargetKind  NotificationTarget `json:"targetKind"         db:"target_kind"`
	TargetID    *int64             `json:"targetId,omitempty" db:"target_id"`
	Message     *string            `json:"message,omitempty"  db:"message"`
	Read        bool               `json:"read"               db:"is_read"`
	CreatedAt   time.Time          `json:"createdAt"          db:"created_at"`
}
