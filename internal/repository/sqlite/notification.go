package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.NotificationRepository = (*DB)(nil)

var notificationColumns = []string{
	"id", "recipient_id", "actor_id", "kind", "target_kind", "target_id", "message", "is_read", "created_at",
}

// CreateNotification appends n and fills in ID and CreatedAt.
func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	now := time.Now().UTC()

	query, args, err := sb.Insert("notifications").
		Columns("recipient_id", "actor_id", "kind", "target_kind", "target_id", "message", "is_read", "created_at").
		Values(n.RecipientID, n.ActorID, n.Kind, n.TargetKind, n.TargetID, n.Message, false, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building notification insert: %w", err)
	}

	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: inserting notification: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading notification id: %w", err)
	}

	n.ID = id
	n.Read = false
	n.CreatedAt = now
	return nil
}

// ListNotifications returns up to limit notifications for recipientID,
// newest first. Ids are assigned in insertion order, so ordering by id is
// exact even when two rows share a timestamp.
func (db *DB) ListNotifications(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	query, args, err := sb.Select(notificationColumns...).From("notifications").
		Where(sq.Eq{"recipient_id": recipientID}).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building notification list: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications: %w", mapError(err))
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.ActorID,
			&n.Kind,
			&n.TargetKind,
			&n.TargetID,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notifications: %w", mapError(err))
	}

	return out, nil
}

// MarkNotificationRead flips is_read for a notification addressed to
// recipientID. Marking an already-read notification still reports true.
func (db *DB) MarkNotificationRead(ctx context.Context, recipientID, notificationID int64) (bool, error) {
	query, args, err := sb.Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"id": notificationID, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("sqlite: building notification update: %w", err)
	}

	n, err := db.execCount(ctx, query, args)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking notification %d read: %w", notificationID, err)
	}
	return n > 0, nil
}

// CountUnread returns how many unread notifications recipientID has.
func (db *DB) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	query, args, err := sb.Select("COUNT(*)").From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("sqlite: building unread count: %w", err)
	}

	var count int64
	if err := db.q(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications: %w", mapError(err))
	}
	return count, nil
}
