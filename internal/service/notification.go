package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/metrics"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// NotifyInput describes one notification to append.
type NotifyInput struct {
	RecipientID int64                    `json:"recipientId" validate:"gt=0"`
	ActorID     int64                    `json:"actorId"     validate:"gt=0"`
	Kind        model.NotificationKind   `json:"kind"        validate:"oneof=star follow comment"`
	TargetKind  model.NotificationTarget `json:"targetKind"  validate:"oneof=project snippet profile"`
	TargetID    *int64                   `json:"targetId"    validate:"omitempty,gt=0"`
	Message     *string                  `json:"message"     validate:"omitempty,max=500"`
}

// Notifier appends notifications. SocialService depends on this interface
// so its tests can observe or break delivery.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (*model.Notification, error)
}

// NotificationService owns the notification sink: appending on behalf of
// other services and the recipient-facing read operations.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *slog.Logger
}

var _ Notifier = (*NotificationService)(nil)

func NewNotificationService(repo repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// Notify validates in and appends exactly one notification. It touches no
// counters. Callers decide whether a notification is due; Notify never
// second-guesses them.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*model.Notification, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	n := &model.Notification{
		RecipientID: in.RecipientID,
		ActorID:     in.ActorID,
		Kind:        in.Kind,
		TargetKind:  in.TargetKind,
		TargetID:    in.TargetID,
		Message:     in.Message,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("service/notification: appending %s notification: %w", in.Kind, err)
	}

	metrics.NotificationsEmittedTotal.WithLabelValues(string(in.Kind)).Inc()
	s.logger.Debug("notification appended",
		slog.Int64("id", n.ID),
		slog.Int64("recipient", n.RecipientID),
		slog.String("kind", string(n.Kind)),
	)
	return n, nil
}

// List returns up to limit notifications for userID, newest first.
//
// A store that is temporarily unavailable yields an empty list instead of
// an error: the notification panel is secondary and should not break the
// page around it. Every other failure propagates.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	list, err := s.repo.ListNotifications(ctx, userID, clampLimit(limit))
	if err != nil {
		if errors.Is(err, apperror.ErrUnavailable) {
			s.logger.Warn("notification list degraded to empty",
				slog.Int64("userId", userID),
				slog.String("error", err.Error()),
			)
			return []model.Notification{}, nil
		}
		return nil, fmt.Errorf("service/notification: listing for user %d: %w", userID, err)
	}
	return list, nil
}

// MarkAsRead marks notificationID read if it belongs to userID. A
// notification addressed to someone else is reported as not found, so
// callers cannot probe for other users' ids.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	if err := requireID("userId", userID); err != nil {
		return false, err
	}
	if err := requireID("id", notificationID); err != nil {
		return false, err
	}

	ok, err := s.repo.MarkNotificationRead(ctx, userID, notificationID)
	if err != nil {
		return false, fmt.Errorf("service/notification: marking %d read: %w", notificationID, err)
	}
	if !ok {
		return false, apperror.NotFound("notification", notificationID)
	}
	return true, nil
}

// UnreadCount returns the number of unread notifications for userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if err := requireID("userId", userID); err != nil {
		return 0, err
	}

	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service/notification: counting unread for user %d: %w", userID, err)
	}
	return n, nil
}
