package notification

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"duoadmin/domain/notification"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/infrastructure/persistence"
	"duoadmin/pkg/logger"
)

// Gateway is the upstream side of the notification feed.
type Gateway interface {
	Notifications(ctx context.Context, sess session.Session, q notification.Query) ([]notification.Notification, error)
	NotificationStats(ctx context.Context, sess session.Session) (notification.Stats, error)
	MarkNotificationRead(ctx context.Context, sess session.Session, id string) error
	MarkAllNotificationsRead(ctx context.Context, sess session.Session) error
	DeleteNotification(ctx context.Context, sess session.Session, id string) error
}

// ApplicationService serves the operator's notification dropdown.
type ApplicationService struct {
	gateway Gateway
	now     func() time.Time
}

// NewApplicationService creates the notification service.
func NewApplicationService(gateway Gateway) *ApplicationService {
	return &ApplicationService{gateway: gateway, now: time.Now}
}

// Feed returns the selected notifications, newest first, with titles, icons
// and relative ages filled in.
func (s *ApplicationService) Feed(ctx context.Context, sess session.Session, q notification.Query) ([]notification.Notification, error) {
	q.Type = notification.NormalizeType(q.Type)
	items, err := s.gateway.Notifications(ctx, sess, q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range items {
		items[i].Present(now)
	}
	notification.SortNewestFirst(items)
	return items, nil
}

// Stats returns the feed counters.
func (s *ApplicationService) Stats(ctx context.Context, sess session.Session) (notification.Stats, error) {
	stats, err := s.gateway.NotificationStats(ctx, sess)
	if err != nil {
		return notification.Stats{}, err
	}
	return stats.Clamp(), nil
}

// MarkRead marks one notification as read.
func (s *ApplicationService) MarkRead(ctx context.Context, sess session.Session, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if err := s.gateway.MarkNotificationRead(ctx, sess, id); err != nil {
		return err
	}
	s.log(ctx, sess).Debug("Notification marked read", zap.String("id", id))
	return nil
}

// MarkAllRead marks the whole feed as read.
func (s *ApplicationService) MarkAllRead(ctx context.Context, sess session.Session) error {
	if err := s.gateway.MarkAllNotificationsRead(ctx, sess); err != nil {
		return err
	}
	s.log(ctx, sess).Info("All notifications marked read")
	return nil
}

// Delete removes one notification.
func (s *ApplicationService) Delete(ctx context.Context, sess session.Session, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if err := s.gateway.DeleteNotification(ctx, sess, id); err != nil {
		return err
	}
	s.log(ctx, sess).Info("Notification deleted", zap.String("id", id))
	return nil
}

func (s *ApplicationService) log(ctx context.Context, sess session.Session) *zap.Logger {
	return logger.WithRequestID(persistence.RequestIDFromContext(ctx)).With(zap.String("actor", sess.Actor()))
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", shared.NewValidationError("notifications", "id", "notification id is required")
	}
	return id, nil
}
