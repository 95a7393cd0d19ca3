package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"duoadmin/domain/notification"
	"duoadmin/domain/session"
)

const (
	notificationsEntity = "notifications"
	notificationsPath   = "/admin/notifications"
)

// Notifications fetches the operator's feed, or the part of it q selects.
func (c *Client) Notifications(ctx context.Context, sess session.Session, q notification.Query) ([]notification.Notification, error) {
	path := notificationsPath
	switch {
	case q.Type != "":
		path += "/type/" + url.PathEscape(q.Type)
	case q.UnreadOnly:
		path += "/unread"
	}
	body, err := c.do(ctx, sess, notificationsEntity, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return notifications(body), nil
}

// NotificationStats fetches the feed counters.
func (c *Client) NotificationStats(ctx context.Context, sess session.Session) (notification.Stats, error) {
	body, err := c.do(ctx, sess, notificationsEntity, http.MethodGet, notificationsPath+"/stats", nil)
	if err != nil {
		return notification.Stats{}, err
	}
	r := gjson.ParseBytes(body)
	if d := r.Get("data"); d.IsObject() {
		r = d
	}
	return notification.Stats{
		Total:  int(Number(firstPresent(r, "total", "totalCount"))),
		Unread: int(Number(firstPresent(r, "unread", "unreadCount"))),
	}, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, sess session.Session, id string) error {
	_, err := c.do(ctx, sess, notificationsEntity, http.MethodPost, notificationsPath+"/"+url.PathEscape(id)+"/read", struct{}{})
	return err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, sess session.Session) error {
	_, err := c.do(ctx, sess, notificationsEntity, http.MethodPost, notificationsPath+"/mark-all-read", struct{}{})
	return err
}

func (c *Client) DeleteNotification(ctx context.Context, sess session.Session, id string) error {
	_, err := c.do(ctx, sess, notificationsEntity, http.MethodDelete, notificationsPath+"/"+url.PathEscape(id), nil)
	return err
}

// notifications normalizes a feed payload. Entries without an id are dropped.
func notifications(body []byte) []notification.Notification {
	records := listPayload(body)
	out := make([]notification.Notification, 0, len(records))
	for _, r := range records {
		id := text(r.Get("id"))
		if id == "" {
			continue
		}
		n := notification.Notification{
			ID:      id,
			Type:    text(r.Get("type")),
			Content: text(firstPresent(r, "content", "message")),
			Read:    flag(firstPresent(r, "isRead", "read"), false),
		}
		if t, ok := Time(r.Get("createdAt")); ok {
			n.CreatedAt = &t
		}
		out = append(out, n)
	}
	return out
}
