package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"duoadmin/domain/notification"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
)

func TestClient_NotificationsRoutes(t *testing.T) {
	tests := []struct {
		name     string
		query    notification.Query
		wantPath string
	}{
		{"all", notification.Query{}, "/api/admin/notifications"},
		{"unread", notification.Query{UnreadOnly: true}, "/api/admin/notifications/unread"},
		{"by type", notification.Query{Type: "TOPUP", UnreadOnly: true}, "/api/admin/notifications/type/TOPUP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_, _ = w.Write([]byte(`[]`))
			})
			if _, err := c.Notifications(context.Background(), session.FromToken("tok"), tt.query); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
		})
	}
}

func TestClient_NotificationsNormalized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"type":"TOPUP","content":"Nạp 50000","isRead":false,"createdAt":"2024-06-01T10:00:00"},
			{"id":"2","type":"REPORT","message":"Báo cáo mới","read":"true","createdAt":[2024,6,2,8,30,0]},
			{"type":"DONATE","content":"no id"}
		]}`))
	})

	got, err := c.Notifications(context.Background(), session.FromToken("tok"), notification.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "1" || got[0].Content != "Nạp 50000" || got[0].Read || got[0].CreatedAt == nil {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Content != "Báo cáo mới" || !got[1].Read || got[1].CreatedAt == nil || got[1].CreatedAt.Day() != 2 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestClient_NotificationStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/notifications/stats" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"total":"12","unread":3}`))
	})

	stats, err := c.NotificationStats(context.Background(), session.FromToken("tok"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 12 || stats.Unread != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClient_NotificationMutations(t *testing.T) {
	type call struct{ method, path string }
	var got []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, call{r.Method, r.URL.Path})
		if r.URL.Path == "/api/admin/notifications/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx, sess := context.Background(), session.FromToken("tok")

	if err := c.MarkNotificationRead(ctx, sess, "7"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := c.MarkAllNotificationsRead(ctx, sess); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if err := c.DeleteNotification(ctx, sess, "7"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteNotification(ctx, sess, "404"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("delete missing err = %v, want ErrNotFound", err)
	}

	want := []call{
		{http.MethodPost, "/api/admin/notifications/7/read"},
		{http.MethodPost, "/api/admin/notifications/mark-all-read"},
		{http.MethodDelete, "/api/admin/notifications/7"},
		{http.MethodDelete, "/api/admin/notifications/404"},
	}
	if len(got) != len(want) {
		t.Fatalf("calls = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
}
