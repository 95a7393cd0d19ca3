package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duoadmin/api/middleware"
	"duoadmin/api/response"
	notificationapp "duoadmin/application/notification"
	"duoadmin/config"
	"duoadmin/domain/notification"
	"duoadmin/infrastructure/upstream"

	"github.com/gin-gonic/gin"
)

// newTestEngine serves the controller against a fake marketplace API.
func newTestEngine(t *testing.T) (*gin.Engine, *[]string) {
	t.Helper()
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/notifications", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"type":"TOPUP","content":"Nạp 50000","isRead":false},{"id":2,"type":"SYSTEM","message":"Bảo trì","isRead":true}]`))
	})
	mux.HandleFunc("GET /admin/notifications/unread", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"type":"TOPUP","content":"Nạp 50000","isRead":false}]`))
	})
	mux.HandleFunc("GET /admin/notifications/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":2,"unread":1}`))
	})
	mux.HandleFunc("POST /admin/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "read "+r.PathValue("id"))
	})
	mux.HandleFunc("POST /admin/notifications/mark-all-read", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "read all")
	})
	mux.HandleFunc("DELETE /admin/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			http.NotFound(w, r)
			return
		}
		calls = append(calls, "delete "+r.PathValue("id"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := upstream.New(config.UpstreamConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	v1 := r.Group("/api/v1", middleware.SessionMiddleware())
	NewController(notificationapp.NewApplicationService(client)).RegisterRoutes(v1)
	return r, &calls
}

func do(r *gin.Engine, method, path string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer operator-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func decode[T any](t *testing.T, data any) T {
	t.Helper()
	var out T
	raw, _ := json.Marshal(data)
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestList(t *testing.T) {
	r, _ := newTestEngine(t)

	w, resp := do(r, http.MethodGet, "/api/v1/notifications")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	items := decode[[]notification.Notification](t, resp.Data)
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Title != "Nạp tiền" || items[1].Title != "Thông báo" || items[1].Content != "Bảo trì" {
		t.Errorf("items = %+v", items)
	}

	_, resp = do(r, http.MethodGet, "/api/v1/notifications?unread=true")
	if unread := decode[[]notification.Notification](t, resp.Data); len(unread) != 1 || unread[0].Read {
		t.Errorf("unread = %+v", unread)
	}
}

func TestStats(t *testing.T) {
	r, _ := newTestEngine(t)
	w, resp := do(r, http.MethodGet, "/api/v1/notifications/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if stats := decode[notification.Stats](t, resp.Data); stats.Total != 2 || stats.Unread != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMutations(t *testing.T) {
	r, calls := newTestEngine(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodPost, "/api/v1/notifications/7/read", http.StatusNoContent},
		{http.MethodPost, "/api/v1/notifications/read-all", http.StatusNoContent},
		{http.MethodDelete, "/api/v1/notifications/7", http.StatusNoContent},
		{http.MethodDelete, "/api/v1/notifications/404", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w, _ := do(r, tt.method, tt.path); w.Code != tt.wantStatus {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
		}
	}

	want := []string{"read 7", "read all", "delete 7"}
	if len(*calls) != len(want) {
		t.Fatalf("upstream calls = %v", *calls)
	}
	for i := range want {
		if (*calls)[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, (*calls)[i], want[i])
		}
	}
}

func TestMissingToken(t *testing.T) {
	r, _ := newTestEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
