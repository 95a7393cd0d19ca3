package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"duoadmin/api/middleware"
	"duoadmin/api/response"
	consoleapp "duoadmin/application/console"
	"duoadmin/config"
	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
	"duoadmin/infrastructure/inflight"
	"duoadmin/infrastructure/persistence/mocks"

	"github.com/gin-gonic/gin"
)

type stubLoader map[entity.Entity][]listing.Item

func (s stubLoader) List(_ context.Context, _ session.Session, e entity.Entity) ([]listing.Item, error) {
	return s[e], nil
}

func (s stubLoader) Detail(_ context.Context, _ session.Session, e entity.Entity, id string) (listing.Item, error) {
	for _, it := range s[e] {
		if it.ID == id {
			return it, nil
		}
	}
	return listing.Item{}, shared.NewNotFoundError(string(e), id)
}

type stubExecutor map[action.Op]error

func (s stubExecutor) Execute(_ context.Context, _ session.Session, step action.Step) error {
	return s[step.Op]
}

func item(e entity.Entity, id, st string, fields map[string]string, numbers map[string]float64) listing.Item {
	return listing.Item{ID: id, Entity: e, StatusRaw: st, Status: status.Resolve(e, st), Fields: fields, Numbers: numbers}
}

func newTestEngine(exec stubExecutor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	loader := stubLoader{
		entity.Order: {
			item(entity.Order, "1", status.OrderPending, map[string]string{"renterName": "John"}, map[string]float64{"price": 50}),
			item(entity.Order, "2", status.OrderCompleted, map[string]string{"renterName": "Jane"}, map[string]float64{"price": 150}),
		},
		entity.Report: {
			item(entity.Report, "r1", status.ReportPending, map[string]string{"reportedPlayerId": "p7", "reason": "Toxic"}, nil),
		},
	}
	svc := consoleapp.NewApplicationService(loader, exec, inflight.NewMemoryGuard(), mocks.NewMockAuditRepository(),
		consoleapp.NewPageStore(16, time.Hour), config.PagesConfig{DefaultPageSize: 10, MaxPageSize: 50})

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	v1 := r.Group("/api/v1", middleware.SessionMiddleware())
	NewController(svc).RegisterRoutes(v1)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer operator-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	r := newTestEngine(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pages/orders", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestView(t *testing.T) {
	r := newTestEngine(nil)

	w, resp := do(r, http.MethodGet, "/api/v1/pages/orders?status=COMPLETED", "")
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var view consoleapp.PageView
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ID != "2" {
		t.Errorf("items = %+v", view.Items)
	}
	if resp.RequestID == "" {
		t.Error("request id missing")
	}

	w, _ = do(r, http.MethodGet, "/api/v1/pages/wallets", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown entity status = %d", w.Code)
	}
}

func TestClosePage(t *testing.T) {
	r := newTestEngine(nil)
	do(r, http.MethodGet, "/api/v1/pages/orders", "")
	w, _ := do(r, http.MethodDelete, "/api/v1/pages/orders", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestPerform(t *testing.T) {
	tests := []struct {
		name       string
		exec       stubExecutor
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantPart   bool
	}{
		{
			name:       "delete completed order",
			path:       "/api/v1/entities/orders/2/actions/delete",
			wantStatus: http.StatusOK,
		},
		{
			name:       "delete pending order conflicts",
			path:       "/api/v1/entities/orders/1/actions/delete",
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "resolve needs valid status",
			path:       "/api/v1/entities/reports/r1/actions/resolve",
			body:       `{"status":"DONE"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "ban reported stops after the ban",
			exec:       stubExecutor{action.OpSetReportStatus: shared.NewRejectedError("reports", "report closed")},
			path:       "/api/v1/entities/reports/r1/actions/ban-reported",
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_REJECTED",
			wantPart:   true,
		},
		{
			name:       "upstream down",
			exec:       stubExecutor{action.OpDelete: shared.NewUnavailableError("orders", context.DeadlineExceeded)},
			path:       "/api/v1/entities/orders/2/actions/delete",
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:       "malformed body",
			path:       "/api/v1/entities/reports/r1/actions/resolve",
			body:       `{"status":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(tt.exec)
			w, resp := do(r, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" && resp.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantCode)
			}
			if tt.wantPart {
				data, _ := resp.Data.(map[string]any)
				if data["partial"] != true || data["ok"] != false {
					t.Errorf("data = %v", resp.Data)
				}
			}
		})
	}
}

func TestPerform_ChunkedEmptyBody(t *testing.T) {
	r := newTestEngine(nil)

	// 长度未知的空请求体
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities/orders/2/actions/delete", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer operator-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
}

func TestAuditAfterAction(t *testing.T) {
	r := newTestEngine(nil)
	do(r, http.MethodPost, "/api/v1/entities/orders/2/actions/delete", "")

	w, resp := do(r, http.MethodGet, "/api/v1/audit?entity=orders&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	entries, _ := resp.Data.([]any)
	if len(entries) != 1 {
		t.Errorf("entries = %v", resp.Data)
	}

	w, _ = do(r, http.MethodGet, "/api/v1/audit?limit=x", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
}

func TestParseState(t *testing.T) {
	q := url.Values{
		"search":           {" john "},
		"order_id":         {"12"},
		"status":           {"Tất cả"},
		"min_price":        {"100"},
		"max_price":        {"abc"},
		"from_createdAt":   {"2024-01-01"},
		"min_unknownField": {"5"},
		"sort":             {"price"},
		"dir":              {"DESC"},
		"page":             {"3"},
		"page_size":        {"x"},
	}
	s := ParseState(entity.Order, q)

	if s.Search != "john" || s.IDContains != "12" {
		t.Errorf("search = %q id = %q", s.Search, s.IDContains)
	}
	if len(s.Enums) != 0 {
		t.Errorf("sentinel enum kept: %v", s.Enums)
	}
	r, ok := s.Ranges["price"]
	if !ok || r.Min == nil || *r.Min != 100 || r.Max != nil {
		t.Errorf("price range = %+v", r)
	}
	if _, ok := s.Ranges["unknownField"]; ok {
		t.Error("undeclared field parsed")
	}
	if s.Dates["createdAt"].From.IsZero() {
		t.Error("from date not parsed")
	}
	if s.Sort.Key != "price" || s.Sort.Direction != listing.Desc || s.Page != 3 || s.PageSize != 0 {
		t.Errorf("sort/page = %+v %d %d", s.Sort, s.Page, s.PageSize)
	}
}
