package listing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"duoadmin/domain/entity"
	"duoadmin/domain/status"
)

func order(id, st, renter, player string, price float64) Item {
	return Item{
		ID:        id,
		Entity:    entity.Order,
		StatusRaw: st,
		Status:    status.Resolve(entity.Order, st),
		Fields:    map[string]string{"renterName": renter, "playerName": player},
		Numbers:   map[string]float64{"price": price},
	}
}

func report(id, st, reporter, content string, created time.Time) Item {
	return Item{
		ID:        id,
		Entity:    entity.Report,
		StatusRaw: st,
		Fields:    map[string]string{"reporter": reporter, "content": content},
		Times:     map[string]time.Time{"createdAt": created},
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(t *testing.T, got []Item, want ...string) {
	t.Helper()
	g := ids(got)
	if fmt.Sprint(g) != fmt.Sprint(want) {
		t.Errorf("ids = %v, want %v", g, want)
	}
}

func ptr(f float64) *float64 { return &f }

func TestFilter_SearchAndEnum(t *testing.T) {
	ctx := context.Background()
	items := []Item{
		order("1", status.OrderPending, "An", "Bình", 50),
		order("2", status.OrderCompleted, "anh", "Chi", 120),
		order("3", status.OrderCompleted, "Dũng", "Giang", 200),
	}

	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{"empty state keeps all", FilterState{}, []string{"1", "2", "3"}},
		{"search ignores case", FilterState{Search: "AN"}, []string{"1", "2"}},
		{"search trims", FilterState{Search: "  giang "}, []string{"3"}},
		{"enum exact", FilterState{Enums: map[string]string{"status": status.OrderCompleted}}, []string{"2", "3"}},
		{"all sentinel", FilterState{Enums: map[string]string{"status": "all"}}, []string{"1", "2", "3"}},
		{"vietnamese sentinel", FilterState{Enums: map[string]string{"status": "Tất cả"}}, []string{"1", "2", "3"}},
		{"undeclared enum ignored", FilterState{Enums: map[string]string{"color": "red"}}, []string{"1", "2", "3"}},
		{"conjunction", FilterState{Search: "an", Enums: map[string]string{"status": status.OrderCompleted}}, []string{"2"}},
		{"id contains", FilterState{IDContains: "3"}, []string{"3"}},
		{"range", FilterState{Ranges: map[string]Range{"price": {Min: ptr(100), Max: ptr(200)}}}, []string{"2", "3"}},
		{"range max only", FilterState{Ranges: map[string]Range{"price": {Max: ptr(50)}}}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalIDs(t, Filter(ctx, entity.Order, items, tt.state), tt.want...)
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	items := []Item{order("1", "PENDING", "a", "b", 1), order("2", "PENDING", "c", "d", 2)}
	_ = Filter(context.Background(), entity.Order, items, FilterState{Search: "c"})
	equalIDs(t, items, "1", "2")
}

func TestFilter_Idempotent(t *testing.T) {
	ctx := context.Background()
	items := []Item{
		order("1", status.OrderPending, "An", "Bình", 50),
		order("2", status.OrderCompleted, "anh", "Chi", 120),
	}
	state := FilterState{Search: "an"}
	once := Filter(ctx, entity.Order, items, state)
	twice := Filter(ctx, entity.Order, once, state)
	equalIDs(t, twice, ids(once)...)
}

func TestFilter_DateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 15, 0, 0, 0, time.UTC) }
	items := []Item{
		report("r1", "pending", "a", "x", day(1)),
		report("r2", "pending", "b", "y", day(5)),
		report("r3", "pending", "c", "z", day(9)),
	}
	state := FilterState{Dates: map[string]DateRange{
		"createdAt": {From: ParseDate("2024-03-02"), To: ParseDate("2024-03-09")},
	}}
	equalIDs(t, Filter(context.Background(), entity.Report, items, state), "r2", "r3")
}

func TestParseBound(t *testing.T) {
	if ParseBound("") != nil || ParseBound("abc") != nil {
		t.Error("blank and garbage bounds should be unset")
	}
	if got := ParseBound(" 12.5 "); got == nil || *got != 12.5 {
		t.Errorf("ParseBound = %v", got)
	}
}

func TestSort_StableAndDirection(t *testing.T) {
	items := []Item{
		order("1", "PENDING", "b", "", 10),
		order("2", "PENDING", "a", "", 20),
		order("3", "PENDING", "b", "", 10),
		order("4", "PENDING", "a", "", 20),
	}

	equalIDs(t, Sort(entity.Order, items, SortSpec{Key: "price", Direction: Asc}), "1", "3", "2", "4")
	equalIDs(t, Sort(entity.Order, items, SortSpec{Key: "price", Direction: Desc}), "2", "4", "1", "3")
	equalIDs(t, Sort(entity.Order, items, SortSpec{Key: "renterName", Direction: Asc}), "2", "4", "1", "3")
	equalIDs(t, Sort(entity.Order, items, SortSpec{}), "1", "2", "3", "4")
	equalIDs(t, items, "1", "2", "3", "4")
}

func TestSort_NumericIDs(t *testing.T) {
	items := []Item{order("9", "", "", "", 0), order("10", "", "", "", 0), order("2", "", "", "", 0)}
	equalIDs(t, Sort(entity.Order, items, ResolveSort(entity.Order, SortSpec{})), "10", "9", "2")
}

func TestSort_VietnameseCollation(t *testing.T) {
	items := []Item{
		order("1", "", "Đức", "", 0),
		order("2", "", "Dung", "", 0),
		order("3", "", "an", "", 0),
		order("4", "", "Bảo", "", 0),
	}
	equalIDs(t, Sort(entity.Order, items, SortSpec{Key: "renterName", Direction: Asc}), "3", "4", "2", "1")
}

func TestResolveSort(t *testing.T) {
	if got := ResolveSort(entity.Order, SortSpec{}); got.Key != "id" || got.Direction != Desc {
		t.Errorf("order default = %+v", got)
	}
	if got := ResolveSort(entity.User, SortSpec{}); got.Key != "" {
		t.Errorf("user default = %+v", got)
	}
	if got := ResolveSort(entity.User, SortSpec{Key: "email"}); got.Direction != Asc {
		t.Errorf("direction default = %+v", got)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]Item, 25)
	for i := range items {
		items[i] = order(fmt.Sprint(i+1), "", "", "", 0)
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantPage  int
		wantPages int
		wantLen   int
		firstID   string
	}{
		{"first page", 1, 10, 1, 3, 10, "1"},
		{"last partial", 3, 10, 3, 3, 5, "21"},
		{"clamped high", 9, 10, 3, 3, 5, "21"},
		{"clamped low", 0, 10, 1, 3, 10, "1"},
		{"size below one", 2, 0, 2, 25, 1, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			if p.Page != tt.wantPage || p.TotalPages != tt.wantPages || len(p.Items) != tt.wantLen {
				t.Fatalf("got page=%d pages=%d len=%d", p.Page, p.TotalPages, len(p.Items))
			}
			if p.Items[0].ID != tt.firstID {
				t.Errorf("first id = %s, want %s", p.Items[0].ID, tt.firstID)
			}
			if p.TotalItems != 25 {
				t.Errorf("TotalItems = %d", p.TotalItems)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 4, 10)
	if p.Page != 1 || p.TotalPages != 1 || len(p.Items) != 0 {
		t.Errorf("got %+v", p)
	}
}

func TestPaginate_ConcatenationIsSequence(t *testing.T) {
	items := make([]Item, 23)
	for i := range items {
		items[i] = order(fmt.Sprint(i), "", "", "", 0)
	}
	var got []string
	first := Paginate(items, 1, 7)
	for page := 1; page <= first.TotalPages; page++ {
		got = append(got, ids(Paginate(items, page, 7).Items)...)
	}
	if fmt.Sprint(got) != fmt.Sprint(ids(items)) {
		t.Errorf("pages joined = %v, want %v", got, ids(items))
	}
}

func TestSamePredicates(t *testing.T) {
	base := FilterState{Search: "an", Enums: map[string]string{"status": "PENDING"}, Page: 3}

	if !base.SamePredicates(FilterState{Search: " an ", Enums: map[string]string{"status": "PENDING", "x": "all"}, Page: 1}) {
		t.Error("sentinels and whitespace should not change predicates")
	}
	if base.SamePredicates(FilterState{Search: "an"}) {
		t.Error("dropping an enum changes predicates")
	}
	if base.SamePredicates(FilterState{Search: "an", Enums: base.Enums, Ranges: map[string]Range{"price": {Min: ptr(1)}}}) {
		t.Error("adding a range changes predicates")
	}
}

func TestCountByStatus(t *testing.T) {
	items := []Item{
		order("1", status.OrderPending, "", "", 0),
		order("2", status.OrderPending, "", "", 0),
		order("3", "ARCHIVED", "", "", 0),
	}
	got := CountByStatus(items, status.Declared(entity.Order))
	if got[AllKey] != 3 || got[status.OrderPending] != 2 || got["ARCHIVED"] != 1 {
		t.Errorf("counts = %v", got)
	}
	if n, ok := got[status.OrderCancelled]; !ok || n != 0 {
		t.Errorf("declared status should count zero, got %v", got)
	}
}

func TestOptions(t *testing.T) {
	items := []Item{
		{ID: "1", Fields: map[string]string{"gameName": "LoL"}},
		{ID: "2", Fields: map[string]string{"gameName": "Valorant"}},
		{ID: "3", Fields: map[string]string{"gameName": "LoL"}},
		{ID: "4", Fields: map[string]string{"gameName": " "}},
	}
	if got := Options(items, "gameName"); fmt.Sprint(got) != "[LoL Valorant]" {
		t.Errorf("Options = %v", got)
	}

	users := []Item{
		Item{ID: "1", Entity: entity.User}.WithRoles([]string{"USER", "ADMIN"}),
		Item{ID: "2", Entity: entity.User}.WithRoles([]string{"USER"}),
		Item{ID: "3", Entity: entity.User}.WithRoles([]string{"GAMER", "USER"}),
	}
	got := Options(users, "role")
	if fmt.Sprint(got) != "[USER GAMER]" {
		t.Errorf("role options = %v", got)
	}
	// every offered role must select at least one row
	for _, role := range got {
		matched := Filter(context.Background(), entity.User, users, FilterState{Enums: map[string]string{"role": role}})
		if len(matched) == 0 {
			t.Errorf("role option %q matches no user", role)
		}
	}
}

func TestItem_PatchCopies(t *testing.T) {
	it := Item{ID: "7", Entity: entity.Gamer, StatusRaw: status.GamerAvailable, Fields: map[string]string{"fullName": "A"}}
	banned := it.WithStatus(status.GamerBanned)
	if it.StatusRaw != status.GamerAvailable {
		t.Error("WithStatus mutated the receiver")
	}
	if banned.Status.Text != "Bị khóa" {
		t.Errorf("banned label = %q", banned.Status.Text)
	}

	renamed := it.WithFields(map[string]string{"fullName": "B"})
	if it.Fields["fullName"] != "A" || renamed.Fields["fullName"] != "B" {
		t.Error("WithFields must not share maps")
	}

	withRoles := it.WithRoles([]string{"GAMER"})
	if withRoles.Field("role") != "GAMER" || it.Field("role") != "" {
		t.Error("WithRoles should set role on the copy only")
	}
}

func TestToView_RoleBadges(t *testing.T) {
	u := Item{ID: "1", Entity: entity.User}.WithRoles([]string{"ADMIN", "USER"})
	v := u.ToView()
	if len(v.RoleLabels) != 2 || v.RoleLabels[0].Text != "Admin" || v.RoleLabels[1].Text != "Người dùng" {
		t.Errorf("role labels = %+v", v.RoleLabels)
	}

	bare := Item{ID: "2", Entity: entity.User}
	if v := bare.ToView(); len(v.RoleLabels) != 1 || v.RoleLabels[0].Known {
		t.Errorf("user without roles = %+v", v.RoleLabels)
	}

	if v := order("3", status.OrderPending, "", "", 0).ToView(); v.RoleLabels != nil {
		t.Errorf("orders carry no role badges: %+v", v.RoleLabels)
	}
}
