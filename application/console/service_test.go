package console

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
)

func ordersFixture() []listing.Item {
	return []listing.Item{
		mkItem(entity.Order, "1", status.OrderPending, map[string]string{"renterName": "John Doe"}, map[string]float64{"price": 100}),
		mkItem(entity.Order, "2", status.OrderCompleted, map[string]string{"renterName": "Jane"}, map[string]float64{"price": 50}),
	}
}

func TestView_StatusFilter(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order, ordersFixture()...)

	view, err := h.svc.View(context.Background(), h.sess, ViewRequest{
		Entity: entity.Order,
		State:  listing.FilterState{Enums: map[string]string{"status": status.OrderCompleted}},
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ID != "2" {
		t.Fatalf("items = %+v", view.Items)
	}
	if view.Counts[listing.AllKey] != 2 || view.Counts[status.OrderCompleted] != 1 {
		t.Errorf("counts = %v", view.Counts)
	}
	if view.Items[0].StatusLabel.Text != "Đã hoàn thành" {
		t.Errorf("label = %q", view.Items[0].StatusLabel.Text)
	}
}

func TestView_ListsEntityActions(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order, ordersFixture()...)
	ctx := context.Background()

	view, err := h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.Order})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if fmt.Sprint(view.Actions) != fmt.Sprint([]action.Kind{action.Delete}) {
		t.Errorf("order actions = %v", view.Actions)
	}

	// 充值记录只读
	view, err = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.Deposit})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Actions == nil || len(view.Actions) != 0 {
		t.Errorf("deposit actions = %#v, want empty", view.Actions)
	}
}

func TestView_SearchAndPriceRange(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order,
		mkItem(entity.Order, "1", status.OrderPending, map[string]string{"renterName": "John Doe"}, map[string]float64{"price": 50}),
		mkItem(entity.Order, "2", status.OrderPending, map[string]string{"renterName": "Jane"}, map[string]float64{"price": 100}),
		mkItem(entity.Order, "3", status.OrderPending, map[string]string{"renterName": "Johnny"}, map[string]float64{"price": 150}),
	)
	ctx := context.Background()

	view, _ := h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.Order, State: listing.FilterState{Search: "john doe"}})
	if len(view.Items) != 1 || view.Items[0].ID != "1" {
		t.Errorf("search items = %+v", view.Items)
	}

	min, max := 60.0, 120.0
	view, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.Order, State: listing.FilterState{
		Ranges: map[string]listing.Range{"price": {Min: &min, Max: &max}},
	}})
	if len(view.Items) != 1 || view.Items[0].ID != "2" {
		t.Errorf("range items = %+v", view.Items)
	}
	if h.loader.callCount(entity.Order) != 1 {
		t.Errorf("collection loaded %d times, want once", h.loader.callCount(entity.Order))
	}
}

func TestView_PredicateChangeResetsPage(t *testing.T) {
	h := newHarness()
	items := make([]listing.Item, 0, 30)
	for i := 1; i <= 30; i++ {
		items = append(items, mkItem(entity.User, fmt.Sprint(i), status.UserActive, map[string]string{"fullName": fmt.Sprintf("user %02d", i)}, nil))
	}
	h.loader.set(entity.User, items...)
	ctx := context.Background()

	view, _ := h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.User, State: listing.FilterState{Page: 3}})
	if view.Page != 3 || view.TotalPages != 3 {
		t.Fatalf("page = %d/%d", view.Page, view.TotalPages)
	}

	view, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.User, State: listing.FilterState{Page: 3, Search: "user"}})
	if view.Page != 1 {
		t.Errorf("page after search change = %d, want 1", view.Page)
	}

	view, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.User, State: listing.FilterState{Page: 2, Search: "user"}})
	if view.Page != 2 {
		t.Errorf("page with unchanged predicates = %d, want 2", view.Page)
	}

	view, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.User, State: listing.FilterState{Page: 2, Search: "user", PageSize: 20}})
	if view.Page != 1 || view.PageSize != 20 {
		t.Errorf("page size change: page=%d size=%d", view.Page, view.PageSize)
	}

	view, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.User, State: listing.FilterState{Page: 9, Search: "user", PageSize: 20}})
	if view.Page != 2 {
		t.Errorf("out of range page clamped to %d, want 2", view.Page)
	}
}

func TestView_PageSizeBounded(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order, ordersFixture()...)
	view, _ := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Order, State: listing.FilterState{PageSize: 500}})
	if view.PageSize != 50 {
		t.Errorf("PageSize = %d, want max 50", view.PageSize)
	}
	if view.State.Sort.Key != "id" || view.State.Sort.Direction != listing.Desc {
		t.Errorf("default sort = %+v", view.State.Sort)
	}
	if view.Items[0].ID != "2" {
		t.Errorf("orders should list newest id first, got %s", view.Items[0].ID)
	}
}

func TestView_LoadFailureYieldsEmptyFailedPage(t *testing.T) {
	h := newHarness()
	h.loader.fail(entity.Report, shared.NewUnavailableError("reports", errors.New("timeout")))

	view, err := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Report})
	if err != nil {
		t.Fatalf("View should not fail: %v", err)
	}
	if !view.Failed || view.Message != LoadFailedMessage {
		t.Errorf("failed=%v message=%q", view.Failed, view.Message)
	}
	if len(view.Items) != 0 || view.TotalPages != 1 || view.Page != 1 {
		t.Errorf("view = %+v", view)
	}

	h.loader.fail(entity.Report, nil)
	h.loader.set(entity.Report, mkItem(entity.Report, "r1", status.ReportPending, nil, nil))
	view, _ = h.svc.Reload(context.Background(), h.sess, entity.Report)
	if view.Failed || len(view.Items) != 1 {
		t.Errorf("after reload: failed=%v items=%d", view.Failed, len(view.Items))
	}
}

func TestView_AbandonedLoadIsRetried(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order, ordersFixture()...)
	h.loader.hook = func(ctx context.Context, e entity.Entity, call int) (loadResult, bool) {
		if call == 1 {
			<-ctx.Done()
			return loadResult{err: shared.NewUnavailableError("orders", ctx.Err())}, true
		}
		return loadResult{}, false
	}

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.svc.View(gone, h.sess, ViewRequest{Entity: entity.Order}); err != nil {
		t.Fatalf("View: %v", err)
	}

	view, err := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Order})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Failed || len(view.Items) != 2 {
		t.Errorf("failed=%v items=%d message=%q", view.Failed, len(view.Items), view.Message)
	}
	if got := h.loader.callCount(entity.Order); got != 2 {
		t.Errorf("loads = %d, want 2", got)
	}
}

func TestView_UnauthorizedMessage(t *testing.T) {
	h := newHarness()
	h.loader.fail(entity.User, shared.NewUnauthorizedError("expired"))
	view, _ := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.User})
	if !view.Failed || view.Message == LoadFailedMessage {
		t.Errorf("message = %q", view.Message)
	}
}

func TestView_StaleLoadIsDiscarded(t *testing.T) {
	h := newHarness()
	old := []listing.Item{mkItem(entity.Gamer, "old", status.GamerAvailable, nil, nil)}
	fresh := []listing.Item{mkItem(entity.Gamer, "fresh", status.GamerAvailable, nil, nil)}

	entered := make(chan struct{})
	gate := make(chan struct{})
	h.loader.hook = func(ctx context.Context, e entity.Entity, call int) (loadResult, bool) {
		if call == 1 {
			close(entered)
			<-gate
			return loadResult{items: old}, true
		}
		return loadResult{items: fresh}, true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Gamer})
	}()
	<-entered

	view, err := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Gamer, Reload: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ID != "fresh" {
		t.Fatalf("newer load items = %+v", view.Items)
	}

	close(gate)
	<-done

	view, _ = h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Gamer})
	if len(view.Items) != 1 || view.Items[0].ID != "fresh" {
		t.Errorf("late response overwrote newer data: %+v", view.Items)
	}
}

func TestClose_CancelsInFlightLoad(t *testing.T) {
	h := newHarness()
	entered := make(chan struct{})
	cancelled := make(chan struct{})
	h.loader.hook = func(ctx context.Context, e entity.Entity, call int) (loadResult, bool) {
		close(entered)
		<-ctx.Done()
		close(cancelled)
		return loadResult{err: ctx.Err()}, true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.svc.View(context.Background(), h.sess, ViewRequest{Entity: entity.Deposit})
	}()
	<-entered

	if !h.svc.Close(h.sess, entity.Deposit) {
		t.Fatal("page should have been open")
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight load was not cancelled")
	}
	<-done

	if h.svc.Close(h.sess, entity.Deposit) {
		t.Error("closed page reported open")
	}
}

func TestPagesAreIsolatedPerSession(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order, ordersFixture()...)
	ctx := context.Background()
	other := h.sess
	other.Token = "someone-else"

	_, _ = h.svc.View(ctx, h.sess, ViewRequest{Entity: entity.Order})
	_, _ = h.svc.View(ctx, other, ViewRequest{Entity: entity.Order})
	if h.loader.callCount(entity.Order) != 2 {
		t.Errorf("loads = %d, want one per session", h.loader.callCount(entity.Order))
	}
}

func TestCountsAndOptions(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Gamer,
		mkItem(entity.Gamer, "1", status.GamerAvailable, map[string]string{"gameName": "LoL"}, nil),
		mkItem(entity.Gamer, "2", "SUSPENDED", map[string]string{"gameName": "Valorant"}, nil),
	)
	ctx := context.Background()

	counts, err := h.svc.Counts(ctx, h.sess, entity.Gamer)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[listing.AllKey] != 2 || counts[status.GamerBanned] != 0 || counts["SUSPENDED"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	games, _ := h.svc.Options(ctx, h.sess, entity.Gamer, "gameName")
	if fmt.Sprint(games) != "[LoL Valorant]" {
		t.Errorf("game options = %v", games)
	}
	statuses, _ := h.svc.Options(ctx, h.sess, entity.Gamer, "status")
	if len(statuses) != 5 || statuses[4] != "SUSPENDED" {
		t.Errorf("status options = %v", statuses)
	}
	if _, err := h.svc.Options(ctx, h.sess, entity.Gamer, "email"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("non-enum field err = %v", err)
	}
}

func TestView_UnknownEntity(t *testing.T) {
	h := newHarness()
	if _, err := h.svc.View(context.Background(), h.sess, ViewRequest{Entity: "wallets"}); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDetail(t *testing.T) {
	h := newHarness()
	it := mkItem(entity.Order, "5", status.OrderConfirmed, nil, nil)
	it.Raw = []byte(`{"id":5,"status":"CONFIRMED","note":"x"}`)
	h.loader.set(entity.Order, it)

	d, err := h.svc.Detail(context.Background(), h.sess, entity.Order, "5")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Record["note"] != "x" || d.Item.ID != "5" {
		t.Errorf("detail = %+v", d)
	}
	if _, err := h.svc.Detail(context.Background(), h.sess, entity.Order, "404"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("missing detail err = %v", err)
	}
}

func TestSummary(t *testing.T) {
	h := newHarness()
	h.loader.set(entity.Order,
		mkItem(entity.Order, "1", status.OrderCompleted, nil, map[string]float64{"price": 150000}),
		mkItem(entity.Order, "2", status.OrderCompleted, nil, map[string]float64{"price": 1100000}),
		mkItem(entity.Order, "3", status.OrderPending, nil, map[string]float64{"price": 999}),
	)
	h.loader.set(entity.Deposit, mkItem(entity.Deposit, "d1", status.TxProcessed, nil, map[string]float64{"amount": 50000}))
	h.loader.fail(entity.Report, shared.NewUnavailableError("reports", errors.New("down")))

	sum, err := h.svc.Summary(context.Background(), h.sess)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.Entities) != len(entity.All()) {
		t.Fatalf("cards = %d", len(sum.Entities))
	}
	for _, card := range sum.Entities {
		switch card.Entity {
		case entity.Report:
			if !card.Failed {
				t.Error("report card should be failed")
			}
		case entity.Order:
			if card.Total != 3 || card.Counts[status.OrderCompleted] != 2 {
				t.Errorf("order card = %+v", card)
			}
		}
	}
	if sum.Revenue != "1.250.000 ₫" {
		t.Errorf("Revenue = %q", sum.Revenue)
	}
	if sum.Deposited != "50.000 xu" || sum.Withdrawn != "0 xu" {
		t.Errorf("Deposited = %q, Withdrawn = %q", sum.Deposited, sum.Withdrawn)
	}
}

func TestExport(t *testing.T) {
	h := newHarness()
	items := make([]listing.Item, 0, 25)
	for i := 1; i <= 25; i++ {
		items = append(items, mkItem(entity.Order, fmt.Sprint(i), status.OrderCompleted, nil, nil))
	}
	h.loader.set(entity.Order, items...)

	file, err := h.svc.Export(context.Background(), h.sess, entity.Order, listing.FilterState{IDContains: "1"}, "CSV")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if file.Name != "orders-20240601-100000.csv" || file.ContentType != "text/csv" || string(file.Body) != "ok" {
		t.Errorf("file = %+v", file)
	}
	// 1, 10-19, 21
	if len(h.exporter.got) != 12 {
		t.Errorf("exported %d rows, want every match across pages", len(h.exporter.got))
	}
	if h.exporter.got[0].ID != "21" {
		t.Errorf("first exported id = %s, want default sort", h.exporter.got[0].ID)
	}

	if _, err := h.svc.Export(context.Background(), h.sess, entity.Order, listing.FilterState{}, "docx"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("unsupported format err = %v", err)
	}
}
