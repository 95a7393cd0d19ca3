package console

import (
	"context"
	"io"
	"sync"
	"time"

	"duoadmin/config"
	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
	"duoadmin/infrastructure/inflight"
	"duoadmin/infrastructure/persistence/mocks"
)

type fakeLoader struct {
	mu    sync.Mutex
	items map[entity.Entity][]listing.Item
	errs  map[entity.Entity]error
	calls map[entity.Entity]int
	// hook, when set, may answer a List call instead of the fixed data.
	hook func(ctx context.Context, e entity.Entity, call int) (loadResult, bool)
}

type loadResult struct {
	items []listing.Item
	err   error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		items: map[entity.Entity][]listing.Item{},
		errs:  map[entity.Entity]error{},
		calls: map[entity.Entity]int{},
	}
}

func (f *fakeLoader) set(e entity.Entity, items ...listing.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[e] = items
}

func (f *fakeLoader) fail(e entity.Entity, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[e] = err
}

func (f *fakeLoader) callCount(e entity.Entity) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[e]
}

func (f *fakeLoader) List(ctx context.Context, _ session.Session, e entity.Entity) ([]listing.Item, error) {
	f.mu.Lock()
	f.calls[e]++
	call := f.calls[e]
	hook := f.hook
	items, err := f.items[e], f.errs[e]
	f.mu.Unlock()

	if hook != nil {
		if res, handled := hook(ctx, e, call); handled {
			return res.items, res.err
		}
	}
	return items, err
}

func (f *fakeLoader) Detail(_ context.Context, _ session.Session, e entity.Entity, id string) (listing.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items[e] {
		if it.ID == id {
			return it, nil
		}
	}
	return listing.Item{}, shared.NewNotFoundError(string(e), id)
}

type fakeExecutor struct {
	mu    sync.Mutex
	steps []action.Step
	fails map[action.Op]error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{fails: map[action.Op]error{}}
}

func (f *fakeExecutor) Execute(_ context.Context, _ session.Session, step action.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	return f.fails[step.Op]
}

func (f *fakeExecutor) executed() []action.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]action.Step(nil), f.steps...)
}

type captureExporter struct {
	got []listing.Item
}

func (c *captureExporter) Format() string      { return "csv" }
func (c *captureExporter) ContentType() string { return "text/csv" }
func (c *captureExporter) Write(w io.Writer, _ entity.Entity, items []listing.Item) error {
	c.got = items
	_, err := w.Write([]byte("ok"))
	return err
}

type harness struct {
	svc      *ApplicationService
	loader   *fakeLoader
	executor *fakeExecutor
	audit    *mocks.MockAuditRepository
	exporter *captureExporter
	sess     session.Session
}

func newHarness() *harness {
	h := &harness{
		loader:   newFakeLoader(),
		executor: newFakeExecutor(),
		audit:    mocks.NewMockAuditRepository(),
		exporter: &captureExporter{},
		sess:     session.FromToken("operator-token"),
	}
	h.svc = NewApplicationService(
		h.loader, h.executor, inflight.NewMemoryGuard(), h.audit,
		NewPageStore(64, time.Hour),
		config.PagesConfig{DefaultPageSize: 10, MaxPageSize: 50},
		h.exporter,
	)
	h.svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return h
}

func mkItem(e entity.Entity, id, st string, fields map[string]string, numbers map[string]float64) listing.Item {
	if fields == nil {
		fields = map[string]string{}
	}
	if numbers == nil {
		numbers = map[string]float64{}
	}
	return listing.Item{
		ID:        id,
		Entity:    e,
		StatusRaw: st,
		Status:    status.Resolve(e, st),
		Fields:    fields,
		Numbers:   numbers,
	}
}
