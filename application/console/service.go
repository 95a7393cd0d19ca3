package console

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"duoadmin/config"
	"duoadmin/domain/action"
	"duoadmin/domain/audit"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
	"duoadmin/infrastructure/persistence"
	"duoadmin/pkg/logger"
)

// LoadFailedMessage is shown on a page whose collection could not be loaded.
const LoadFailedMessage = "Không thể tải dữ liệu, vui lòng tải lại"

// ApplicationService coordinates the console pages and actions.
type ApplicationService struct {
	loader    Loader
	executor  Executor
	guard     Guard
	auditRepo audit.Repository
	pages     *PageStore
	exporters map[string]Exporter
	cfg       config.PagesConfig

	now   func() time.Time
	newID func() string
}

// NewApplicationService creates the console service.
func NewApplicationService(
	loader Loader,
	executor Executor,
	guard Guard,
	auditRepo audit.Repository,
	pages *PageStore,
	cfg config.PagesConfig,
	exporters ...Exporter,
) *ApplicationService {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	byFormat := make(map[string]Exporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Format()] = e
	}
	return &ApplicationService{
		loader:    loader,
		executor:  executor,
		guard:     guard,
		auditRepo: auditRepo,
		pages:     pages,
		exporters: byFormat,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ============================================================================
// DTO Definitions
// ============================================================================

// ViewRequest asks for one page of a collection.
type ViewRequest struct {
	Entity entity.Entity
	State  listing.FilterState
	Reload bool
}

// PageView is the visible window of a page plus what the page header needs.
type PageView struct {
	Entity     entity.Entity       `json:"entity"`
	Items      []listing.View      `json:"items"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalItems int                 `json:"totalItems"`
	TotalPages int                 `json:"totalPages"`
	State      listing.FilterState `json:"state"`
	Counts     map[string]int      `json:"counts"`
	Actions    []action.Kind       `json:"actions"`
	Loading    bool                `json:"loading"`
	Failed     bool                `json:"failed"`
	Message    string              `json:"message,omitempty"`
	LoadedAt   *time.Time          `json:"loadedAt,omitempty"`
	Generation uint64              `json:"generation"`
}

// DetailView is one entity as the detail screen shows it.
type DetailView struct {
	Item   listing.View   `json:"item"`
	Record map[string]any `json:"record"`
}

// ============================================================================
// Page Methods
// ============================================================================

// View loads the collection if the page has none yet (or when asked to),
// then filters, sorts and paginates it. A failed load yields an empty page
// flagged Failed, never an error.
func (s *ApplicationService) View(ctx context.Context, sess session.Session, req ViewRequest) (*PageView, error) {
	if _, ok := entity.Parse(string(req.Entity)); !ok {
		return nil, shared.NewNotFoundError("entity", string(req.Entity))
	}
	slot := s.pages.open(sess.Key(), req.Entity)
	if req.Reload || slot.needsLoad() {
		s.load(ctx, sess, slot)
	}

	snap := slot.snapshot()
	state := s.reconcile(req.Entity, req.State, snap)

	filtered := listing.Filter(ctx, req.Entity, snap.items, state)
	sorted := listing.Sort(req.Entity, filtered, state.Sort)
	page := listing.Paginate(sorted, state.Page, state.PageSize)
	state.Page = page.Page
	slot.setState(state)

	view := &PageView{
		Entity:     req.Entity,
		Items:      make([]listing.View, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		State:      state,
		Counts:     listing.CountByStatus(snap.items, status.Declared(req.Entity)),
		Actions:    action.Supported(req.Entity),
		Loading:    !snap.loaded,
		Generation: snap.generation,
	}
	for i, it := range page.Items {
		view.Items[i] = it.ToView()
	}
	if snap.loaded && !snap.loadedAt.IsZero() {
		at := snap.loadedAt
		view.LoadedAt = &at
	}
	if snap.failure != nil {
		view.Failed = true
		view.Message = loadFailureMessage(snap.failure)
	}
	return view, nil
}

// reconcile completes the requested state: page size bounds, default sort,
// and back to page 1 when a predicate or the page size changed.
func (s *ApplicationService) reconcile(e entity.Entity, req listing.FilterState, snap slotSnapshot) listing.FilterState {
	state := req
	state.Search = strings.TrimSpace(state.Search)
	state.IDContains = strings.TrimSpace(state.IDContains)
	if state.PageSize <= 0 {
		state.PageSize = s.cfg.DefaultPageSize
	}
	if state.PageSize > s.cfg.MaxPageSize {
		state.PageSize = s.cfg.MaxPageSize
	}
	state.Sort = listing.ResolveSort(e, state.Sort)
	if state.Page < 1 {
		state.Page = 1
	}
	if snap.hasState && (!state.SamePredicates(snap.state) || state.PageSize != snap.state.PageSize) {
		state.Page = 1
	}
	return state
}

// Reload refetches the page collection and returns its first view.
func (s *ApplicationService) Reload(ctx context.Context, sess session.Session, e entity.Entity) (*PageView, error) {
	state := listing.FilterState{}
	if slot, ok := s.pages.lookup(sess.Key(), e); ok {
		state = slot.snapshot().state
	}
	return s.View(ctx, sess, ViewRequest{Entity: e, State: state, Reload: true})
}

// Close discards the page; a load still running for it is cancelled and its
// result dropped.
func (s *ApplicationService) Close(sess session.Session, e entity.Entity) bool {
	return s.pages.Close(sess.Key(), e)
}

// Counts returns the number of loaded items per status, plus the total.
func (s *ApplicationService) Counts(ctx context.Context, sess session.Session, e entity.Entity) (map[string]int, error) {
	items, err := s.ensure(ctx, sess, e)
	if err != nil {
		return nil, err
	}
	return listing.CountByStatus(items, status.Declared(e)), nil
}

// Options lists the values an enum filter of e can take. Status options
// start with the declared statuses.
func (s *ApplicationService) Options(ctx context.Context, sess session.Session, e entity.Entity, field string) ([]string, error) {
	if !entity.Describe(e).IsEnum(field) {
		return nil, shared.NewValidationError(string(e), field, "not a filterable field")
	}
	items, err := s.ensure(ctx, sess, e)
	if err != nil {
		return nil, err
	}
	if field != "status" {
		return listing.Options(items, field), nil
	}
	declared := status.Declared(e)
	seen := make(map[string]struct{}, len(declared))
	for _, v := range declared {
		seen[v] = struct{}{}
	}
	for _, v := range listing.Options(items, field) {
		if _, ok := seen[v]; !ok {
			declared = append(declared, v)
		}
	}
	return declared, nil
}

// Detail fetches the current state of one entity.
func (s *ApplicationService) Detail(ctx context.Context, sess session.Session, e entity.Entity, id string) (*DetailView, error) {
	if _, ok := entity.Parse(string(e)); !ok {
		return nil, shared.NewNotFoundError("entity", string(e))
	}
	item, err := s.loader.Detail(ctx, sess, e, id)
	if err != nil {
		return nil, err
	}
	return &DetailView{Item: item.ToView(), Record: decodeRecord(item.Raw)}, nil
}

// ensure returns the loaded collection of e, loading it first if needed. A
// failed load is returned as an error here, unlike in View.
func (s *ApplicationService) ensure(ctx context.Context, sess session.Session, e entity.Entity) ([]listing.Item, error) {
	if _, ok := entity.Parse(string(e)); !ok {
		return nil, shared.NewNotFoundError("entity", string(e))
	}
	slot := s.pages.open(sess.Key(), e)
	if slot.needsLoad() {
		s.load(ctx, sess, slot)
	}
	snap := slot.snapshot()
	if snap.failure != nil {
		return nil, snap.failure
	}
	return snap.items, nil
}

func (s *ApplicationService) load(ctx context.Context, sess session.Session, slot *pageSlot) {
	gen, lctx, done, ok := slot.begin(ctx)
	if !ok {
		return
	}
	defer done()

	log := logger.WithRequestID(persistence.RequestIDFromContext(ctx)).With(
		zap.String("entity", string(slot.entity)),
		zap.Uint64("generation", gen),
	)

	items, err := s.loader.List(lctx, sess, slot.entity)
	if err != nil && lctx.Err() != nil {
		// 请求方已离开或页面已关闭：不是上游故障，保持未加载状态，下次访问重新拉取
		log.Debug("Collection load abandoned", zap.Error(err))
		return
	}
	if err != nil {
		log.Warn("Collection load failed", zap.Error(err))
	}
	if !slot.commit(gen, items, err, s.now()) {
		log.Debug("Discarding superseded collection load")
		return
	}
	log.Debug("Collection loaded", zap.Int("items", len(items)))
}

func loadFailureMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"
	case errors.Is(err, shared.ErrForbidden):
		return "Bạn không có quyền xem dữ liệu này"
	}
	return LoadFailedMessage
}
