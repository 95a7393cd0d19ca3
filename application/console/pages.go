package console

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
)

type slotKey struct {
	session string
	entity  entity.Entity
}

// pageSlot is the server-side state of one open page.
//
// Loads are numbered; only the newest load may commit. Closing the slot
// cancels every load still running and makes later commits no-ops.
type pageSlot struct {
	mu       sync.Mutex
	entity   entity.Entity
	items    []listing.Item
	state    listing.FilterState
	hasState bool
	loaded   bool
	stale    bool
	failure  error
	loadedAt time.Time

	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
}

func newPageSlot(e entity.Entity) *pageSlot {
	ctx, cancel := context.WithCancel(context.Background())
	return &pageSlot{entity: e, ctx: ctx, cancel: cancel}
}

// begin numbers a new load. The returned context ends when the request ends
// or the slot closes; done must be called when the load finishes.
func (p *pageSlot) begin(reqCtx context.Context) (gen uint64, ctx context.Context, done func(), ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, nil, nil, false
	}
	p.generation++

	ctx, cancel := context.WithCancel(reqCtx)
	stop := context.AfterFunc(p.ctx, cancel)
	return p.generation, ctx, func() {
		stop()
		cancel()
	}, true
}

// commit stores the result of load gen. It reports false when a newer load
// was started or the slot closed in the meantime.
func (p *pageSlot) commit(gen uint64, items []listing.Item, err error, at time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return false
	}
	if err != nil {
		p.items = nil
		p.failure = err
	} else {
		p.items = items
		p.failure = nil
	}
	p.loaded = true
	p.stale = false
	p.loadedAt = at
	return true
}

func (p *pageSlot) needsLoad() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.loaded || p.stale
}

type slotSnapshot struct {
	items      []listing.Item
	state      listing.FilterState
	hasState   bool
	loaded     bool
	failure    error
	loadedAt   time.Time
	generation uint64
}

// snapshot returns the current collection. Items are never modified in place
// so the slice may be read without the lock.
func (p *pageSlot) snapshot() slotSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slotSnapshot{
		items:      p.items,
		state:      p.state,
		hasState:   p.hasState,
		loaded:     p.loaded,
		failure:    p.failure,
		loadedAt:   p.loadedAt,
		generation: p.generation,
	}
}

func (p *pageSlot) setState(s listing.FilterState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
	p.hasState = true
}

func (p *pageSlot) find(id string) (listing.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := listing.IndexOf(p.items, id); i >= 0 {
		return p.items[i], true
	}
	return listing.Item{}, false
}

// apply patches the loaded collection copy-on-write.
func (p *pageSlot) apply(patch action.Patch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if patch.Kind == action.PatchReload {
		p.stale = true
		return
	}
	i := listing.IndexOf(p.items, patch.TargetID)
	if i < 0 {
		return
	}

	items := make([]listing.Item, len(p.items))
	copy(items, p.items)
	switch patch.Kind {
	case action.PatchStatus:
		items[i] = items[i].WithStatus(patch.Status)
	case action.PatchFields:
		items[i] = items[i].WithFields(patch.Fields)
	case action.PatchRoles:
		items[i] = items[i].WithRoles(patch.Roles)
	case action.PatchRemove:
		items = append(items[:i], items[i+1:]...)
	default:
		return
	}
	p.items = items
}

func (p *pageSlot) markStale() {
	p.mu.Lock()
	p.stale = true
	p.mu.Unlock()
}

func (p *pageSlot) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.items = nil
	p.cancel()
}

// PageStore holds the open pages of every session. Pages idle for longer
// than the TTL, or pushed out by newer ones, are closed.
type PageStore struct {
	mu    sync.Mutex
	slots *expirable.LRU[slotKey, *pageSlot]
}

// NewPageStore creates a store holding at most size pages.
func NewPageStore(size int, ttl time.Duration) *PageStore {
	if size <= 0 {
		size = 1024
	}
	onEvict := func(_ slotKey, p *pageSlot) { p.close() }
	return &PageStore{slots: expirable.NewLRU[slotKey, *pageSlot](size, onEvict, ttl)}
}

// open returns the slot of (sessionKey, e), creating it if needed.
func (s *PageStore) open(sessionKey string, e entity.Entity) *pageSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey{session: sessionKey, entity: e}
	if p, ok := s.slots.Get(key); ok {
		return p
	}
	p := newPageSlot(e)
	s.slots.Add(key, p)
	return p
}

func (s *PageStore) lookup(sessionKey string, e entity.Entity) (*pageSlot, bool) {
	return s.slots.Peek(slotKey{session: sessionKey, entity: e})
}

// Close discards the page. It reports whether the page was open.
func (s *PageStore) Close(sessionKey string, e entity.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Remove(slotKey{session: sessionKey, entity: e})
}
