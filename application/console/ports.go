/*
Package console Application Layer - admin console page and action orchestration

Responsibilities:
1. Keep one page slot per (session, entity): the loaded collection and its filter state
2. Load collections through the upstream Loader, newest load wins
3. Derive the visible page (filter, sort, paginate) from the loaded collection
4. Dispatch operator actions step by step and patch the loaded collection on success
5. Record every dispatched action in the audit log
*/
package console

import (
	"context"
	"io"

	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
)

// Loader reads collections and single entities from the marketplace.
type Loader interface {
	List(ctx context.Context, sess session.Session, e entity.Entity) ([]listing.Item, error)
	Detail(ctx context.Context, sess session.Session, e entity.Entity, id string) (listing.Item, error)
}

// Executor performs one planned upstream step.
type Executor interface {
	Execute(ctx context.Context, sess session.Session, step action.Step) error
}

// Guard rejects a second claim on a key until the first is released.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Exporter renders a collection into a downloadable document.
type Exporter interface {
	Format() string
	ContentType() string
	Write(w io.Writer, e entity.Entity, items []listing.Item) error
}
