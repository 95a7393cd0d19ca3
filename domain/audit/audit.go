// Package audit records every action an operator dispatched, successful or not.
package audit

import (
	"context"
	"time"

	"duoadmin/domain/action"
	"duoadmin/domain/entity"
)

// Entry is one dispatched action.
type Entry struct {
	ID        string               `json:"id"`
	RequestID string               `json:"requestId,omitempty"`
	Actor     string               `json:"actor"`
	Entity    entity.Entity        `json:"entity"`
	Kind      action.Kind          `json:"kind"`
	TargetID  string               `json:"targetId,omitempty"`
	OK        bool                 `json:"ok"`
	Partial   bool                 `json:"partial"`
	Message   string               `json:"message"`
	Steps     []action.StepOutcome `json:"steps"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Query narrows Recent. Zero fields are ignored.
type Query struct {
	Entity   entity.Entity
	TargetID string
	Limit    int
}

// DefaultLimit caps Recent when the query sets no limit.
const DefaultLimit = 50

// Repository stores audit entries.
type Repository interface {
	Save(ctx context.Context, e Entry) error
	// Recent returns matching entries, newest first.
	Recent(ctx context.Context, q Query) ([]Entry, error)
}

// NewEntry builds the audit entry of a dispatched action.
func NewEntry(id, requestID, actor string, res action.Result, at time.Time) Entry {
	return Entry{
		ID:        id,
		RequestID: requestID,
		Actor:     actor,
		Entity:    res.Entity,
		Kind:      res.Kind,
		TargetID:  res.TargetID,
		OK:        res.OK,
		Partial:   res.Partial,
		Message:   res.Message,
		Steps:     res.Steps,
		CreatedAt: at,
	}
}
