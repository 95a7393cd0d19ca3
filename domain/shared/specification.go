package shared

import (
	"context"
)

// Specification encapsulates one predicate over T.
// Specifications are composed with And and evaluated in memory.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, entity T) bool
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification is satisfied when every member is. An empty AndSpecification
// matches everything.
type AndSpecification[T any] struct {
	Specs []Specification[T]
}

// IsSatisfiedBy short-circuits on the first failing member.
func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	for _, s := range spec.Specs {
		if !s.IsSatisfiedBy(ctx, entity) {
			return false
		}
	}
	return true
}

// And combines specs, skipping nil members.
func And[T any](specs ...Specification[T]) Specification[T] {
	kept := make([]Specification[T], 0, len(specs))
	for _, s := range specs {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return AndSpecification[T]{Specs: kept}
}

// Select returns the members of items satisfying spec, in order. items is not modified.
func Select[T any](ctx context.Context, items []T, spec Specification[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if spec == nil || spec.IsSatisfiedBy(ctx, item) {
			out = append(out, item)
		}
	}
	return out
}
