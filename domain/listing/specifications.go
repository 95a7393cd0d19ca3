package listing

import (
	"context"
	"strings"

	"duoadmin/domain/entity"
	"duoadmin/domain/shared"
)

// ============================================================================
// Filter Specifications
// ============================================================================

// SearchSpecification matches when any of Fields contains Term, ignoring case.
type SearchSpecification struct {
	Fields []string
	Term   string
}

// NewSearchSpecification returns nil for a blank term.
func NewSearchSpecification(fields []string, term string) shared.Specification[Item] {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	return SearchSpecification{Fields: fields, Term: term}
}

func (s SearchSpecification) IsSatisfiedBy(_ context.Context, item Item) bool {
	for _, f := range s.Fields {
		if strings.Contains(strings.ToLower(item.Field(f)), s.Term) {
			return true
		}
	}
	return false
}

// IDContainsSpecification matches IDs containing Fragment.
type IDContainsSpecification struct {
	Fragment string
}

// NewIDContainsSpecification returns nil for a blank fragment.
func NewIDContainsSpecification(fragment string) shared.Specification[Item] {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}
	return IDContainsSpecification{Fragment: fragment}
}

func (s IDContainsSpecification) IsSatisfiedBy(_ context.Context, item Item) bool {
	return strings.Contains(item.ID, s.Fragment)
}

// EnumSpecification matches an exact field value.
type EnumSpecification struct {
	Field string
	Value string
}

// NewEnumSpecification returns nil when value is an "all" sentinel.
func NewEnumSpecification(field, value string) shared.Specification[Item] {
	if IsAll(value) {
		return nil
	}
	return EnumSpecification{Field: field, Value: strings.TrimSpace(value)}
}

func (s EnumSpecification) IsSatisfiedBy(_ context.Context, item Item) bool {
	return item.Field(s.Field) == s.Value
}

// RangeSpecification matches numeric fields inside an inclusive range. Items
// without the field never match an active range.
type RangeSpecification struct {
	Field string
	Range Range
}

// NewRangeSpecification returns nil when no bound is set.
func NewRangeSpecification(field string, r Range) shared.Specification[Item] {
	if r.IsZero() {
		return nil
	}
	return RangeSpecification{Field: field, Range: r}
}

func (s RangeSpecification) IsSatisfiedBy(_ context.Context, item Item) bool {
	n, ok := item.Number(s.Field)
	if !ok {
		return false
	}
	if s.Range.Min != nil && n < *s.Range.Min {
		return false
	}
	if s.Range.Max != nil && n > *s.Range.Max {
		return false
	}
	return true
}

// DateRangeSpecification matches timestamps inside an inclusive range. A To
// bound without a clock time covers the whole day.
type DateRangeSpecification struct {
	Field string
	Range DateRange
}

// NewDateRangeSpecification returns nil when no bound is set.
func NewDateRangeSpecification(field string, r DateRange) shared.Specification[Item] {
	if r.IsZero() {
		return nil
	}
	return DateRangeSpecification{Field: field, Range: r}
}

func (s DateRangeSpecification) IsSatisfiedBy(_ context.Context, item Item) bool {
	t, ok := item.Time(s.Field)
	if !ok {
		return false
	}
	if !s.Range.From.IsZero() && t.Before(s.Range.From) {
		return false
	}
	if to := s.Range.To; !to.IsZero() {
		if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 && to.Nanosecond() == 0 {
			to = to.AddDate(0, 0, 1)
			return t.Before(to)
		}
		return !t.After(to)
	}
	return true
}

// BuildSpecification composes every active predicate of state for e. Fields
// the collection does not declare are ignored.
func BuildSpecification(e entity.Entity, state FilterState) shared.Specification[Item] {
	d := entity.Describe(e)
	specs := []shared.Specification[Item]{
		NewSearchSpecification(d.SearchFields, state.Search),
	}
	if d.IDFilter {
		specs = append(specs, NewIDContainsSpecification(state.IDContains))
	}
	for field, value := range state.Enums {
		if d.IsEnum(field) {
			specs = append(specs, NewEnumSpecification(field, value))
		}
	}
	for field, r := range state.Ranges {
		if d.IsNumeric(field) {
			specs = append(specs, NewRangeSpecification(field, r))
		}
	}
	for field, r := range state.Dates {
		if d.IsDate(field) {
			specs = append(specs, NewDateRangeSpecification(field, r))
		}
	}
	return shared.And(specs...)
}

// Filter returns the items of e matching state, in collection order.
func Filter(ctx context.Context, e entity.Entity, items []Item, state FilterState) []Item {
	return shared.Select(ctx, items, BuildSpecification(e, state))
}
