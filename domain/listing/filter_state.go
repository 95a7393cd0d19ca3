package listing

import (
	"strconv"
	"strings"
	"time"
)

// SortDirection orders a sort key.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// ParseDirection defaults to ascending.
func ParseDirection(s string) SortDirection {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// SortSpec is a key plus direction. An empty key keeps collection order.
type SortSpec struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// Range is an inclusive numeric range. Nil bounds are unset.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool { return r.Min == nil && r.Max == nil }

// DateRange is an inclusive date range. Zero bounds are unset.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// FilterState is the user-controlled state of one page.
type FilterState struct {
	Search     string               `json:"search"`
	IDContains string               `json:"idContains,omitempty"`
	Enums      map[string]string    `json:"enums,omitempty"`
	Ranges     map[string]Range     `json:"ranges,omitempty"`
	Dates      map[string]DateRange `json:"dates,omitempty"`
	Sort       SortSpec             `json:"sort"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
}

// IsAll reports whether an enum filter value disables the filter.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all") || v == "Tất cả"
}

// ParseBound parses a numeric range bound. Empty or unparseable input is unset.
func ParseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate parses a date bound. Unparseable input is unset.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SamePredicates reports whether s and o select the same rows. Sort and
// pagination are ignored.
func (s FilterState) SamePredicates(o FilterState) bool {
	if strings.TrimSpace(s.Search) != strings.TrimSpace(o.Search) ||
		strings.TrimSpace(s.IDContains) != strings.TrimSpace(o.IDContains) {
		return false
	}
	if !sameEnums(s.Enums, o.Enums) {
		return false
	}
	if !sameRanges(s.Ranges, o.Ranges) {
		return false
	}
	return sameDates(s.Dates, o.Dates)
}

func sameEnums(a, b map[string]string) bool {
	active := func(m map[string]string) map[string]string {
		out := map[string]string{}
		for k, v := range m {
			if !IsAll(v) {
				out[k] = v
			}
		}
		return out
	}
	x, y := active(a), active(b)
	if len(x) != len(y) {
		return false
	}
	for k, v := range x {
		if y[k] != v {
			return false
		}
	}
	return true
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameRanges(a, b map[string]Range) bool {
	keys := map[string]struct{}{}
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if !sameBound(a[k].Min, b[k].Min) || !sameBound(a[k].Max, b[k].Max) {
			return false
		}
	}
	return true
}

func sameDates(a, b map[string]DateRange) bool {
	keys := map[string]struct{}{}
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if !a[k].From.Equal(b[k].From) || !a[k].To.Equal(b[k].To) {
			return false
		}
	}
	return true
}
