package console

import (
	"net/url"
	"strconv"
	"strings"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
)

// ParseState reads the page state of e from query parameters:
//
//	search, order_id          free text and id fragment
//	<enum field>              e.g. status=PENDING, role=ADMIN
//	min_<field>, max_<field>  numeric bounds, e.g. min_price=100
//	from_<field>, to_<field>  date bounds, e.g. from_createdAt=2024-01-01
//	sort, dir                 sort key and asc|desc
//	page, page_size
//
// Parameters for fields e does not declare are ignored; malformed numbers
// leave the bound unset.
func ParseState(e entity.Entity, q url.Values) listing.FilterState {
	d := entity.Describe(e)
	state := listing.FilterState{
		Search:     strings.TrimSpace(q.Get("search")),
		IDContains: strings.TrimSpace(q.Get("order_id")),
		Sort: listing.SortSpec{
			Key:       strings.TrimSpace(q.Get("sort")),
			Direction: listing.ParseDirection(q.Get("dir")),
		},
		Page:     atoi(q.Get("page")),
		PageSize: atoi(q.Get("page_size")),
	}

	for _, f := range d.EnumFields {
		if v := q.Get(f); !listing.IsAll(v) {
			if state.Enums == nil {
				state.Enums = map[string]string{}
			}
			state.Enums[f] = strings.TrimSpace(v)
		}
	}
	for _, f := range d.NumericFields {
		r := listing.Range{Min: listing.ParseBound(q.Get("min_" + f)), Max: listing.ParseBound(q.Get("max_" + f))}
		if !r.IsZero() {
			if state.Ranges == nil {
				state.Ranges = map[string]listing.Range{}
			}
			state.Ranges[f] = r
		}
	}
	for _, f := range d.DateFields {
		r := listing.DateRange{From: listing.ParseDate(q.Get("from_" + f)), To: listing.ParseDate(q.Get("to_" + f))}
		if !r.IsZero() {
			if state.Dates == nil {
				state.Dates = map[string]listing.DateRange{}
			}
			state.Dates[f] = r
		}
	}
	return state
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
