package listing

import "strings"

// AllKey is the counter key holding the collection size.
const AllKey = "all"

// CountByStatus counts items per raw status. The AllKey entry holds the total.
// Declared statuses with no items are present with zero.
func CountByStatus(items []Item, declared []string) map[string]int {
	counts := make(map[string]int, len(declared)+1)
	for _, s := range declared {
		counts[s] = 0
	}
	counts[AllKey] = len(items)
	for _, it := range items {
		counts[it.StatusRaw]++
	}
	return counts
}

// Options returns the distinct non-blank values of field in first-seen order.
// For "role" only the primary (first) role counts, the one the role filter
// matches against.
func Options(items []Item, field string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, it := range items {
		if field == "role" && len(it.Roles) > 0 {
			add(it.Roles[0])
			continue
		}
		add(it.Field(field))
	}
	return out
}

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
