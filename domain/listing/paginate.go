package listing

// Page is one window of a filtered, sorted collection.
type Page struct {
	Items      []Item
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Paginate returns the page-th window of size items. TotalPages is at least 1,
// and page is clamped into [1, TotalPages], so an empty result is page 1 of 1.
// A size below 1 is treated as 1.
func Paginate(items []Item, page, size int) Page {
	if size < 1 {
		size = 1
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	window := make([]Item, end-start)
	copy(window, items[start:end])
	return Page{
		Items:      window,
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: pages,
	}
}
