package person

// SearchPageSize is the fixed page size of the search surface.
const SearchPageSize = 100

// Page is one bounded slice of results plus the totals computed from the
// same predicate set.
type Page struct {
	Items      []Person `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
}

// ClampPage normalizes a 1-based page number: absent or non-positive values
// become page 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// TotalPages computes ceil(total/size) with a floor of one page even for an
// empty result set.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Offset converts a clamped page number into a row offset. A page past the
// end yields an offset past the result set; the fetch then returns no rows,
// which is the expected empty page rather than an error.
func Offset(page, size int) int {
	return (ClampPage(page) - 1) * size
}
