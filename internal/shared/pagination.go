package shared

import (
	"net/url"
	"strconv"
)

// Pagination carries limit/offset parsed from list query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// PaginationFromQuery parses limit and offset, clamping limit to [1, max]
// and falling back to def when absent or malformed.
func PaginationFromQuery(q url.Values, def, max int) Pagination {
	p := Pagination{Limit: def}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			p.Limit = limit
		}
	}
	if p.Limit > max {
		p.Limit = max
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			p.Offset = offset
		}
	}
	return p
}
