// internal/app/system/paging/paging.go
//
// Paging for roster-style lists. Lists here are served from the in-memory
// member cache rather than per-page database queries, so paging is a slice
// operation over already-loaded rows with 1-based "start" offsets in the URL.
package paging

import (
	"net/http"
	"strconv"
)

// PageSize is the default number of rows shown in paged lists.
const PageSize = 50

// ParseStart extracts the 1-based "start" query parameter.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := r.URL.Query().Get("start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int // 1-based start index (0 if no results)
	End       int // 1-based end index (0 if no results)
	Total     int
	PrevStart int // start value for the previous page link
	NextStart int // start value for the next page link
	HasPrev   bool
	HasNext   bool
}

// Page slices one page out of rows in place and returns the display range.
// A start past the end of the list snaps back to the last page.
func Page[T any](rows *[]T, start int) Range {
	total := len(*rows)
	if total == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}
	if start > total {
		start = ((total - 1) / PageSize * PageSize) + 1
	}

	end := start + PageSize - 1
	if end > total {
		end = total
	}
	*rows = (*rows)[start-1 : end]

	prevStart := start - PageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       end,
		Total:     total,
		PrevStart: prevStart,
		NextStart: end + 1,
		HasPrev:   start > 1,
		HasNext:   end < total,
	}
}
