package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"missing", "/members", 1},
		{"valid", "/members?start=51", 51},
		{"zero", "/members?start=0", 1},
		{"negative", "/members?start=-5", 1},
		{"garbage", "/members?start=abc", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := ParseStart(r); got != tt.want {
				t.Errorf("ParseStart(%q) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func intRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i + 1
	}
	return rows
}

func TestPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		start    int
		wantLen  int
		wantRng  Range
		wantHead int // first element after slicing, 0 when empty
	}{
		{
			name:    "empty",
			total:   0,
			start:   1,
			wantLen: 0,
			wantRng: Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1},
		},
		{
			name:     "single short page",
			total:    3,
			start:    1,
			wantLen:  3,
			wantRng:  Range{Start: 1, End: 3, Total: 3, PrevStart: 1, NextStart: 4},
			wantHead: 1,
		},
		{
			name:     "exactly one full page",
			total:    PageSize,
			start:    1,
			wantLen:  PageSize,
			wantRng:  Range{Start: 1, End: PageSize, Total: PageSize, PrevStart: 1, NextStart: PageSize + 1},
			wantHead: 1,
		},
		{
			name:     "first of two pages",
			total:    PageSize + 10,
			start:    1,
			wantLen:  PageSize,
			wantRng:  Range{Start: 1, End: PageSize, Total: PageSize + 10, PrevStart: 1, NextStart: PageSize + 1, HasNext: true},
			wantHead: 1,
		},
		{
			name:     "second page partial",
			total:    PageSize + 10,
			start:    PageSize + 1,
			wantLen:  10,
			wantRng:  Range{Start: PageSize + 1, End: PageSize + 10, Total: PageSize + 10, PrevStart: 1, NextStart: PageSize + 11, HasPrev: true},
			wantHead: PageSize + 1,
		},
		{
			name:     "middle page",
			total:    PageSize * 3,
			start:    PageSize + 1,
			wantLen:  PageSize,
			wantRng:  Range{Start: PageSize + 1, End: PageSize * 2, Total: PageSize * 3, PrevStart: 1, NextStart: PageSize*2 + 1, HasPrev: true, HasNext: true},
			wantHead: PageSize + 1,
		},
		{
			name:     "start past end snaps to last page",
			total:    PageSize + 10,
			start:    999,
			wantLen:  10,
			wantRng:  Range{Start: PageSize + 1, End: PageSize + 10, Total: PageSize + 10, PrevStart: 1, NextStart: PageSize + 11, HasPrev: true},
			wantHead: PageSize + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := intRows(tt.total)
			got := Page(&rows, tt.start)

			if len(rows) != tt.wantLen {
				t.Fatalf("Page() left %d rows, want %d", len(rows), tt.wantLen)
			}
			if got != tt.wantRng {
				t.Errorf("Page() = %+v, want %+v", got, tt.wantRng)
			}
			if tt.wantLen > 0 && rows[0] != tt.wantHead {
				t.Errorf("Page() first row = %d, want %d", rows[0], tt.wantHead)
			}
		})
	}
}
