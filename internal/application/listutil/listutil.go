// Package listutil parses list-page query strings and computes pagination
// for the platform tenant and audit pages.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is used when per_page is missing or not an allowed option.
const DefaultPerPage = 25

// MaxSearchLength caps the free-text search term.
const MaxSearchLength = 100

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 25, 50, 100}

// Params are the list parameters read from a request.
type Params struct {
	Page    int // 1-indexed
	PerPage int
	Search  string
	// Filters holds only the keys the caller allowed.
	Filters map[string]string
}

// Parse reads page, per_page, q and the named filters from q.
// PRE: none
// POST: Page >= 1, PerPage is one of PerPageOptions, Search is trimmed and capped
func Parse(q url.Values, filterKeys ...string) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !allowedPerPage(perPage) {
		perPage = DefaultPerPage
	}

	search := strings.TrimSpace(q.Get("q"))
	if r := []rune(search); len(r) > MaxSearchLength {
		search = string(r[:MaxSearchLength])
	}

	p := Params{Page: page, PerPage: perPage, Search: search, Filters: map[string]string{}}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Filter returns the value of an allowed filter, or "".
func (p Params) Filter(key string) string {
	return p.Filters[key]
}

// Query encodes p for page, keeping search, per_page and filters, so page
// links preserve the current view.
func (p Params) Query(page int) string {
	v := url.Values{}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if p.PerPage != DefaultPerPage && p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	for k, val := range p.Filters {
		v.Set(k, val)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1 and Page is clamped into [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset is the row offset of the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow is the 1-indexed first row shown, or 0 when the list is empty.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow is the 1-indexed last row shown.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

func (p PageInfo) HasPrev() bool { return p.Page > 1 }
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }
func (p PageInfo) PrevPage() int { return max(p.Page-1, 1) }
func (p PageInfo) NextPage() int { return min(p.Page+1, p.TotalPages) }

// PageNumbers returns at most five page numbers around the current page.
func (p PageInfo) PageNumbers() []int {
	const window = 5
	start := max(p.Page-window/2, 1)
	end := start + window - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-window+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether more than one page exists.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}

func allowedPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
