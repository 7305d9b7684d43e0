package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	// maxPage keeps (page-1)*per_page within the int32 range PostgreSQL
	// accepts for OFFSET.
	maxPage = math.MaxInt32 / maxPerPage
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	page, perPage = normalisePage(page, perPage)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageRequest is the requested window of a listing.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	page, perPage := min(p.Page, maxPage), min(p.PerPage, maxPerPage)
	return (page - 1) * perPage
}

// PageFromRequest reads page and per_page query parameters.
func PageFromRequest(r *http.Request) PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	page, perPage = normalisePage(page, perPage)
	return PageRequest{Page: page, PerPage: perPage}
}

func normalisePage(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	return page, perPage
}
