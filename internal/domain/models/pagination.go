package models

import "math"

// Pagination describes one page of a listing.
type Pagination struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit inside int64.
	MaxPage = math.MaxInt32
)

// NewPagination clamps page and limit and computes the page count.
func NewPagination(page, limit int, total int64) Pagination {
	page, limit = NormalizePage(page, limit)
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, TotalRecords: total, TotalPages: pages}
}

// NormalizePage applies defaults to page and limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset returns the number of rows before page.
func Offset(page, limit int) int64 {
	page, limit = NormalizePage(page, limit)
	return int64(page-1) * int64(limit)
}

// Skip returns the offset of the page, never past TotalRecords.
func (p Pagination) Skip() int64 {
	return min(Offset(p.Page, p.Limit), p.TotalRecords)
}
