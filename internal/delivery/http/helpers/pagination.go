package helpers

import (
	"net/http"

	"teamcalendar/internal/domain"
)

// ParsePagination reads page and page_size from the query string. Malformed values
// are ignored and out-of-range ones clamped, so list endpoints never fail on paging.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page, err := QueryInt(r, "page", 1)
	if err != nil {
		page = 1
	}
	size, err := QueryInt(r, "page_size", domain.DefaultPageSize)
	if err != nil {
		size = domain.DefaultPageSize
	}
	return domain.NewPaginationParams(page, size)
}

// PaginationMeta accompanies every paginated list body.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta describes the page that params selected out of total rows.
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: params.TotalPages(total),
	}
}
