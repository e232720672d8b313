package helpers

import (
	"net/http"
	"strconv"

	"eventticketing/internal/domain"
)

// ParsePagination reads page and page_size from the query string. Missing or
// unparsable values fall back to the first page of domain.DefaultPageSize events.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.NewPagination(atoiOrZero(q.Get("page")), atoiOrZero(q.Get("page_size")))
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// PaginationMeta accompanies every paginated listing.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: params.TotalPages(total),
	}
}
