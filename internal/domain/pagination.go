package domain

// Event listings page through results ten at a time unless the caller asks otherwise.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams selects one page of a date-ordered listing.
type PaginationParams struct {
	Page     int
	PageSize int
}

// NewPagination clamps page to at least 1 and pageSize into [1, MaxPageSize],
// using DefaultPageSize when pageSize is not positive.
func NewPagination(page, pageSize int) PaginationParams {
	return PaginationParams{Page: page, PageSize: pageSize}.Normalized()
}

func (p PaginationParams) Normalized() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages is the page count needed to show total rows.
func (p PaginationParams) TotalPages(total int) int {
	if p.PageSize < 1 || total < 1 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}
