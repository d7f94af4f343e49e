package pagination

import (
	"github.com/rshade/sagequery/internal/pager"
)

// PaginationMeta describes where a printed slice sits in the full result.
//
//nolint:revive // PaginationMeta is the canonical name for this exported type.
type PaginationMeta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`
}

// MetaFromPage copies the counters of a pager page.
func MetaFromPage[T any](page pager.Page[T]) PaginationMeta {
	return PaginationMeta{
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
		HasPrevious: page.HasPrev,
		HasNext:     page.HasNext,
	}
}

// NewPaginationMeta builds metadata for offset mode, where the limit acts as the
// page size. Without a limit the whole result is one page.
func NewPaginationMeta(params PaginationParams, totalCount int) PaginationMeta {
	pageSize := params.Limit
	if pageSize == 0 {
		pageSize = totalCount
	}

	currentPage := 1
	if params.Offset > 0 && pageSize > 0 {
		currentPage = params.Offset/pageSize + 1
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return PaginationMeta{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalCount,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}
