package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/sagequery/internal/pager"
)

// Validation limits and defaults for the paging flags.
const (
	DefaultLimit     = 0
	MaxLimit         = 100000
	DefaultPageSize  = pager.DefaultPageSize
	MinPageSize      = 1
	MaxPageSize      = 1000
	DefaultOffset    = 0
	MinPage          = 1
	DefaultSortField = ""
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Validation errors.
var (
	ErrInvalidLimit         = errors.New("limit must be between 0 and 100000")
	ErrInvalidPageSize      = errors.New("page-size must be between 1 and 1000")
	ErrInvalidOffset        = errors.New("offset must be non-negative")
	ErrInvalidPage          = errors.New("page must be >= 1")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrMixedPaginationModes = errors.New("cannot use both offset-based (--offset) and page-based (--page) pagination")
	ErrInvalidSortFormat    = errors.New("invalid sort format: use 'var' or 'var:order' (e.g., 'name:desc')")
	ErrEmptySortField       = errors.New("sort variable cannot be empty")
	ErrInvalidSortField     = errors.New("unknown sort variable")
)

// PaginationParams holds the paging flags of the query command.
// Two selection modes are supported:
//   - Page-based: --page and --page-size select one pager page
//   - Offset-based: --offset and --limit slice the full result
//
// The modes are mutually exclusive. With neither set, every row is printed.
//
//nolint:revive // PaginationParams is the canonical name for this exported type.
type PaginationParams struct {
	// Limit caps the number of rows printed in offset mode (0 means all).
	Limit int

	// Offset is the number of rows to skip in offset mode.
	Offset int

	// Page is the 1-based page to print (0 disables page mode).
	Page int

	// PageSize is the number of rows per page.
	PageSize int

	// SortField is the variable to order rows by, without the leading '?'.
	SortField string

	// SortOrder is "asc" or "desc".
	SortOrder string
}

// NewPaginationParams returns params with page mode disabled and the default page size.
func NewPaginationParams() *PaginationParams {
	return &PaginationParams{
		Limit:     DefaultLimit,
		Offset:    DefaultOffset,
		PageSize:  DefaultPageSize,
		SortField: DefaultSortField,
		SortOrder: DefaultSortOrder,
	}
}

// Validate checks the flags for range errors and mode conflicts.
func (p PaginationParams) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	if p.Page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.Page > 0 && (p.Offset > 0 || p.Limit > 0) {
		return ErrMixedPaginationModes
	}
	if p.SortOrder != "" && p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// IsPageBased reports whether --page was given.
func (p PaginationParams) IsPageBased() bool {
	return p.Page > 0
}

// sortPartsMax is the number of parts in "var:order".
const sortPartsMax = 2

// ParseSort parses "var" or "var:order". A leading '?' on the variable is dropped.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if strings.TrimSpace(sortStr) == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	field = strings.TrimPrefix(field, "?")
	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// Select applies the params to rows and returns the rows to print with their
// metadata. Page mode goes through a pager, so out-of-range pages clamp to the
// last page; offset mode past the end yields no rows.
func Select[T any](p PaginationParams, rows []T) ([]T, PaginationMeta, error) {
	if p.IsPageBased() {
		pg, err := pager.New[T](p.PageSize)
		if err != nil {
			return nil, PaginationMeta{}, err
		}
		pg.Load(rows)
		pg.GoTo(p.Page)
		page := pg.Visible()
		return page.Rows, MetaFromPage(page), nil
	}

	offset := min(p.Offset, len(rows))
	end := len(rows)
	if p.Limit > 0 {
		end = min(offset+p.Limit, len(rows))
	}
	return rows[offset:end], NewPaginationMeta(p, len(rows)), nil
}
