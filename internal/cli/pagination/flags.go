package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Validation limits and defaults.
const (
	MaxLimit         = 10000
	DefaultPageSize  = 50
	MaxPageSize      = 1000
	DefaultSortOrder = SortOrderAsc
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Validation errors.
var (
	ErrNegativeValue        = errors.New("pagination values cannot be negative")
	ErrLimitTooLarge        = fmt.Errorf("limit cannot exceed %d", MaxLimit)
	ErrPageSizeTooLarge     = fmt.Errorf("page-size cannot exceed %d", MaxPageSize)
	ErrMixedPaginationModes = errors.New("page and offset parameters are mutually exclusive")
	ErrPageSizeWithoutPage  = errors.New("page must be specified when using page-size")
	ErrInvalidSortFormat    = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'code:desc')")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrEmptySortField       = errors.New("sort field cannot be empty")
	ErrInvalidSortField     = errors.New("invalid sort field")
)

// Params holds the pagination flags of a list command.
type Params struct {
	// Limit caps the number of results in offset mode. Zero means no limit.
	Limit int

	// Offset skips results in offset mode.
	Offset int

	// Page is the 1-based page number. Zero disables page mode.
	Page int

	// PageSize is the number of results per page. Defaults to DefaultPageSize in page mode.
	PageSize int

	// Sort is a "field" or "field:order" expression.
	Sort string
}

// AddFlags registers the pagination flags on cmd, bound to p.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Limit, "limit", 0, "maximum number of results (0 = all)")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "number of results to skip")
	cmd.Flags().IntVar(&p.Page, "page", 0, "page number, starting at 1")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "results per page (used with --page)")
	cmd.Flags().StringVar(&p.Sort, "sort", "", "sort expression, e.g. code or updated:desc")
}

// Validate checks the parameters for range errors and mixed modes.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Offset < 0 || p.Page < 0 || p.PageSize < 0 {
		return ErrNegativeValue
	}
	if p.Limit > MaxLimit {
		return ErrLimitTooLarge
	}
	if p.PageSize > MaxPageSize {
		return ErrPageSizeTooLarge
	}
	if p.Page > 0 && p.Offset > 0 {
		return ErrMixedPaginationModes
	}
	if p.Page == 0 && p.PageSize > 0 {
		return ErrPageSizeWithoutPage
	}
	return nil
}

// WithDefaultPageSize fills PageSize in page mode when the flag was not given.
func (p Params) WithDefaultPageSize(size int) Params {
	if p.Page > 0 && p.PageSize == 0 {
		if size <= 0 {
			size = DefaultPageSize
		}
		p.PageSize = size
	}
	return p
}

// IsPageBased reports whether page mode is active.
func (p Params) IsPageBased() bool {
	return p.Page > 0
}

// OffsetLimit returns the effective offset and limit. A zero limit means unbounded.
//
//nolint:nonamedreturns // Named returns document the pair.
func (p Params) OffsetLimit() (offset, limit int) {
	if p.IsPageBased() {
		size := p.PageSize
		if size == 0 {
			size = DefaultPageSize
		}
		return (p.Page - 1) * size, size
	}
	return p.Offset, p.Limit
}

// Apply returns the window of items selected by p.
// A page past the end yields the last page; an offset past the end yields nothing.
func Apply[T any](p Params, items []T) []T {
	if len(items) == 0 {
		return []T{}
	}

	offset, limit := p.OffsetLimit()
	if p.IsPageBased() && offset >= len(items) {
		offset = ((len(items) - 1) / limit) * limit
	}
	if offset >= len(items) {
		return []T{}
	}

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// ParseSort splits a "field" or "field:order" expression. An empty expression
// returns an empty field and the default order.
//
//nolint:nonamedreturns // Named returns document the pair.
func ParseSort(expr string) (field, order string, err error) {
	if strings.TrimSpace(expr) == "" {
		return "", DefaultSortOrder, nil
	}

	parts := strings.Split(expr, ":")
	switch len(parts) {
	case 1:
		field, order = strings.TrimSpace(parts[0]), DefaultSortOrder
	case 2:
		field, order = strings.TrimSpace(parts[0]), strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, expr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}
