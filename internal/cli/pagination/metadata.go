package pagination

// Meta describes a paginated result set.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	Returned    int  `json:"returned"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewMeta builds metadata for a window of returned items out of totalCount.
func NewMeta(p Params, totalCount, returned int) Meta {
	offset, size := p.OffsetLimit()
	if size == 0 {
		size = totalCount
	}

	totalPages := 0
	if size > 0 {
		totalPages = (totalCount + size - 1) / size
	}

	currentPage := 1
	if size > 0 {
		currentPage = offset/size + 1
	}
	if p.IsPageBased() && currentPage > totalPages && totalPages > 0 {
		// Apply clamps past-the-end pages to the last one.
		currentPage = totalPages
	}

	return Meta{
		CurrentPage: currentPage,
		PageSize:    size,
		TotalPages:  totalPages,
		TotalItems:  totalCount,
		Returned:    returned,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}
