package domain

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// IsDone reports whether the page ending at Offset()+n reaches total.
func (p PaginationParams) IsDone(n, total int) bool {
	return p.Offset()+n >= total
}
