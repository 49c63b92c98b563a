package model

const (
	DefaultPage          = 1
	DefaultRecordsNumber = 10
	MaxRecordsNumber     = 100
)

// Pagination carries the list query parameters shared by every paginated endpoint.
// ID is the parent id for child collections (the country of a state list, the
// state of a city list).
type Pagination struct {
	ID             int    `json:"id"`
	Page           int    `json:"page"`
	RecordsNumber  int    `json:"recordsNumber"`
	Filter         string `json:"filter,omitempty"`
	CategoryFilter string `json:"categoryFilter,omitempty"`
}

// Normalize applies defaults and bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.RecordsNumber < 1 {
		p.RecordsNumber = DefaultRecordsNumber
	}
	if p.RecordsNumber > MaxRecordsNumber {
		p.RecordsNumber = MaxRecordsNumber
	}
	return p
}

// Offset returns the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.RecordsNumber
}

// Limit returns the page size.
func (p Pagination) Limit() int {
	return p.Normalize().RecordsNumber
}

// TotalPages returns ceil(count / recordsNumber).
func (p Pagination) TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	size := p.Limit()
	return (count + size - 1) / size
}
