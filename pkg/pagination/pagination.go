package pagination

const (
	// DefaultPerPage is the standard page size when none is provided.
	DefaultPerPage = 10
	// MaxPerPage caps how many rows any list query can request.
	MaxPerPage = 100
)

// Params holds page-numbered pagination inputs from controllers.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps the page number and size to sane bounds.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return p.Normalize().PerPage
}

// Page describes one page of results plus the total row count.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles the response page from a normalized query result.
func NewPage[T any](items []T, params Params, total int64) *Page[T] {
	n := params.Normalize()
	pages := int(total) / n.PerPage
	if int(total)%n.PerPage != 0 {
		pages++
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Page:       n.Page,
		PerPage:    n.PerPage,
		TotalRows:  total,
		TotalPages: pages,
	}
}
