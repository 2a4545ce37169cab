package matchview

import "fmt"

// Paginator tracks the current page for a UI and clamps navigation into range
type Paginator struct {
	pageSize   int
	totalPages int
	current    int
}

// NewPaginator starts on page 1
func NewPaginator(pageSize, itemCount int) (*Paginator, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}
	return &Paginator{
		pageSize:   pageSize,
		totalPages: TotalPages(itemCount, pageSize),
		current:    1,
	}, nil
}

// Current is the 1-based current page
func (p *Paginator) Current() int { return p.current }

// TotalPages is 0 when there are no items
func (p *Paginator) TotalPages() int { return p.totalPages }

// PageSize is the number of items per page
func (p *Paginator) PageSize() int { return p.pageSize }

func (p *Paginator) lastPage() int {
	return max(p.totalPages, 1)
}

// GoTo moves to n clamped into [1, TotalPages] and returns the page landed on
func (p *Paginator) GoTo(n int) int {
	p.current = min(max(n, 1), p.lastPage())
	return p.current
}

// First jumps to page 1
func (p *Paginator) First() int {
	p.current = 1
	return p.current
}

// Last jumps to the final page
func (p *Paginator) Last() int {
	p.current = p.lastPage()
	return p.current
}

// Next advances one page, staying put on the last page
func (p *Paginator) Next() int { return p.GoTo(p.current + 1) }

// Prev goes back one page, staying put on page 1
func (p *Paginator) Prev() int { return p.GoTo(p.current - 1) }

// HasNext reports whether a page follows the current one
func (p *Paginator) HasNext() bool { return p.current < p.totalPages }

// HasPrev reports whether a page precedes the current one
func (p *Paginator) HasPrev() bool { return p.current > 1 }

// SetItemCount updates the total after a refetch and re-clamps the current page
func (p *Paginator) SetItemCount(n int) {
	p.totalPages = TotalPages(n, p.pageSize)
	p.GoTo(p.current)
}

// Window lists the page numbers within radius of the current page
func (p *Paginator) Window(radius int) []int {
	if p.totalPages == 0 {
		return []int{}
	}
	lo := max(1, p.current-radius)
	hi := min(p.totalPages, p.current+radius)
	pages := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		pages = append(pages, n)
	}
	return pages
}
