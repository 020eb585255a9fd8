package kernel

// Page is the pagination block of a listing response. Number is 1-based.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated is one page of a listing. Items is never nil so it encodes as [].
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Paginated[T]{
		Items: items,
		Page:  Page{Number: page, Size: size, Total: total, Pages: pages},
		Empty: len(items) == 0,
	}
}

func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// PaginationOptions is the page a caller asked for.
type PaginationOptions struct {
	Page     int
	PageSize int
}

// Normalize clamps the options to a 1-based page and a size within (0, maxSize].
func (o PaginationOptions) Normalize(defaultSize, maxSize int) PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultSize
	}
	if maxSize > 0 && o.PageSize > maxSize {
		o.PageSize = maxSize
	}
	return o
}

// Offset is the number of rows to skip; call it on normalized options.
func (o PaginationOptions) Offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * o.PageSize
}
