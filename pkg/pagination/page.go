package pagination

import "github.com/Sternrassler/space-catalog/pkg/catalog"

// PageSize is the number of items requested per page.
const PageSize = 10

// Page is one loaded page of the collection.
type Page struct {
	// Number is 1-based.
	Number int

	Items []catalog.SpaceObject

	// HasMore is true when the page was full, so a further page may exist.
	HasMore bool

	// TotalCount is the server's collection size, 0 when it was not reported.
	TotalCount int
}

// NewPage builds page number from items, deriving HasMore from size.
func NewPage(number, size int, items []catalog.SpaceObject, totalCount int) Page {
	return Page{
		Number:     number,
		Items:      items,
		HasMore:    size > 0 && len(items) == size,
		TotalCount: totalCount,
	}
}

// Offset returns the index of the first item of page number.
func Offset(number, size int) int {
	if number < 1 || size < 1 {
		return 0
	}
	return (number - 1) * size
}

// PageCount returns how many pages of size hold total items.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
