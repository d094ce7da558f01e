package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/space-catalog/pkg/client"
)

// ErrNoLoader is returned by fetchers constructed without a Loader.
var ErrNoLoader = errors.New("pagination: no page loader configured")

// Loader loads one page of the collection.
type Loader interface {
	LoadPage(ctx context.Context, number, size int) (Page, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, number, size int) (Page, error)

// LoadPage calls f.
func (f LoaderFunc) LoadPage(ctx context.Context, number, size int) (Page, error) {
	return f(ctx, number, size)
}

// Lister is the part of client.Client a ClientLoader needs.
type Lister interface {
	ListPage(ctx context.Context, page, limit int) (*client.ListResult, error)
}

// ClientLoader loads pages through the REST client.
type ClientLoader struct {
	Client Lister
}

// LoadPage fetches page number of size from the server.
func (l ClientLoader) LoadPage(ctx context.Context, number, size int) (Page, error) {
	if l.Client == nil {
		return Page{}, ErrNoLoader
	}
	res, err := l.Client.ListPage(ctx, number, size)
	if err != nil {
		return Page{}, fmt.Errorf("list page %d: %w", number, err)
	}
	return NewPage(number, size, res.Items, res.TotalCount), nil
}
