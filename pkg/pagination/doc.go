// Package pagination loads the space-objects collection page by page.
//
// A Fetcher requests fixed-size pages for one query and appends them to an
// injected QueryCache. Merge projects the retained pages into a single view
// without duplicates, ordered by numeric id. Whether another page exists is
// guessed from the page length: a full page means "maybe more", a short page
// ends the listing.
//
// Every cache entry carries a generation. Invalidating an entry bumps it, and
// a page that was requested under an older generation is dropped when it
// arrives.
//
// Example usage:
//
//	queries := pagination.NewQueryCache()
//	loader := pagination.ClientLoader{Client: catalogClient}
//	f := pagination.NewFetcher(pagination.SpaceObjectsQuery, loader, queries)
//
//	if err := f.Load(ctx); err != nil {
//	    return err
//	}
//	for f.State().HasMore {
//	    if _, err := f.FetchNext(ctx); err != nil {
//	        return err
//	    }
//	}
//	objects := f.View()
//
// BatchFetcher loads every page up front, in parallel when the server reports
// a total count.
package pagination
