package pagination

import (
	"sort"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

// Merge flattens pages into one list. The first occurrence of an id wins, so
// an item that shifted onto a later page after a concurrent write appears
// once. The result is ordered by numeric id; ids that are not integers come
// last, ordered as strings.
func Merge(pages []Page) []catalog.SpaceObject {
	total := 0
	for _, p := range pages {
		total += len(p.Items)
	}

	seen := make(map[string]struct{}, total)
	out := make([]catalog.SpaceObject, 0, total)
	for _, p := range pages {
		for _, item := range p.Items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessByID(out[i], out[j])
	})
	return out
}

func lessByID(a, b catalog.SpaceObject) bool {
	an, aok := a.NumericID()
	bn, bok := b.NumericID()
	switch {
	case aok && bok:
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	case aok:
		return true
	case bok:
		return false
	default:
		return a.ID < b.ID
	}
}
