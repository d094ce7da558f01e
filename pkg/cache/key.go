package cache

import (
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every key this package writes.
const keyPrefix = "catalog"

// Key identifies one cached response: a REST resource plus the query that
// selected the page.
type Key struct {
	// Resource is the collection path without slashes, e.g. "space-objects".
	Resource string

	// Query holds the request's query parameters.
	Query url.Values
}

// String renders a deterministic Redis key.
//
//	catalog:space-objects:_limit=10:_page=2:_start=10
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(normalizeResource(k.Resource))

	names := make([]string, 0, len(k.Query))
	for name := range k.Query {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := append([]string(nil), k.Query[name]...)
		sort.Strings(values)
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, ","))
	}
	return b.String()
}

// ResourcePattern is the SCAN pattern matching every key of resource.
func ResourcePattern(resource string) string {
	return keyPrefix + ":" + normalizeResource(resource) + ":*"
}

// BareKey is the key of a resource requested without query parameters.
func BareKey(resource string) string {
	return Key{Resource: resource}.String()
}

func normalizeResource(resource string) string {
	return strings.Trim(resource, "/")
}
