package cache

import (
	"net/http"
	"time"
)

// Entry is a stored response body plus the validators needed to revalidate it.
type Entry struct {
	Body         []byte      `json:"body"`
	ETag         string      `json:"etag,omitempty"`
	LastModified time.Time   `json:"last_modified,omitempty"`
	Expires      time.Time   `json:"expires"`
	StatusCode   int         `json:"status_code"`
	Header       http.Header `json:"header"`
	StoredAt     time.Time   `json:"stored_at"`
}

// IsExpired reports whether the entry outlived its lifetime.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the remaining lifetime, never negative.
func (e *Entry) TTL() time.Duration {
	if ttl := time.Until(e.Expires); ttl > 0 {
		return ttl
	}
	return 0
}
