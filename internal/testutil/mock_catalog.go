// Package testutil provides an in-memory space-objects REST server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

// BasePath is where the mock mounts the API.
const BasePath = "/api"

type failure struct {
	status    int
	remaining int // <0: until cleared
}

// MockCatalog is a json-server style mock of the space-objects resource.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.Mutex
	objects   []catalog.SpaceObject
	nextID    int
	version   int
	failures  map[string]*failure
	headers   map[string]string
	delay     time.Duration
	omitTotal bool

	requestCount      int
	listCount         int
	createCount       int
	deleteCount       int
	conditionalCount  int
	lastRequestHeader http.Header
	lastQuery         map[string]string
}

// NewMockCatalog starts a mock server holding seed.
func NewMockCatalog(seed ...catalog.SpaceObject) *MockCatalog {
	m := &MockCatalog{
		nextID:   1,
		failures: make(map[string]*failure),
		headers:  make(map[string]string),
	}
	for _, obj := range seed {
		m.insertLocked(obj)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(m.track)
	r.Route(BasePath+"/space-objects", func(r chi.Router) {
		r.Get("/", m.list)
		r.Post("/", m.create)
		r.Delete("/{id}", m.remove)
	})

	m.server = httptest.NewServer(r)
	return m
}

// URL returns the API base URL, e.g. http://127.0.0.1:1234/api.
func (m *MockCatalog) URL() string {
	return m.server.URL + BasePath
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Seed adds n generated objects with consecutive ids.
func (m *MockCatalog) Seed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		id := m.nextID
		m.insertLocked(NewObject(strconv.Itoa(id), fmt.Sprintf("Object %d", id)))
	}
}

// Objects returns a copy of the stored objects in insertion order.
func (m *MockCatalog) Objects() []catalog.SpaceObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.SpaceObject(nil), m.objects...)
}

// FailNext makes the next n requests with method answer status. A negative n
// keeps failing until ClearFailures.
func (m *MockCatalog) FailNext(method string, status, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = &failure{status: status, remaining: n}
}

// ClearFailures removes all injected failures.
func (m *MockCatalog) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]*failure)
}

// SetHeader adds a header to every response.
func (m *MockCatalog) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// SetDelay delays every response by d.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// OmitTotalCount stops sending X-Total-Count on list responses.
func (m *MockCatalog) OmitTotalCount(omit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitTotal = omit
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.listCount = 0
	m.createCount = 0
	m.deleteCount = 0
	m.conditionalCount = 0
	m.lastRequestHeader = nil
	m.lastQuery = nil
}

// GetRequestCount returns the number of requests the server received.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// GetListCount returns the number of list requests.
func (m *MockCatalog) GetListCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCount
}

// GetCreateCount returns the number of create requests.
func (m *MockCatalog) GetCreateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCount
}

// GetDeleteCount returns the number of delete requests.
func (m *MockCatalog) GetDeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCount
}

// GetConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockCatalog) GetConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditionalCount
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockCatalog) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequestHeader
}

// LastQuery returns the query of the most recent list request.
func (m *MockCatalog) LastQuery() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// NewObject returns a valid object with the given id and name.
func NewObject(id, name string) catalog.SpaceObject {
	return catalog.SpaceObject{
		ID:            id,
		Name:          name,
		Type:          "Planet",
		Mass:          5.972e24,
		Diameter:      12742,
		Distance:      1,
		IsHabitable:   false,
		DiscoveryYear: 1900,
		Description:   "Generated test object",
	}
}

func (m *MockCatalog) insertLocked(obj catalog.SpaceObject) {
	if obj.ID == "" {
		obj.ID = strconv.Itoa(m.nextID)
	}
	if n, ok := obj.NumericID(); ok && int(n) >= m.nextID {
		m.nextID = int(n) + 1
	}
	m.objects = append(m.objects, obj)
	m.version++
}

// track counts requests and applies injected failures, headers and delay.
func (m *MockCatalog) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requestCount++
		m.lastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" {
			m.conditionalCount++
		}
		switch r.Method {
		case http.MethodGet:
			m.listCount++
		case http.MethodPost:
			m.createCount++
		case http.MethodDelete:
			m.deleteCount++
		}
		for k, v := range m.headers {
			w.Header().Set(k, v)
		}
		delay := m.delay
		status := 0
		if f, ok := m.failures[r.Method]; ok && f.remaining != 0 {
			status = f.status
			if f.remaining > 0 {
				f.remaining--
			}
		}
		m.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockCatalog) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("_limit"))
	page, _ := strconv.Atoi(q.Get("_page"))
	start, err := strconv.Atoi(q.Get("_start"))
	if err != nil && page > 0 && limit > 0 {
		start = (page - 1) * limit
	}

	m.mu.Lock()
	m.lastQuery = map[string]string{
		"_page":  q.Get("_page"),
		"_limit": q.Get("_limit"),
		"_start": q.Get("_start"),
	}
	total := len(m.objects)
	etag := fmt.Sprintf(`"v%d"`, m.version)
	omitTotal := m.omitTotal

	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if limit > 0 && start+limit < total {
		end = start + limit
	}
	items := append([]catalog.SpaceObject{}, m.objects[start:end]...)
	m.mu.Unlock()

	if !omitTotal {
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (m *MockCatalog) create(w http.ResponseWriter, r *http.Request) {
	var draft catalog.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m.mu.Lock()
	obj := draft.WithID(strconv.Itoa(m.nextID))
	m.insertLocked(obj)
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, obj)
}

func (m *MockCatalog) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m.mu.Lock()
	idx := -1
	for i, obj := range m.objects {
		if obj.ID == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		m.objects = append(m.objects[:idx], m.objects[idx+1:]...)
		m.version++
	}
	m.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
