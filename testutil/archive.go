package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockArchiveServer mocks the Internet Archive metadata and S3 upload APIs.
// Handlers are keyed by exact path; a key ending in "/" matches by prefix
// (used for S3 bucket paths like /{identifier}/{filename}).
type MockArchiveServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []string // "METHOD path" in arrival order
}

// NewMockArchiveServer creates a new mock archive API server.
func NewMockArchiveServer(t *testing.T) *MockArchiveServer {
	t.Helper()
	m := &MockArchiveServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Method+" "+r.URL.Path)
		m.mu.Unlock()
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		for key, handler := range m.Handlers {
			if strings.HasSuffix(key, "/") && strings.HasPrefix(r.URL.Path, key) {
				handler(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Requests returns the "METHOD path" log of everything received so far.
func (m *MockArchiveServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// MockItem registers a metadata read for identifier. A nil metadata map
// mimics the API's empty-object answer for unknown identifiers.
func (m *MockArchiveServer) MockItem(identifier string, metadata map[string]any) {
	m.Handlers["/metadata/"+identifier] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{}
		if metadata != nil {
			body["metadata"] = metadata
		}
		_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
	}
}

// MockUpload registers S3 PUT handling for an identifier's bucket answering
// with status. Returns a function reporting how many PUTs arrived.
func (m *MockArchiveServer) MockUpload(identifier string, status int) func() int {
	var mu sync.Mutex
	puts := 0
	m.Handlers["/"+identifier+"/"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		puts++
		mu.Unlock()
		w.WriteHeader(status)
	}
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return puts
	}
}
