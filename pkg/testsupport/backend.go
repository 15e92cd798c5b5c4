package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-productform/pkg/product"
)

// Backend paths served by the fake REST backend.
const (
	CategoriesPath = "/api/rest/categories"
	ProductsPath   = "/api/rest/products"
)

// Request is one call received by the backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Record decodes the request body as a product record.
func (r Request) Record(t *testing.T) product.Record {
	t.Helper()
	var rec product.Record
	if err := json.Unmarshal(r.Body, &rec); err != nil {
		t.Fatalf("decode request body %q: %v", r.Body, err)
	}
	return rec
}

// Fault makes the backend answer a route with a fixed status and body.
type Fault struct {
	Status int
	Body   string
}

// Backend is an in-memory REST backend for categories and products.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	categories product.CategoryTree
	products   map[string]product.Record
	nextID     int
	requests   []Request
	faults     map[string]Fault
	gates      map[string]chan struct{}
}

// NewBackend starts a backend closed automatically when t finishes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		products: make(map[string]product.Record),
		faults:   make(map[string]Fault),
		gates:    make(map[string]chan struct{}),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the backend origin with a trailing slash.
func (b *Backend) URL() string {
	return b.Server.URL + "/"
}

// SetCategories replaces the category tree.
func (b *Backend) SetCategories(tree product.CategoryTree) {
	b.mu.Lock()
	b.categories = tree
	b.mu.Unlock()
}

// PutProduct stores rec under rec.ID.
func (b *Backend) PutProduct(rec product.Record) {
	b.mu.Lock()
	b.products[rec.ID] = rec.Clone()
	b.mu.Unlock()
}

// Product returns the stored record.
func (b *Backend) Product(id string) (product.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.products[id]
	return rec.Clone(), ok
}

// Fail makes "METHOD path" answer with f until cleared with a zero Fault.
func (b *Backend) Fail(method, path string, f Fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	if f.Status == 0 {
		delete(b.faults, key)
		return
	}
	b.faults[key] = f
}

// Hold blocks "METHOD path" until the returned function is called.
func (b *Backend) Hold(method, path string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[method+" "+path] = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, method+" "+path)
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Saves returns the PUT and PATCH requests.
func (b *Backend) Saves() []Request {
	var out []Request
	for _, req := range b.Requests() {
		if req.Method == http.MethodPut || req.Method == http.MethodPatch {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	gate := b.gates[key]
	fault, failing := b.faults[key]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fault.Status)
		_, _ = io.WriteString(w, fault.Body)
		return
	}

	switch {
	case r.URL.Path == CategoriesPath && r.Method == http.MethodGet:
		b.mu.Lock()
		tree := b.categories
		b.mu.Unlock()
		if tree == nil {
			tree = product.CategoryTree{}
		}
		writeJSON(w, http.StatusOK, tree)
	case r.URL.Path == ProductsPath && r.Method == http.MethodGet:
		id := r.URL.Query().Get("id")
		out := []product.Record{}
		if rec, ok := b.Product(id); ok {
			out = append(out, rec)
		}
		writeJSON(w, http.StatusOK, out)
	case r.URL.Path == ProductsPath && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		var rec product.Record
		if err := json.Unmarshal(body, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		b.mu.Lock()
		if rec.ID == "" {
			b.nextID++
			rec.ID = fmt.Sprintf("new-%d", b.nextID)
		} else if _, ok := b.products[rec.ID]; !ok && r.Method == http.MethodPatch {
			b.mu.Unlock()
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product " + rec.ID + " not found"})
			return
		}
		b.products[rec.ID] = rec.Clone()
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, rec)
	default:
		http.Error(w, strings.TrimSpace(http.StatusText(http.StatusNotFound)), http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
