package admin_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-productform/internal/admin"
	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/productform"
	"github.com/goliatone/go-productform/pkg/testsupport"
)

func newServer(t *testing.T, backend *testsupport.Backend, options ...admin.Option) *admin.Server {
	t.Helper()
	base := []admin.Option{
		admin.WithControllerOptions(
			productform.WithBaseURL(backend.URL()),
			productform.WithFetcher(fetchjson.New()),
		),
		admin.WithUploader(&testsupport.Uploader{Link: "https://img.example/"}),
	}
	srv, err := admin.New(append(base, options...)...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func do(t *testing.T, srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validValues() url.Values {
	return url.Values{
		"title":       {"Widget"},
		"description": {"Small & sturdy"},
		"price":       {"10"},
		"discount":    {"0"},
		"quantity":    {"5"},
		"status":      {"1"},
	}
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, testsupport.NewBackend(t))
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestShowCreatePage(t *testing.T) {
	srv := newServer(t, testsupport.NewBackend(t))
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/products/new", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>New product</title>", `method="POST"`, `action="/products/new"`, "Add product"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
}

func TestShowEditPage(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.PutProduct(product.Record{ID: "42", Title: "Claw hammer", Price: 12, Quantity: 1, Status: 1})
	srv := newServer(t, backend, admin.WithLocale("ru"))

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/products/42", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`lang="ru"`, `value="Claw hammer"`, `data-product-id="42"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
}

func TestShowMissingProduct(t *testing.T) {
	srv := newServer(t, testsupport.NewBackend(t))
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/products/404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitCreate(t *testing.T) {
	backend := testsupport.NewBackend(t)
	srv := newServer(t, backend)

	var got []events.Signal
	if _, err := srv.Bus().Subscribe(events.TopicProductSaved, func(sig events.Signal) { got = append(got, sig) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	rec := do(t, srv, postForm("/products/new", validValues()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "notification_success") || !strings.Contains(rec.Body.String(), "Data saved") {
		t.Fatalf("expected success notification in page:\n%s", rec.Body.String())
	}
	if id := rec.Header().Get("X-Product-ID"); id != "new-1" {
		t.Fatalf("unexpected product id header %q", id)
	}

	saves := backend.Saves()
	if len(saves) != 1 || saves[0].Method != http.MethodPut {
		t.Fatalf("expected one PUT, got %#v", saves)
	}
	if stored := saves[0].Record(t); stored.Description != "Small &amp; sturdy" || stored.Price != 10 {
		t.Fatalf("unexpected stored record %#v", stored)
	}
	if len(got) != 1 || got[0].ProductID != "new-1" {
		t.Fatalf("expected one bus signal, got %#v", got)
	}
}

func TestSubmitInvalidForm(t *testing.T) {
	backend := testsupport.NewBackend(t)
	srv := newServer(t, backend)

	values := validValues()
	values.Set("title", "")
	rec := do(t, srv, postForm("/products/new", values))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "notification_error") {
		t.Fatalf("expected error notification in page")
	}
	if len(backend.Saves()) != 0 {
		t.Fatalf("expected no save request")
	}
}

func TestSubmitBackendFailure(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.PutProduct(product.Record{ID: "42", Title: "Claw hammer", Description: "Steel", Price: 12, Quantity: 1, Status: 1})
	backend.Fail(http.MethodPatch, testsupport.ProductsPath, testsupport.Fault{Status: http.StatusInternalServerError, Body: `{"error":"disk full"}`})
	srv := newServer(t, backend)

	values := validValues()
	values["url"] = []string{"https://img.example/a.png"}
	values["source"] = []string{"a.png"}
	rec := do(t, srv, postForm("/products/42", values))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disk full") {
		t.Fatalf("expected backend message in page:\n%s", rec.Body.String())
	}
	saves := backend.Saves()
	if len(saves) != 1 || len(saves[0].Record(t).Images) != 1 {
		t.Fatalf("expected one PATCH carrying the posted image, got %#v", saves)
	}
}

func TestUploadImage(t *testing.T) {
	srv := newServer(t, testsupport.NewBackend(t))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "cat.png")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := do(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fragment := rec.Body.String()
	for _, want := range []string{"products-edit__imagelist-item", `value="https://img.example/cat.png"`, `value="cat.png"`} {
		if !strings.Contains(fragment, want) {
			t.Fatalf("expected %q in fragment:\n%s", want, fragment)
		}
	}
}

func TestUploadImageRequiresFile(t *testing.T) {
	srv := newServer(t, testsupport.NewBackend(t))
	req := postForm("/images", url.Values{"other": {"x"}})
	rec := do(t, srv, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadImageSizeLimits(t *testing.T) {
	const limit = 1024
	tests := []struct {
		name string
		size int
	}{
		{name: "file over limit", size: limit + 1},
		{name: "body over limit", size: limit + 128<<10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &testsupport.Uploader{Link: "https://img.example/"}
			srv := newServer(t, testsupport.NewBackend(t), admin.WithUploader(uploader), admin.WithMaxUploadSize(limit))

			var body bytes.Buffer
			writer := multipart.NewWriter(&body)
			part, err := writer.CreateFormFile("image", "big.png")
			if err != nil {
				t.Fatalf("create part: %v", err)
			}
			_, _ = part.Write(bytes.Repeat([]byte("x"), tt.size))
			_ = writer.Close()

			req := httptest.NewRequest(http.MethodPost, "/images", &body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			rec := do(t, srv, req)

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
			}
			if files := uploader.Files(); len(files) != 0 {
				t.Fatalf("expected nothing uploaded, got %v", files)
			}
		})
	}
}
