package fetchjson_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-productform/pkg/fetchjson"
)

func TestClientDo_DecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Client"); got != "admin" {
			t.Errorf("expected default header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"1","title":"Tools"}]`)
	}))
	defer server.Close()

	client := fetchjson.New(fetchjson.WithHeader("X-Client", "admin"))

	var out []map[string]string
	if err := client.Get(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("get: %v", err)
	}

	want := []map[string]string{{"id": "1", "title": "Tools"}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestClientDo_EncodesJSONBody(t *testing.T) {
	var gotBody string
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := fetchjson.New()
	err := client.Do(context.Background(), fetchjson.Request{
		Method: http.MethodPatch,
		URL:    server.URL,
		JSON:   map[string]any{"title": "Widget"},
	}, nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotBody != `{"title":"Widget"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if gotType != "application/json" {
		t.Fatalf("unexpected content type %q", gotType)
	}
}

func TestClientDo_ServerErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "error key", status: http.StatusBadRequest, body: `{"error":"title is required"}`, want: "title is required"},
		{name: "message key", status: http.StatusConflict, body: `{"message":"already exists"}`, want: "already exists"},
		{name: "nested data error", status: http.StatusBadRequest, body: `{"data":{"error":"File is over the size limit"},"success":false}`, want: "File is over the size limit"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down", want: "upstream down"},
		{name: "empty body", status: http.StatusNotFound, body: "", want: "Not Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			err := fetchjson.New().Get(context.Background(), server.URL, nil)
			var fetchErr *fetchjson.Error
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *fetchjson.Error, got %T (%v)", err, err)
			}
			if fetchErr.StatusCode() != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, fetchErr.StatusCode())
			}
			if fetchErr.Error() != tc.want {
				t.Fatalf("expected message %q, got %q", tc.want, fetchErr.Error())
			}
		})
	}
}

func TestClientDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := fetchjson.New(fetchjson.WithTimeout(20 * time.Millisecond))
	err := client.Get(context.Background(), server.URL, nil)

	var fetchErr *fetchjson.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *fetchjson.Error, got %T", err)
	}
	if fetchErr.StatusCode() != 0 {
		t.Fatalf("expected zero status for transport failure, got %d", fetchErr.StatusCode())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestClientDo_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))
	defer server.Close()

	var out map[string]any
	err := fetchjson.New().Get(context.Background(), server.URL, &out)
	if err == nil || err.Error() != "invalid JSON response" {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}
