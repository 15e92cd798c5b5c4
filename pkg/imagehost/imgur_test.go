package imagehost_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/imagehost"
)

func TestImgurUploadSendsMultipartWithClientID(t *testing.T) {
	var gotAuth, gotName, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"id":"abc","link":"https://i.example/abc.png"},"success":true,"status":200}`)
	}))
	defer server.Close()

	uploader := imagehost.NewImgur(
		imagehost.WithEndpoint(server.URL),
		imagehost.WithClientID("client-1"),
	)
	result, err := uploader.Upload(context.Background(), imagehost.File{
		Name:   "photo.png",
		Reader: strings.NewReader("PNGDATA"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if result.Link != "https://i.example/abc.png" || result.Key != "abc" {
		t.Fatalf("unexpected result %#v", result)
	}
	if gotAuth != "Client-ID client-1" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotName != "photo.png" || gotBody != "PNGDATA" {
		t.Fatalf("unexpected upload %q %q", gotName, gotBody)
	}
}

func TestImgurUploadSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"data":{"error":"Invalid client_id"},"success":false,"status":403}`)
	}))
	defer server.Close()

	uploader := imagehost.NewImgur(imagehost.WithEndpoint(server.URL))
	_, err := uploader.Upload(context.Background(), imagehost.File{
		Name:   "photo.jpg",
		Reader: strings.NewReader("x"),
	})
	var fetchErr *fetchjson.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetchjson error, got %v", err)
	}
	if fetchErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", fetchErr.Status)
	}
	if !strings.Contains(err.Error(), "Invalid client_id") {
		t.Fatalf("expected server message in %q", err.Error())
	}
}

func TestImgurRejectsNonImages(t *testing.T) {
	uploader := imagehost.NewImgur(imagehost.WithEndpoint("http://127.0.0.1:0"))

	_, err := uploader.Upload(context.Background(), imagehost.File{Name: "notes.txt", Reader: strings.NewReader("x")})
	if !errors.Is(err, imagehost.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	_, err = uploader.Upload(context.Background(), imagehost.File{Name: "a.png"})
	if !errors.Is(err, imagehost.ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
}

func TestIsImageTable(t *testing.T) {
	cases := []struct {
		name, contentType string
		want              bool
	}{
		{"a.png", "", true},
		{"a.JPG", "", true},
		{"a.bin", "image/png", true},
		{"a.txt", "", false},
		{"a.png", "text/plain", false},
	}
	for _, tc := range cases {
		if got := imagehost.IsImage(tc.name, tc.contentType); got != tc.want {
			t.Fatalf("IsImage(%q, %q) = %v, want %v", tc.name, tc.contentType, got, tc.want)
		}
	}
}
