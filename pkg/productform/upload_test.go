package productform_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/productform"
	"github.com/goliatone/go-productform/pkg/testsupport"
)

func TestUploadAppendsEscapedEntry(t *testing.T) {
	h := newHarness(t)
	h.picker.File = testsupport.ImageFile(`cat "1".png`, "png-bytes")
	c := h.rendered(t, "")

	if err := c.Dispatch(context.Background(), productform.Upload{}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	images, err := c.Images()
	if err != nil {
		t.Fatalf("images: %v", err)
	}
	want := []product.ImageEntry{{
		URL:    "https://img.example/cat &#34;1&#34;.png",
		Source: "cat &#34;1&#34;.png",
	}}
	if diff := cmp.Diff(want, images); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
	if c.IsUploading() {
		t.Fatalf("busy marker must be cleared after upload")
	}
	if diff := cmp.Diff([]string{imagehost.Accept}, h.picker.Accepts()); diff != "" {
		t.Fatalf("accept mismatch (-want +got):\n%s", diff)
	}
	if len(h.notifications.Messages()) != 0 {
		t.Fatalf("successful upload must not notify")
	}
}

func TestUploadWithoutFileIsNoop(t *testing.T) {
	h := newHarness(t)
	c := h.rendered(t, "")

	if err := c.Upload(context.Background()); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(h.uploader.Files()) != 0 {
		t.Fatalf("expected no upload request")
	}
	images, _ := c.Images()
	if len(images) != 0 {
		t.Fatalf("expected unchanged list, got %v", images)
	}
}

func TestUploadFailureNotifies(t *testing.T) {
	h := newHarness(t)
	h.picker.File = testsupport.ImageFile("a.png", "x")
	h.uploader.Err = errors.New("quota exceeded")
	c := h.rendered(t, "")

	err := c.Upload(context.Background())
	var uploadErr *productform.UploadError
	if !errors.As(err, &uploadErr) || uploadErr.File != "a.png" {
		t.Fatalf("expected UploadError for a.png, got %v", err)
	}
	msgs := h.notifications.Messages()
	if len(msgs) != 1 || msgs[0].Type != notification.TypeError || msgs[0].Text != "quota exceeded" {
		t.Fatalf("unexpected notifications %#v", msgs)
	}
	if c.IsUploading() {
		t.Fatalf("busy marker must be cleared after failure")
	}
	images, _ := c.Images()
	if len(images) != 0 {
		t.Fatalf("failed upload must not append, got %v", images)
	}
}

func TestUploadInFlightGuard(t *testing.T) {
	h := newHarness(t)
	h.uploader.Block = make(chan struct{})
	c := h.rendered(t, "")

	done := make(chan error, 1)
	go func() {
		_, err := c.AddImage(context.Background(), *testsupport.ImageFile("slow.png", "x"))
		done <- err
	}()

	waitFor(t, c.IsUploading)
	if _, err := c.AddImage(context.Background(), *testsupport.ImageFile("fast.png", "x")); !errors.Is(err, productform.ErrUploadInProgress) {
		t.Fatalf("expected ErrUploadInProgress, got %v", err)
	}
	close(h.uploader.Block)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first upload: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("upload did not return")
	}
	if diff := cmp.Diff([]string{"slow.png"}, h.uploader.Files()); diff != "" {
		t.Fatalf("uploaded files mismatch (-want +got):\n%s", diff)
	}
}

func TestAddImageReturnsEntry(t *testing.T) {
	h := newHarness(t)
	h.backend.SetCategories(sampleTree)
	h.backend.PutProduct(sampleProduct())
	c := h.rendered(t, "42")

	entry, err := c.AddImage(context.Background(), *testsupport.ImageFile("c.png", "x"))
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	want := product.ImageEntry{URL: "https://img.example/c.png", Source: "c.png"}
	if entry != want {
		t.Fatalf("unexpected entry %#v", entry)
	}
	images, _ := c.Images()
	if diff := cmp.Diff([]product.ImageEntry{imageA, imageB, want}, images); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadAfterDestroyIsDetached(t *testing.T) {
	h := newHarness(t)
	h.uploader.Block = make(chan struct{})
	c := h.rendered(t, "")

	done := make(chan error, 1)
	go func() {
		_, err := c.AddImage(context.Background(), *testsupport.ImageFile("late.png", "x"))
		done <- err
	}()

	waitFor(t, c.IsUploading)
	c.Destroy()
	close(h.uploader.Block)

	if err := <-done; !errors.Is(err, productform.ErrDetached) {
		t.Fatalf("expected ErrDetached, got %v", err)
	}
}
