package terminal_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-productform/internal/terminal"
	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/productform"
	"github.com/goliatone/go-productform/pkg/testsupport"
)

// stubDriver answers prompts from queues. An empty input answer keeps the
// prompt default, like pressing enter.
type stubDriver struct {
	inputs    []string
	textAreas []string
	confirms  []bool
	selects   []int
	infos     []string
	messages  []string
	// abortOn makes the input prompt with this message fail like Ctrl+C.
	abortOn string
}

func (d *stubDriver) Input(_ context.Context, cfg terminal.InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.abortOn != "" && cfg.Message == d.abortOn {
		return "", terminal.ErrAborted
	}
	if len(d.inputs) == 0 {
		return "", errors.New("unexpected input prompt: " + cfg.Message)
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if answer == "" {
		answer = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *stubDriver) Confirm(_ context.Context, cfg terminal.ConfirmConfig) (bool, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.confirms) == 0 {
		return false, errors.New("unexpected confirm prompt: " + cfg.Message)
	}
	answer := d.confirms[0]
	d.confirms = d.confirms[1:]
	return answer, nil
}

func (d *stubDriver) Select(_ context.Context, cfg terminal.SelectConfig) (int, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.selects) == 0 {
		return 0, errors.New("unexpected select prompt: " + cfg.Message)
	}
	answer := d.selects[0]
	d.selects = d.selects[1:]
	return answer, nil
}

func (d *stubDriver) TextArea(_ context.Context, cfg terminal.TextAreaConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.textAreas) == 0 {
		return "", errors.New("unexpected text area prompt: " + cfg.Message)
	}
	answer := d.textAreas[0]
	d.textAreas = d.textAreas[1:]
	if answer == "" {
		answer = cfg.Default
	}
	return answer, nil
}

func (d *stubDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("png-bytes"), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func newEditor(t *testing.T, backend *testsupport.Backend, driver *stubDriver, id string, options ...productform.Option) *terminal.Editor {
	t.Helper()
	base := []productform.Option{
		productform.WithBaseURL(backend.URL()),
		productform.WithFetcher(fetchjson.New()),
		productform.WithUploader(&testsupport.Uploader{Link: "https://img.example/"}),
		productform.WithFilePicker(terminal.NewPicker(driver, "")),
		productform.WithNotifier(terminal.Notifier(driver)),
	}
	controller, err := productform.New(id, append(base, options...)...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(controller.Destroy)
	if _, err := controller.Render(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}
	return terminal.NewEditor(driver, controller, i18n.Localizer{Translator: i18n.MustDefault(), Locale: "en"})
}

func TestEditorCreatesProductWithUpload(t *testing.T) {
	backend := testsupport.NewBackend(t)
	path := writeImage(t, "cat.png")
	driver := &stubDriver{
		inputs:    []string{"Widget", "10", "0", "5", path},
		textAreas: []string{"Small"},
		selects:   []int{0},
		confirms:  []bool{true, false, true},
	}
	editor := newEditor(t, backend, driver, "")

	submitted, err := editor.Run(context.Background())
	if err != nil || !submitted {
		t.Fatalf("run: submitted=%v err=%v", submitted, err)
	}

	saves := backend.Saves()
	if len(saves) != 1 || saves[0].Method != http.MethodPut {
		t.Fatalf("expected one PUT, got %#v", saves)
	}
	want := product.Record{
		Title:       "Widget",
		Description: "Small",
		Price:       10,
		Quantity:    5,
		Status:      product.StatusActive,
		Images:      []product.ImageEntry{{URL: "https://img.example/cat.png", Source: "cat.png"}},
	}
	if diff := cmp.Diff(want, saves[0].Record(t)); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"[success] Data saved"}, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorReordersExistingImages(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.SetCategories(product.CategoryTree{{ID: "c1", Title: "Tools", Subcategories: []product.Subcategory{
		{ID: "s1", Title: "Hammers"},
		{ID: "s2", Title: "Saws"},
	}}})
	a := product.ImageEntry{URL: "https://img.example/a.png", Source: "a.png"}
	b := product.ImageEntry{URL: "https://img.example/b.png", Source: "b.png"}
	backend.PutProduct(product.Record{
		ID: "42", Title: "Hammer", Description: "Steel", Subcategory: "s1",
		Price: 12, Quantity: 3, Status: product.StatusActive,
		Images: []product.ImageEntry{a, b},
	})

	driver := &stubDriver{
		inputs:    []string{"", "", "", ""},
		textAreas: []string{""},
		selects:   []int{1, 1, 1, 0},
		confirms:  []bool{false, true, true},
	}
	editor := newEditor(t, backend, driver, "42")

	if _, err := editor.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	saves := backend.Saves()
	if len(saves) != 1 || saves[0].Method != http.MethodPatch {
		t.Fatalf("expected one PATCH, got %#v", saves)
	}
	got := saves[0].Record(t)
	want := product.Record{
		ID: "42", Title: "Hammer", Description: "Steel", Subcategory: "s2",
		Price: 12, Quantity: 3, Status: product.StatusInactive,
		Images: []product.ImageEntry{b, a},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if !containsMessage(driver.messages, "Category") {
		t.Fatalf("expected a category prompt, got %v", driver.messages)
	}
}

func TestEditorDeclinedSubmit(t *testing.T) {
	backend := testsupport.NewBackend(t)
	driver := &stubDriver{
		inputs:    []string{"Widget", "1", "0", "1"},
		textAreas: []string{"x"},
		selects:   []int{0},
		confirms:  []bool{false, false},
	}
	editor := newEditor(t, backend, driver, "")

	submitted, err := editor.Run(context.Background())
	if err != nil || submitted {
		t.Fatalf("expected declined submit, got submitted=%v err=%v", submitted, err)
	}
	if len(backend.Saves()) != 0 {
		t.Fatalf("expected no save")
	}
}

func TestEditorRejectsInvalidNumber(t *testing.T) {
	backend := testsupport.NewBackend(t)
	driver := &stubDriver{
		inputs:    []string{"Widget", "ten"},
		textAreas: []string{"x"},
	}
	editor := newEditor(t, backend, driver, "")

	if _, err := editor.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEditorStopsWhenPickerIsAborted(t *testing.T) {
	backend := testsupport.NewBackend(t)
	driver := &stubDriver{
		inputs:    []string{"Widget", "1", "0", "1"},
		textAreas: []string{"x"},
		selects:   []int{0},
		confirms:  []bool{true},
		abortOn:   "Image file (empty to skip)",
	}
	editor := newEditor(t, backend, driver, "")

	submitted, err := editor.Run(context.Background())
	if !errors.Is(err, terminal.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if submitted {
		t.Fatalf("expected no submit after abort")
	}
	if len(backend.Saves()) != 0 {
		t.Fatalf("expected no save after abort")
	}
}

func TestEditorKeepsOfferingUploadsAfterFailure(t *testing.T) {
	backend := testsupport.NewBackend(t)
	path := writeImage(t, "cat.png")
	driver := &stubDriver{
		inputs:    []string{"Widget", "1", "0", "1", path},
		textAreas: []string{"x"},
		selects:   []int{0},
		confirms:  []bool{true, false, false},
	}
	failing := &testsupport.Uploader{Err: errors.New("quota exceeded")}
	editor := newEditor(t, backend, driver, "", productform.WithUploader(failing))

	submitted, err := editor.Run(context.Background())
	if err != nil || submitted {
		t.Fatalf("expected the session to continue, got submitted=%v err=%v", submitted, err)
	}
	if len(driver.infos) != 1 || !strings.HasPrefix(driver.infos[0], "[error] ") || !strings.Contains(driver.infos[0], "quota exceeded") {
		t.Fatalf("expected one error notification, got %v", driver.infos)
	}
	if got := len(driver.confirms); got != 0 {
		t.Fatalf("expected every confirm to be asked, %d left", got)
	}
}

func TestEditorReorderPromptsAreLocalized(t *testing.T) {
	backend := testsupport.NewBackend(t)
	a := product.ImageEntry{URL: "https://img.example/a.png", Source: "a.png"}
	b := product.ImageEntry{URL: "https://img.example/b.png", Source: "b.png"}
	backend.PutProduct(product.Record{
		ID: "7", Title: "Saw", Description: "Sharp", Price: 5, Quantity: 1,
		Status: product.StatusActive, Images: []product.ImageEntry{a, b},
	})
	driver := &stubDriver{
		inputs:    []string{"", "", "", ""},
		textAreas: []string{""},
		selects:   []int{0, 0, 1},
		confirms:  []bool{false, true, false},
	}
	editor := newEditor(t, backend, driver, "7")

	if _, err := editor.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Reorder photos?", "Move photo", "To position"} {
		if !containsMessage(driver.messages, want) {
			t.Fatalf("expected prompt %q, got %v", want, driver.messages)
		}
	}
}

func containsMessage(messages []string, want string) bool {
	for _, msg := range messages {
		if msg == want {
			return true
		}
	}
	return false
}
