package productform

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/render/template"
	"github.com/goliatone/go-productform/pkg/render/template/gotemplate"
)

// Mode selects create or edit behaviour; it is fixed at construction by
// whether a product id was supplied.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

const (
	formTemplate       = "form"
	imageItemsTemplate = "image_items"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded templates so hosts can layer overrides.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

var (
	defaultRendererOnce sync.Once
	defaultRenderer     template.TemplateRenderer
	defaultRendererErr  error
)

// DefaultRenderer returns a shared pongo2 engine over the embedded templates.
func DefaultRenderer() (template.TemplateRenderer, error) {
	defaultRendererOnce.Do(func() {
		defaultRenderer, defaultRendererErr = gotemplate.New(
			gotemplate.WithName("productform"),
			gotemplate.WithFS(TemplatesFS()),
		)
	})
	return defaultRenderer, defaultRendererErr
}

// NewRenderer builds an engine over the embedded templates. Files in dir, when
// set, shadow the embedded ones by name; debug disables the template cache so
// edits in dir show up on the next render.
func NewRenderer(dir string, debug bool) (template.TemplateRenderer, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" && !debug {
		return DefaultRenderer()
	}
	options := []gotemplate.Option{
		gotemplate.WithName("productform"),
		gotemplate.WithFS(TemplatesFS()),
		gotemplate.WithDebug(debug),
	}
	if dir != "" {
		options = append(options, gotemplate.WithBaseDir(dir))
	}
	return gotemplate.New(options...)
}

var labelKeys = []string{
	"form.title.label",
	"form.title.placeholder",
	"form.description.label",
	"form.description.placeholder",
	"form.images.label",
	"form.images.upload",
	"form.subcategory.label",
	"form.price.label",
	"form.price.placeholder",
	"form.discount.label",
	"form.discount.placeholder",
	"form.quantity.label",
	"form.quantity.placeholder",
	"form.status.label",
	"form.status.active",
	"form.status.inactive",
	"form.submit.create",
	"form.submit.edit",
	"form.image.grab",
	"form.image.thumbnail",
	"form.image.delete",
}

// labels resolves every template label. Keys are flattened with underscores
// so templates can address them as attributes.
func labels(l i18n.Localizer) map[string]any {
	out := make(map[string]any, len(labelKeys))
	for key, value := range l.Messages(labelKeys...) {
		out[strings.ReplaceAll(key, ".", "_")] = value
	}
	return out
}

// BuildMarkup renders the empty form skeleton for mode. Every node looked up
// later carries a data-element marker or a unique control name.
func BuildMarkup(r template.TemplateRenderer, mode Mode, l i18n.Localizer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("productform: build markup: renderer is nil")
	}
	out, err := r.RenderTemplate(formTemplate, map[string]any{
		"edit": mode == ModeEdit,
		"t":    labels(l),
	})
	if err != nil {
		return "", fmt.Errorf("productform: build markup: %w", err)
	}
	return out, nil
}
