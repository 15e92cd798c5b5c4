package admin

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/render/template"
	"github.com/goliatone/go-productform/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var pageFS embed.FS

// NewPageRenderer builds the engine for the admin pages with the translate
// and current_locale helpers registered.
func NewPageRenderer(t i18n.Translator) (template.TemplateRenderer, error) {
	sub, err := fs.Sub(pageFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("admin: page templates: %w", err)
	}
	return gotemplate.New(
		gotemplate.WithName("productform-admin"),
		gotemplate.WithFS(sub),
		gotemplate.WithTemplateFunc(i18n.TemplateFuncs(t)),
	)
}
