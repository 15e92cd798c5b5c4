package productform

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-productform/pkg/escape"
	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/render/template"
)

const imageItemClass = "products-edit__imagelist-item"

var listContext = &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}

// RenderImageItems builds one standalone list item per entry. Entry values are
// inserted as-is; template autoescaping encodes them, so the hidden url and
// source controls read back the exact entry values.
func RenderImageItems(r template.TemplateRenderer, l i18n.Localizer, entries ...product.ImageEntry) ([]*html.Node, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	if r == nil {
		return nil, fmt.Errorf("productform: render image items: renderer is nil")
	}
	markup, err := r.RenderTemplate(imageItemsTemplate, map[string]any{
		"entries": entries,
		"t":       labels(l),
	})
	if err != nil {
		return nil, fmt.Errorf("productform: render image items: %w", err)
	}

	nodes, err := formdom.ParseFragmentIn(sanitizeItems(markup), listContext)
	if err != nil {
		return nil, fmt.Errorf("productform: render image items: %w", err)
	}
	items := make([]*html.Node, 0, len(nodes))
	for _, node := range nodes {
		if formdom.HasClass(node, imageItemClass) {
			items = append(items, node)
		}
	}
	if len(items) != len(entries) {
		return nil, fmt.Errorf("productform: render image items: expected %d items, got %d", len(entries), len(items))
	}
	return items, nil
}

// ReadImageItem extracts the entry stored in an item's hidden controls.
func ReadImageItem(item *html.Node) product.ImageEntry {
	return product.ImageEntry{
		URL:    formdom.Value(formdom.Find(item, formdom.ByName(FieldURL))),
		Source: formdom.Value(formdom.Find(item, formdom.ByName(FieldSource))),
	}
}

// ImageEntryFor is the entry stored for an uploaded file: the host link and
// the original file name, both escaped.
func ImageEntryFor(link, name string, esc escape.Func) product.ImageEntry {
	if esc == nil {
		esc = escape.HTML
	}
	return product.ImageEntry{URL: esc(link), Source: esc(name)}
}
