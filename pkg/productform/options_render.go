package productform

import (
	"html"
	"strings"

	"github.com/goliatone/go-productform/pkg/escape"
	"github.com/goliatone/go-productform/pkg/product"
)

// CategoryLabel is the visible text of a subcategory option: both titles
// escaped and joined by " > ".
func CategoryLabel(category product.Category, sub product.Subcategory, esc escape.Func) string {
	if esc == nil {
		esc = escape.HTML
	}
	return esc(category.Title) + " > " + esc(sub.Title)
}

// RenderCategoryOptions yields one <option> per (category, subcategory) pair
// with the subcategory id as its value. The markup encodes the option text
// and value, so the parsed option reads back exactly CategoryLabel and the id.
func RenderCategoryOptions(tree product.CategoryTree, esc escape.Func) string {
	var b strings.Builder
	for _, category := range tree {
		for _, sub := range category.Subcategories {
			b.WriteString(`<option value="`)
			b.WriteString(html.EscapeString(sub.ID))
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(CategoryLabel(category, sub, esc)))
			b.WriteString("</option>")
		}
	}
	return b.String()
}
