package template

import (
	"io"
)

// TemplateRenderer is the seam between markup builders and a concrete
// template engine. Rendered output is returned and, when writers are given,
// copied to each of them.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
