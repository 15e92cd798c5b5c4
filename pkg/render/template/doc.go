// Package template defines the renderer contract used by the product form
// markup builders and the admin host. The pongo2 implementation lives in the
// gotemplate subpackage.
package template
