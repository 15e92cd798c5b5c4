// Package formdom provides a small headless DOM over golang.org/x/net/html:
// fragment parsing, tagged element collection, named form controls and
// value access with browser-like semantics.
package formdom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ElementMarker is the attribute used to tag nodes that need programmatic
// lookup.
const ElementMarker = "data-element"

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// ParseFragment parses markup in a <body> context and returns the element
// nodes at the top level, detached from any parent.
func ParseFragment(markup string) ([]*html.Node, error) {
	return ParseFragmentIn(markup, bodyContext)
}

// ParseFragmentIn parses markup as the content of context (for example a
// <select> when parsing options).
func ParseFragmentIn(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil {
		context = bodyContext
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("formdom: parse fragment: %w", err)
	}
	out := make([]*html.Node, 0, len(nodes))
	for _, node := range nodes {
		if node.Type == html.ElementNode {
			out = append(out, node)
		}
	}
	return out, nil
}

// ParseElement parses markup and returns its first element node.
func ParseElement(markup string) (*html.Node, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.New("formdom: markup contains no element")
	}
	return nodes[0], nil
}

// Render serializes n and its descendants.
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", fmt.Errorf("formdom: render: %w", err)
	}
	return b.String(), nil
}

// Walk visits n and its descendants depth first, in document order. Returning
// false from fn skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		Walk(child, fn)
	}
}

// FindAll returns every element under root (root included) matching match.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the first element under root matching match.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// ByName matches elements carrying name="value".
func ByName(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := Attr(n, "name")
		return ok && v == name
	}
}

// Tagged collects every ElementMarker node under root keyed by marker value.
// The last node wins when markers repeat.
func Tagged(root *html.Node) map[string]*html.Node {
	out := make(map[string]*html.Node)
	Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if key, ok := Attr(n, ElementMarker); ok && key != "" {
			out[key] = n
		}
		return true
	})
	return out
}

// Controls collects the named form controls under form keyed by name. The
// first control wins, matching how a form's named element lookup resolves a
// single field.
func Controls(form *html.Node) map[string]*html.Node {
	out := make(map[string]*html.Node)
	Walk(form, func(n *html.Node) bool {
		if !IsControl(n) {
			return true
		}
		name, ok := Attr(n, "name")
		if !ok || name == "" {
			return true
		}
		if _, exists := out[name]; !exists {
			out[name] = n
		}
		return true
	})
	return out
}

// IsControl reports whether n is a form-associated control element.
func IsControl(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Input, atom.Textarea, atom.Select, atom.Button:
		return true
	default:
		return false
	}
}

// NewElement builds a detached element with attributes given as key/value
// pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceChildren removes every child of n and appends children in order.
func ReplaceChildren(n *html.Node, children ...*html.Node) {
	if n == nil {
		return
	}
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		n.RemoveChild(child)
		child = next
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		Detach(child)
		n.AppendChild(child)
	}
}

// ElementChildren returns the element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			out = append(out, child)
		}
	}
	return out
}

// FirstElementChild returns the first element child of n or nil.
func FirstElementChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			return child
		}
	}
	return nil
}

// TextContent concatenates the text descendants of n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		return true
	})
	return b.String()
}

// SetTextContent replaces the children of n with a single text node.
func SetTextContent(n *html.Node, text string) {
	if n == nil {
		return
	}
	ReplaceChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}
