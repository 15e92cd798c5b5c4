package formdom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces attribute key on n.
func SetAttr(n *html.Node, key, value string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// Classes returns the class tokens of n.
func Classes(n *html.Node) []string {
	value, _ := Attr(n, "class")
	return strings.Fields(value)
}

// HasClass reports whether n carries class token name.
func HasClass(n *html.Node, name string) bool {
	for _, token := range Classes(n) {
		if token == name {
			return true
		}
	}
	return false
}

// AddClass appends class token name when missing.
func AddClass(n *html.Node, name string) {
	if n == nil || name == "" || HasClass(n, name) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(strings.Join(append(Classes(n), name), " ")))
}

// RemoveClass drops class token name.
func RemoveClass(n *html.Node, name string) {
	if n == nil || !HasClass(n, name) {
		return
	}
	tokens := Classes(n)
	kept := tokens[:0]
	for _, token := range tokens {
		if token != name {
			kept = append(kept, token)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}
