package formdom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Value reads the current value of a control the way a browser reports it:
// inputs and buttons from their value attribute, textareas from their text,
// selects from the selected option (or the first option when none is
// selected).
func Value(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	switch n.DataAtom {
	case atom.Textarea:
		return TextContent(n)
	case atom.Select:
		options := Options(n)
		for _, option := range options {
			if HasAttr(option, "selected") {
				return optionValue(option)
			}
		}
		if len(options) > 0 {
			return optionValue(options[0])
		}
		return ""
	default:
		value, _ := Attr(n, "value")
		return value
	}
}

// SetValue writes a control value. For selects the matching option becomes
// the only selected one; when no option matches, the selection is cleared.
func SetValue(n *html.Node, value string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	switch n.DataAtom {
	case atom.Textarea:
		SetTextContent(n, value)
	case atom.Select:
		matched := false
		for _, option := range Options(n) {
			if !matched && optionValue(option) == value {
				SetAttr(option, "selected", "")
				matched = true
				continue
			}
			RemoveAttr(option, "selected")
		}
	default:
		SetAttr(n, "value", value)
	}
}

// Options returns the option elements of a select, including those nested in
// optgroups.
func Options(sel *html.Node) []*html.Node {
	return FindAll(sel, func(n *html.Node) bool {
		return n != sel && n.DataAtom == atom.Option
	})
}

func optionValue(option *html.Node) string {
	if value, ok := Attr(option, "value"); ok {
		return value
	}
	return TextContent(option)
}

// IsRequired reports whether the control carries the required attribute.
func IsRequired(n *html.Node) bool {
	return HasAttr(n, "required")
}

// InputType returns the lower-case type of an input, defaulting to "text".
func InputType(n *html.Node) string {
	if n == nil || n.DataAtom != atom.Input {
		return ""
	}
	value, ok := Attr(n, "type")
	if !ok || value == "" {
		return "text"
	}
	return value
}
