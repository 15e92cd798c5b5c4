// Package sortable implements the reorderable list widget: an ordered set of
// pre-built item nodes under a single root that owners mount, enumerate and
// mutate.
package sortable

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-productform/pkg/formdom"
)

const (
	// ListClass marks the list root.
	ListClass = "sortable-list"
	// ItemClass marks every item managed by the list.
	ItemClass = "sortable-list__item"
	// GrabHandle marks the drag handle inside an item.
	GrabHandle = "data-grab-handle"
	// DeleteHandle marks the delete control inside an item.
	DeleteHandle = "data-delete-handle"
)

// List owns a <ul> root whose element children are the items.
type List struct {
	root *html.Node
}

// New builds a list from the provided items, in order. Items are detached
// from any previous parent.
func New(items ...*html.Node) *List {
	l := &List{root: formdom.NewElement("ul", "class", ListClass)}
	for _, item := range items {
		l.Append(item)
	}
	return l
}

// Element returns the root node to mount.
func (l *List) Element() *html.Node {
	return l.root
}

// Container returns the node holding the items. Appending children here is
// equivalent to Append.
func (l *List) Container() *html.Node {
	return l.root
}

// Items returns the current items in display order.
func (l *List) Items() []*html.Node {
	return formdom.ElementChildren(l.root)
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items())
}

// Append adds item at the end of the list.
func (l *List) Append(item *html.Node) {
	if item == nil {
		return
	}
	formdom.Detach(item)
	formdom.AddClass(item, ItemClass)
	l.root.AppendChild(item)
}

// Move relocates the item at from so it ends up at index to.
func (l *List) Move(from, to int) error {
	items := l.Items()
	if from < 0 || from >= len(items) {
		return fmt.Errorf("sortable: move from index %d out of range [0,%d)", from, len(items))
	}
	if to < 0 || to >= len(items) {
		return fmt.Errorf("sortable: move to index %d out of range [0,%d)", to, len(items))
	}
	if from == to {
		return nil
	}

	item := items[from]
	l.root.RemoveChild(item)

	remaining := l.Items()
	if to >= len(remaining) {
		l.root.AppendChild(item)
		return nil
	}
	l.root.InsertBefore(item, remaining[to])
	return nil
}

// Remove deletes the item at index, as a click on its delete handle does.
func (l *List) Remove(index int) error {
	items := l.Items()
	if index < 0 || index >= len(items) {
		return fmt.Errorf("sortable: remove index %d out of range [0,%d)", index, len(items))
	}
	l.root.RemoveChild(items[index])
	return nil
}

// Reorder rearranges the items into the given permutation of indexes.
func (l *List) Reorder(order []int) error {
	items := l.Items()
	if len(order) != len(items) {
		return fmt.Errorf("sortable: reorder expects %d indexes, got %d", len(items), len(order))
	}
	seen := make([]bool, len(items))
	for _, idx := range order {
		if idx < 0 || idx >= len(items) || seen[idx] {
			return fmt.Errorf("sortable: reorder index %d is invalid or repeated", idx)
		}
		seen[idx] = true
	}
	for _, item := range items {
		l.root.RemoveChild(item)
	}
	for _, idx := range order {
		l.root.AppendChild(items[idx])
	}
	return nil
}
