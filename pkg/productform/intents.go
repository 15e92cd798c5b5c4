package productform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/sortable"
)

// Intent is a user action consumed by Dispatch.
type Intent interface {
	intent()
}

// SetField types Value into the scalar control Name.
type SetField struct {
	Name  string
	Value string
}

// MoveImage drags the image at From to index To.
type MoveImage struct {
	From int
	To   int
}

// RemoveImage clicks the delete handle of the image at Index.
type RemoveImage struct {
	Index int
}

// Upload clicks the upload button.
type Upload struct{}

// Submit submits the form.
type Submit struct{}

func (SetField) intent()    {}
func (MoveImage) intent()   {}
func (RemoveImage) intent() {}
func (Upload) intent()      {}
func (Submit) intent()      {}

// Dispatch routes an intent to the matching handler.
func (c *Controller) Dispatch(ctx context.Context, in Intent) error {
	switch v := in.(type) {
	case SetField:
		return c.SetField(v.Name, v.Value)
	case MoveImage:
		return c.MoveImage(v.From, v.To)
	case RemoveImage:
		return c.RemoveImage(v.Index)
	case Upload:
		return c.Upload(ctx)
	case Submit:
		return c.Submit(ctx)
	case nil:
		return fmt.Errorf("productform: nil intent")
	default:
		return fmt.Errorf("productform: unsupported intent %T", in)
	}
}

// SetField writes a scalar control value.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}
	node, err := c.scalarLocked(name)
	if err != nil {
		return err
	}
	formdom.SetValue(node, value)
	return nil
}

// MoveImage reorders the image list.
func (c *Controller) MoveImage(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}
	if c.list == nil {
		return ErrNoImageList
	}
	return c.list.Move(from, to)
}

// RemoveImage deletes one image from the list.
func (c *Controller) RemoveImage(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}
	if c.list == nil {
		return ErrNoImageList
	}
	return c.list.Remove(index)
}

// ApplyValues copies a posted browser form into the controls. Scalar fields
// present in values are assigned; the url and source lists, which a browser
// posts in item order, replace the image list. Posted image values are
// escaped like uploaded ones, so stored entries read back unchanged.
func (c *Controller) ApplyValues(values url.Values) error {
	urls, sources := values[FieldURL], values[FieldSource]
	if len(urls) != len(sources) {
		return fmt.Errorf("productform: %d image urls but %d sources", len(urls), len(sources))
	}
	entries := make([]product.ImageEntry, len(urls))
	for i := range urls {
		entries[i] = ImageEntryFor(urls[i], sources[i], c.cfg.escaper)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}

	for _, name := range ScalarFields {
		if vs, ok := values[name]; ok && len(vs) > 0 {
			formdom.SetValue(c.elements.Control(name), vs[0])
		}
	}

	items, err := RenderImageItems(c.cfg.renderer, c.localizer, entries...)
	if err != nil {
		return err
	}
	c.mountListLocked(sortable.New(items...))
	return nil
}
