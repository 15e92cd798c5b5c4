package productform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/sortable"
)

// Render builds the form, loads categories and (in edit mode) the product
// concurrently, then populates the controls and mounts the image list. When a
// fetch fails the skeleton stays mounted but unpopulated and a *LoadError is
// returned. A controller destroyed while the fetches were in flight returns
// ErrDetached without touching state.
func (c *Controller) Render(ctx context.Context) (*html.Node, error) {
	gen, err := c.mount()
	if err != nil {
		return nil, err
	}

	var (
		tree    product.CategoryTree
		records []product.Record
	)
	g, gctx := errgroup.WithContext(ctx)

	c.mu.Lock()
	c.enterLocked(PhaseCategoriesRequested)
	g.Go(func() error {
		if err := c.get(gctx, c.categoriesURL, &tree); err != nil {
			return &LoadError{Resource: ResourceCategories, Err: err}
		}
		return nil
	})
	if c.mode == ModeEdit {
		c.enterLocked(PhaseProductRequested)
		g.Go(func() error {
			productURL := c.productsURL + "?" + url.Values{"id": {c.productID}}.Encode()
			if err := c.get(gctx, productURL, &records); err != nil {
				return &LoadError{Resource: ResourceProduct, Err: err}
			}
			if len(records) == 0 {
				return &LoadError{Resource: ResourceProduct, Err: ErrProductNotFound}
			}
			return nil
		})
	}
	c.mu.Unlock()

	err = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateMounted {
		return nil, ErrDetached
	}
	if err != nil {
		c.cfg.logger.Error("productform load failed",
			zap.String("product_id", c.productID),
			zap.Error(err))
		return nil, err
	}

	if c.mode == ModeEdit {
		c.enterLocked(PhaseBothResolved)
	}
	if err := c.applyCategoriesLocked(tree); err != nil {
		return nil, err
	}
	if c.mode == ModeCreate {
		c.mountListLocked(sortable.New())
		c.enterLocked(PhaseCategoriesApplied)
		return c.elements.Root, nil
	}

	if err := c.populateLocked(records[0]); err != nil {
		return nil, err
	}
	c.enterLocked(PhaseFieldsPopulated)
	c.enterLocked(PhaseImagesListMounted)
	return c.elements.Root, nil
}

// mount builds the skeleton and the element table, returning the generation
// the load belongs to.
func (c *Controller) mount() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateMounted {
		return 0, ErrAlreadyMounted
	}
	c.phases = []Phase{PhaseInitial}
	c.savePhase = SaveIdle
	c.saving = false
	c.uploading = false

	markup, err := BuildMarkup(c.cfg.renderer, c.mode, c.localizer)
	if err != nil {
		return 0, err
	}
	root, err := formdom.ParseElement(markup)
	if err != nil {
		return 0, fmt.Errorf("productform: parse markup: %w", err)
	}
	elements, err := collectElements(root)
	if err != nil {
		return 0, err
	}
	c.elements = elements
	c.list = nil
	c.state = StateMounted
	c.enterLocked(PhaseMarkupBuilt)

	// Listeners are the controller methods and Dispatch; nothing to attach in
	// a headless tree, but the phase keeps the lifecycle observable.
	c.enterLocked(PhaseListenersBound)
	return c.generation, nil
}

func (c *Controller) get(ctx context.Context, target string, out any) error {
	return c.cfg.fetcher.Do(ctx, fetchjson.Request{Method: http.MethodGet, URL: target}, out)
}

func (c *Controller) applyCategoriesLocked(tree product.CategoryTree) error {
	sel := c.elements.Subcategory
	options, err := formdom.ParseFragmentIn(RenderCategoryOptions(tree, c.cfg.escaper), sel)
	if err != nil {
		return fmt.Errorf("productform: apply categories: %w", err)
	}
	formdom.ReplaceChildren(sel, options...)
	return nil
}

func (c *Controller) mountListLocked(list *sortable.List) {
	if c.list != nil {
		formdom.Detach(c.list.Element())
	}
	c.list = list
	formdom.ReplaceChildren(c.elements.ImageListContainer, list.Element())
}

// populateLocked mounts the record's images, then assigns the scalar fields.
func (c *Controller) populateLocked(rec product.Record) error {
	items, err := RenderImageItems(c.cfg.renderer, c.localizer, rec.Images...)
	if err != nil {
		return err
	}
	c.mountListLocked(sortable.New(items...))

	values := map[string]string{
		FieldTitle:       rec.Title,
		FieldDescription: rec.Description,
		FieldSubcategory: rec.Subcategory,
		FieldPrice:       formatNumber(rec.Price),
		FieldDiscount:    formatNumber(rec.Discount),
		FieldQuantity:    formatNumber(rec.Quantity),
		FieldStatus:      strconv.Itoa(rec.Status),
	}
	for _, name := range ScalarFields {
		formdom.SetValue(c.elements.Control(name), values[name])
	}
	return nil
}

// formatNumber renders f with the shortest representation that parses back
// to the same value, so 10 shows as "10" rather than "10.0".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
