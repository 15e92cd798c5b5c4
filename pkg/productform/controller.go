// Package productform implements the product form controller: it renders the
// form skeleton as a headless node tree, loads categories and the edited
// product concurrently, keeps the controls and the reorderable image list in
// sync with a product.Record, and drives the save and image upload flows.
package productform

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/product"
	"github.com/goliatone/go-productform/pkg/sortable"
)

// State is the mount lifecycle.
type State int

const (
	StateUnmounted State = iota
	StateMounted
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unmounted"
	}
}

// Phase names a step of the load lifecycle.
type Phase string

const (
	PhaseInitial             Phase = "initial"
	PhaseMarkupBuilt         Phase = "markup-built"
	PhaseListenersBound      Phase = "listeners-bound"
	PhaseCategoriesRequested Phase = "categories-requested"
	PhaseProductRequested    Phase = "product-requested"
	PhaseCategoriesApplied   Phase = "categories-applied"
	PhaseBothResolved        Phase = "both-resolved"
	PhaseFieldsPopulated     Phase = "fields-populated"
	PhaseImagesListMounted   Phase = "images-list-mounted"
)

// SavePhase names a step of the save lifecycle.
type SavePhase string

const (
	SaveIdle          SavePhase = "idle"
	SaveCollectFields SavePhase = "collect-fields"
	SaveSerialize     SavePhase = "serialize"
	SaveDispatch      SavePhase = "dispatch"
	SaveSucceeded     SavePhase = "on-success"
	SaveFailed        SavePhase = "on-failure"
)

const busyClass = "is-loading"

// Controller owns one product form. All methods are safe for concurrent use;
// the internal lock is released across network calls and prompts.
type Controller struct {
	cfg       *config
	productID string
	mode      Mode
	localizer i18n.Localizer

	categoriesURL string
	productsURL   string

	mu         sync.Mutex
	state      State
	generation uint64
	phases     []Phase
	savePhase  SavePhase
	saving     bool
	uploading  bool

	elements *Elements
	list     *sortable.List
}

// New builds a controller for productID; an empty id selects create mode.
func New(productID string, options ...Option) (*Controller, error) {
	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.fetcher == nil {
		return nil, fmt.Errorf("productform: a JSON fetcher is required")
	}
	if cfg.renderer == nil {
		r, err := DefaultRenderer()
		if err != nil {
			return nil, fmt.Errorf("productform: default renderer: %w", err)
		}
		cfg.renderer = r
	}
	if cfg.translator == nil {
		catalog, err := i18n.Default()
		if err != nil {
			return nil, fmt.Errorf("productform: default catalog: %w", err)
		}
		cfg.translator = catalog
	}

	categoriesURL, err := resolve(cfg.baseURL, cfg.categoriesPath, url.Values{
		"_sort": {"weight"},
		"_refs": {"subcategory"},
	})
	if err != nil {
		return nil, err
	}
	productsURL, err := resolve(cfg.baseURL, cfg.productsPath, nil)
	if err != nil {
		return nil, err
	}

	productID = strings.TrimSpace(productID)
	mode := ModeCreate
	if productID != "" {
		mode = ModeEdit
	}

	return &Controller{
		cfg:           cfg,
		productID:     productID,
		mode:          mode,
		localizer:     i18n.Localizer{Translator: cfg.translator, Locale: cfg.locale},
		categoriesURL: categoriesURL,
		productsURL:   productsURL,
		phases:        []Phase{PhaseInitial},
		savePhase:     SaveIdle,
	}, nil
}

// resolve joins path onto base the way a relative URL resolves against a
// document origin.
func resolve(base, path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("productform: invalid path %q: %w", path, err)
	}
	target := ref
	if base != "" {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("productform: invalid base url %q: %w", base, err)
		}
		target = baseURL.ResolveReference(ref)
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

// ProductID returns the edited id, empty in create mode.
func (c *Controller) ProductID() string { return c.productID }

// Mode reports create or edit.
func (c *Controller) Mode() Mode { return c.mode }

// State reports the mount state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Phase returns the latest load phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phases[len(c.phases)-1]
}

// Phases returns every load phase reached since the last Render.
func (c *Controller) Phases() []Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Phase(nil), c.phases...)
}

// SavePhase returns the state of the latest save.
func (c *Controller) SavePhase() SavePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.savePhase
}

// Ready reports whether the load lifecycle reached its terminal phase.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

func (c *Controller) readyLocked() bool {
	if c.state != StateMounted {
		return false
	}
	last := c.phases[len(c.phases)-1]
	if c.mode == ModeEdit {
		return last == PhaseImagesListMounted
	}
	return last == PhaseCategoriesApplied
}

func (c *Controller) enterLocked(phase Phase) {
	c.phases = append(c.phases, phase)
	c.cfg.logger.Debug("productform phase",
		zap.String("mode", c.mode.String()),
		zap.String("product_id", c.productID),
		zap.String("phase", string(phase)))
}

// Element returns the form root, or nil when not mounted.
func (c *Controller) Element() *html.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return nil
	}
	return c.elements.Root
}

// Elements returns the lookup table built at render.
func (c *Controller) Elements() (*Elements, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return nil, ErrNotMounted
	}
	return c.elements, nil
}

// HTML renders the current tree.
func (c *Controller) HTML() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return "", ErrNotMounted
	}
	return formdom.Render(c.elements.Root)
}

// Field returns the current value of a scalar control.
func (c *Controller) Field(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return "", ErrNotMounted
	}
	node, err := c.scalarLocked(name)
	if err != nil {
		return "", err
	}
	return formdom.Value(node), nil
}

// Images returns the entries of the mounted list in display order.
func (c *Controller) Images() ([]product.ImageEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return nil, ErrNotMounted
	}
	return c.imagesLocked(), nil
}

func (c *Controller) imagesLocked() []product.ImageEntry {
	items := formdom.FindAll(c.elements.ImageListContainer, func(n *html.Node) bool {
		return formdom.HasClass(n, imageItemClass)
	})
	out := make([]product.ImageEntry, 0, len(items))
	for _, item := range items {
		out = append(out, ReadImageItem(item))
	}
	return out
}

func (c *Controller) scalarLocked(name string) (*html.Node, error) {
	for _, field := range ScalarFields {
		if field == name {
			return c.elements.Control(name), nil
		}
	}
	return nil, fmt.Errorf("productform: unknown field %q", name)
}

// Remove detaches the form root from its parent.
func (c *Controller) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.elements != nil {
		formdom.Detach(c.elements.Root)
	}
}

// Destroy removes the form and releases the tree, the element table and the
// image list. Operations in flight observe the change and leave state alone.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.elements != nil {
		formdom.Detach(c.elements.Root)
	}
	c.elements = nil
	c.list = nil
	c.state = StateDestroyed
	c.generation++
	c.cfg.logger.Debug("productform destroyed", zap.String("product_id", c.productID))
}

// guardLocked returns ErrNotMounted unless the controller is mounted.
func (c *Controller) guardLocked() error {
	if c.state != StateMounted || c.elements == nil {
		return ErrNotMounted
	}
	return nil
}

func (c *Controller) notify(text string, kind notification.Type) {
	c.cfg.notifier.Show(notification.New(text, notification.Options{
		Duration: c.cfg.duration,
		Type:     kind,
	}))
}
