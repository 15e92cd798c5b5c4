package productform

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/product"
)

// Method returns the save verb: PATCH for an existing product, PUT otherwise.
func (c *Controller) Method() string {
	if c.mode == ModeEdit {
		return http.MethodPatch
	}
	return http.MethodPut
}

// Submit is the form's submit action. Like a browser it first checks the
// native constraints of the controls (required values, numeric inputs) and
// only then saves.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	fieldErr := c.validateLocked()
	c.mu.Unlock()

	if fieldErr != nil {
		err := &SaveError{Method: c.Method(), Err: fieldErr}
		c.notify(message(err), notification.TypeError)
		return err
	}
	return c.Save(ctx)
}

// Save serializes the form and dispatches it. On success it shows a success
// notification and publishes exactly one completion signal; on failure it
// shows an error notification and returns a *SaveError.
func (c *Controller) Save(ctx context.Context) error {
	method := c.Method()

	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.savePhase = SaveCollectFields
	fields := c.collectLocked()
	c.savePhase = SaveSerialize
	rec, err := c.serialize(fields)
	if err != nil {
		c.savePhase = SaveFailed
		c.mu.Unlock()
		return c.saveFailed(method, err)
	}
	c.saving = true
	c.savePhase = SaveDispatch
	gen := c.generation
	c.mu.Unlock()

	var body rawResponse
	err = c.cfg.fetcher.Do(ctx, fetchjson.Request{
		Method: method,
		URL:    c.productsURL,
		Header: http.Header{"Content-Type": {"application/json"}},
		JSON:   rec,
	}, &body)
	if acceptedResponse(err) {
		err = nil
	}

	c.mu.Lock()
	if gen != c.generation || c.state != StateMounted {
		c.mu.Unlock()
		c.cfg.logger.Debug("product save completed after teardown",
			zap.String("method", method),
			zap.String("product_id", c.productID),
			zap.Error(err))
		return ErrDetached
	}
	c.saving = false
	if err != nil {
		c.savePhase = SaveFailed
	} else {
		c.savePhase = SaveSucceeded
	}
	c.mu.Unlock()

	if err != nil {
		return c.saveFailed(method, err)
	}

	topic, key := events.TopicProductSaved, "notify.saved"
	if c.mode == ModeEdit {
		topic, key = events.TopicProductUpdated, "notify.updated"
	}
	text := c.localizer.Text(key)

	id := c.productID
	if id == "" {
		id = body.id()
	}
	c.cfg.logger.Info("product saved",
		zap.String("method", method),
		zap.String("product_id", id))

	c.notify(text, notification.TypeSuccess)
	c.cfg.publisher.Publish(events.Signal{Topic: topic, Message: text, ProductID: id})
	return nil
}

func (c *Controller) saveFailed(method string, err error) error {
	saveErr := &SaveError{Method: method, Err: err}
	c.cfg.logger.Error("product save failed",
		zap.String("method", method),
		zap.String("product_id", c.productID),
		zap.Error(err))
	c.notify(message(saveErr), notification.TypeError)
	return saveErr
}

// Record serializes the current form without dispatching it.
func (c *Controller) Record() (product.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return product.Record{}, err
	}
	return c.serialize(c.collectLocked())
}

// formFields is the raw snapshot read from the controls.
type formFields struct {
	values map[string]string
	images []product.ImageEntry
}

func (c *Controller) collectLocked() formFields {
	values := make(map[string]string, len(ScalarFields))
	for _, name := range ScalarFields {
		values[name] = formdom.Value(c.elements.Control(name))
	}
	return formFields{values: values, images: c.imagesLocked()}
}

// serialize maps the snapshot onto a record: text fields are escaped for
// storage, numbers are parsed, images are taken verbatim in list order.
func (c *Controller) serialize(f formFields) (product.Record, error) {
	esc := c.cfg.escaper
	rec := product.Record{
		ID:          c.productID,
		Title:       esc(f.values[FieldTitle]),
		Description: esc(f.values[FieldDescription]),
		Subcategory: esc(f.values[FieldSubcategory]),
		Images:      f.images,
	}

	var err error
	if rec.Price, err = parseNumber(FieldPrice, f.values[FieldPrice]); err != nil {
		return product.Record{}, err
	}
	if rec.Discount, err = parseNumber(FieldDiscount, f.values[FieldDiscount]); err != nil {
		return product.Record{}, err
	}
	if rec.Quantity, err = parseNumber(FieldQuantity, f.values[FieldQuantity]); err != nil {
		return product.Record{}, err
	}

	status := strings.TrimSpace(f.values[FieldStatus])
	rec.Status, err = strconv.Atoi(status)
	if err != nil {
		return product.Record{}, &FieldError{Field: FieldStatus, Value: status, Reason: "not an integer"}
	}
	return rec, nil
}

func parseNumber(field, raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, &FieldError{Field: field, Reason: "value is required"}
	}
	n, err := strconv.ParseFloat(value, 64)
	if err == nil && (math.IsNaN(n) || math.IsInf(n, 0)) {
		return 0, &FieldError{Field: field, Value: value, Reason: "not a number"}
	}
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, &FieldError{Field: field, Value: value, Reason: "out of range"}
		}
		return 0, &FieldError{Field: field, Value: value, Reason: "not a number"}
	}
	return n, nil
}

// validateLocked applies the required and number constraints of every named
// control in form order and reports the first violation.
func (c *Controller) validateLocked() *FieldError {
	for _, name := range ScalarFields {
		node := c.elements.Control(name)
		if fieldErr := validateControl(name, node); fieldErr != nil {
			return fieldErr
		}
	}
	return nil
}

func validateControl(name string, node *html.Node) *FieldError {
	value := formdom.Value(node)
	if formdom.IsRequired(node) && strings.TrimSpace(value) == "" {
		return &FieldError{Field: name, Reason: "value is required"}
	}
	if formdom.InputType(node) == "number" && strings.TrimSpace(value) != "" {
		if _, err := parseNumber(name, value); err != nil {
			var fieldErr *FieldError
			errors.As(err, &fieldErr)
			return fieldErr
		}
	}
	return nil
}
