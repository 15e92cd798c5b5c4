package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/productform"
)

// Notifier prints notifications through the driver.
func Notifier(driver PromptDriver) notification.Notifier {
	return notification.NotifierFunc(func(msg notification.Message) {
		_ = driver.Info(context.Background(), fmt.Sprintf("[%s] %s", msg.Type, msg.Text))
	})
}

// Editor walks a rendered controller through its controls.
type Editor struct {
	driver     PromptDriver
	controller *productform.Controller
	localizer  i18n.Localizer
}

// NewEditor binds driver to a mounted controller.
func NewEditor(driver PromptDriver, controller *productform.Controller, l i18n.Localizer) *Editor {
	return &Editor{driver: driver, controller: controller, localizer: l}
}

// Run prompts for every field using the current values as defaults, offers
// image uploads and reordering, then submits when confirmed. It reports
// whether the product was submitted.
func (e *Editor) Run(ctx context.Context) (bool, error) {
	if err := e.editText(ctx); err != nil {
		return false, err
	}
	if err := e.editSubcategory(ctx); err != nil {
		return false, err
	}
	for _, name := range []string{productform.FieldPrice, productform.FieldDiscount, productform.FieldQuantity} {
		if err := e.editNumber(ctx, name); err != nil {
			return false, err
		}
	}
	if err := e.editStatus(ctx); err != nil {
		return false, err
	}
	if err := e.editImages(ctx); err != nil {
		return false, err
	}

	submit, err := e.driver.Confirm(ctx, ConfirmConfig{Message: e.submitLabel() + "?", Default: true})
	if err != nil || !submit {
		return false, err
	}
	return true, e.controller.Submit(ctx)
}

func (e *Editor) label(field string) string {
	return e.localizer.Text("form." + field + ".label")
}

func (e *Editor) submitLabel() string {
	if e.controller.Mode() == productform.ModeEdit {
		return e.localizer.Text("form.submit.edit")
	}
	return e.localizer.Text("form.submit.create")
}

func (e *Editor) editText(ctx context.Context) error {
	title, _ := e.controller.Field(productform.FieldTitle)
	answer, err := e.driver.Input(ctx, InputConfig{Message: e.label(productform.FieldTitle), Default: title, Validator: required})
	if err != nil {
		return err
	}
	if err := e.controller.SetField(productform.FieldTitle, answer); err != nil {
		return err
	}

	description, _ := e.controller.Field(productform.FieldDescription)
	answer, err = e.driver.TextArea(ctx, TextAreaConfig{Message: e.label(productform.FieldDescription), Default: description})
	if err != nil {
		return err
	}
	return e.controller.SetField(productform.FieldDescription, answer)
}

func (e *Editor) editSubcategory(ctx context.Context) error {
	elements, err := e.controller.Elements()
	if err != nil {
		return err
	}
	options := formdom.Options(elements.Subcategory)
	if len(options) == 0 {
		return nil
	}
	current, _ := e.controller.Field(productform.FieldSubcategory)

	labels := make([]string, len(options))
	values := make([]string, len(options))
	selected := 0
	for i, option := range options {
		labels[i] = strings.TrimSpace(formdom.TextContent(option))
		values[i], _ = formdom.Attr(option, "value")
		if values[i] == current {
			selected = i
		}
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: e.label(productform.FieldSubcategory), Options: labels, DefaultIndex: selected, PageSize: 12})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return nil
	}
	return e.controller.SetField(productform.FieldSubcategory, values[idx])
}

func (e *Editor) editNumber(ctx context.Context, field string) error {
	current, _ := e.controller.Field(field)
	answer, err := e.driver.Input(ctx, InputConfig{Message: e.label(field), Default: current, Validator: number})
	if err != nil {
		return err
	}
	return e.controller.SetField(field, strings.TrimSpace(answer))
}

func (e *Editor) editStatus(ctx context.Context) error {
	current, _ := e.controller.Field(productform.FieldStatus)
	options := []string{e.localizer.Text("form.status.active"), e.localizer.Text("form.status.inactive")}
	values := []string{"1", "0"}
	selected := 0
	if current == "0" {
		selected = 1
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: e.label(productform.FieldStatus), Options: options, DefaultIndex: selected})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return nil
	}
	return e.controller.SetField(productform.FieldStatus, values[idx])
}

func (e *Editor) editImages(ctx context.Context) error {
	for {
		more, err := e.driver.Confirm(ctx, ConfirmConfig{Message: e.localizer.Text("form.images.upload") + "?"})
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if err := e.controller.Upload(ctx); err != nil && !retryableUpload(err) {
			return err
		}
	}

	images, err := e.controller.Images()
	if err != nil || len(images) < 2 {
		return err
	}
	reorder, err := e.driver.Confirm(ctx, ConfirmConfig{Message: e.localizer.Text("editor.reorder") + "?"})
	if err != nil || !reorder {
		return err
	}

	sources := make([]string, len(images))
	for i, image := range images {
		sources[i] = fmt.Sprintf("%d. %s", i+1, image.Source)
	}
	from, err := e.driver.Select(ctx, SelectConfig{Message: e.localizer.Text("editor.move"), Options: sources})
	if err != nil {
		return err
	}
	positions := make([]string, len(images))
	for i := range positions {
		positions[i] = fmt.Sprintf("%d", i+1)
	}
	to, err := e.driver.Select(ctx, SelectConfig{Message: e.localizer.Text("editor.position"), Options: positions, DefaultIndex: from})
	if err != nil {
		return err
	}
	return e.controller.MoveImage(from, to)
}

// retryableUpload reports whether the editor may offer another upload after
// err. The notifier already showed upload failures; aborted prompts,
// cancelled contexts and a torn down form end the session.
func retryableUpload(err error) bool {
	switch {
	case errors.Is(err, ErrAborted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, productform.ErrNotMounted),
		errors.Is(err, productform.ErrDetached),
		errors.Is(err, productform.ErrUploadInProgress):
		return false
	}
	var uploadErr *productform.UploadError
	return errors.As(err, &uploadErr)
}

func required(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

func number(answer string) error {
	if err := required(answer); err != nil {
		return err
	}
	if _, err := cast.ToFloat64E(strings.TrimSpace(answer)); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}
