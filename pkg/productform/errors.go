package productform

import (
	"errors"
	"fmt"
)

var (
	ErrNotMounted       = errors.New("productform: controller is not mounted")
	ErrAlreadyMounted   = errors.New("productform: controller is already mounted")
	ErrDetached         = errors.New("productform: controller was destroyed while the operation was in flight")
	ErrProductNotFound  = errors.New("productform: product not found")
	ErrSaveInProgress   = errors.New("productform: save already in progress")
	ErrUploadInProgress = errors.New("productform: upload already in progress")
	ErrNoImageList      = errors.New("productform: image list is not mounted")
)

// Resource names used in LoadError.
const (
	ResourceCategories = "categories"
	ResourceProduct    = "product"
)

// LoadError reports which lifecycle fetch failed.
type LoadError struct {
	Resource string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("productform: load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed save. Err is a *FieldError when the form did not
// serialize, otherwise the backend error.
type SaveError struct {
	Method string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("productform: save (%s): %v", e.Method, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// FieldError reports a control whose value breaks its native constraints.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %s: %s (%q)", e.Field, e.Reason, e.Value)
}

// UploadError reports a failed image upload.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("productform: upload: %v", e.Err)
	}
	return fmt.Sprintf("productform: upload %s: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// message picks the text shown in an error notification: the innermost
// field or backend message rather than the wrapped chain.
func message(err error) string {
	var field *FieldError
	if errors.As(err, &field) {
		return field.Error()
	}
	var save *SaveError
	if errors.As(err, &save) && save.Err != nil {
		return save.Err.Error()
	}
	var upload *UploadError
	if errors.As(err, &upload) && upload.Err != nil {
		return upload.Err.Error()
	}
	return err.Error()
}
