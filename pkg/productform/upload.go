package productform

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/product"
)

// Upload asks the file picker for one image and uploads it. Choosing nothing
// is a no-op.
func (c *Controller) Upload(ctx context.Context) error {
	gen, err := c.beginUpload()
	if err != nil {
		return err
	}
	defer c.endUpload(gen)

	if c.cfg.picker == nil {
		return &UploadError{Err: errors.New("no file picker configured")}
	}
	file, err := c.cfg.picker.Pick(ctx, imagehost.Accept)
	if err != nil {
		uploadErr := &UploadError{Err: err}
		c.notify(message(uploadErr), notification.TypeError)
		return uploadErr
	}
	if file == nil {
		return nil
	}
	return c.upload(ctx, *file)
}

// AddImage uploads a file the host already holds, such as a multipart part,
// and appends it to the image list.
func (c *Controller) AddImage(ctx context.Context, file imagehost.File) (product.ImageEntry, error) {
	gen, err := c.beginUpload()
	if err != nil {
		return product.ImageEntry{}, err
	}
	defer c.endUpload(gen)

	if err := c.upload(ctx, file); err != nil {
		return product.ImageEntry{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list == nil || c.list.Len() == 0 {
		return product.ImageEntry{}, ErrNoImageList
	}
	items := c.list.Items()
	return ReadImageItem(items[len(items)-1]), nil
}

func (c *Controller) beginUpload() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return 0, err
	}
	if c.uploading {
		return 0, ErrUploadInProgress
	}
	c.uploading = true
	return c.generation, nil
}

// endUpload clears the in-flight flag unless the form was torn down and
// mounted again meanwhile.
func (c *Controller) endUpload(gen uint64) {
	c.mu.Lock()
	if gen == c.generation {
		c.uploading = false
	}
	c.mu.Unlock()
}

// upload marks the upload button busy, sends file to the image host and
// appends the escaped link and file name as a new list item.
func (c *Controller) upload(ctx context.Context, file imagehost.File) error {
	if c.cfg.uploader == nil {
		return &UploadError{File: file.Name, Err: errors.New("no image host configured")}
	}

	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.list == nil {
		c.mu.Unlock()
		return &UploadError{File: file.Name, Err: ErrNoImageList}
	}
	gen := c.generation
	button := c.elements.UploadImage
	formdom.AddClass(button, busyClass)
	formdom.SetAttr(button, "disabled", "")
	c.mu.Unlock()

	result, err := c.cfg.uploader.Upload(ctx, file)

	c.mu.Lock()
	if gen != c.generation || c.state != StateMounted {
		c.mu.Unlock()
		return ErrDetached
	}
	formdom.RemoveClass(button, busyClass)
	formdom.RemoveAttr(button, "disabled")

	if err != nil {
		c.mu.Unlock()
		uploadErr := &UploadError{File: file.Name, Err: err}
		c.cfg.logger.Error("image upload failed", zap.String("file", file.Name), zap.Error(err))
		c.notify(message(uploadErr), notification.TypeError)
		return uploadErr
	}

	entry := ImageEntryFor(result.Link, file.Name, c.cfg.escaper)
	items, err := RenderImageItems(c.cfg.renderer, c.localizer, entry)
	if err != nil {
		c.mu.Unlock()
		return &UploadError{File: file.Name, Err: err}
	}
	c.list.Append(items[0])
	c.mu.Unlock()

	c.cfg.logger.Info("image added",
		zap.String("file", file.Name),
		zap.String("url", entry.URL))
	return nil
}

// IsUploading reports whether the upload button is busy.
func (c *Controller) IsUploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMounted {
		return false
	}
	return formdom.HasClass(c.elements.UploadImage, busyClass)
}
