// Package imagehost uploads product images to an external host and returns
// the public link the product record stores.
package imagehost

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
)

// File is one picked image.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Result describes a hosted image.
type Result struct {
	Link string
	Key  string
}

// Uploader sends a file to an image host.
type Uploader interface {
	Upload(ctx context.Context, file File) (Result, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, file File) (Result, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, file File) (Result, error) {
	return f(ctx, file)
}

var (
	// ErrNoFile is returned when the file carries no content reader.
	ErrNoFile = errors.New("imagehost: file has no content")
	// ErrNotImage is returned for files whose content type is not image/*.
	ErrNotImage = errors.New("imagehost: file is not an image")
)

// Accept is the content type filter used by file pickers.
const Accept = "image/*"

// IsImage reports whether contentType matches Accept. An empty type is
// inferred from the file extension.
func IsImage(name, contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		contentType = TypeByExtension(name)
	}
	return strings.HasPrefix(contentType, "image/")
}

// fallbackTypes covers image extensions missing from some system MIME
// tables.
var fallbackTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".avif": "image/avif",
}

// TypeByExtension returns the image content type for the extension of name,
// or "" when the extension does not denote an image.
func TypeByExtension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if known := mime.TypeByExtension(ext); known != "" {
		if mediaType, _, err := mime.ParseMediaType(known); err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	return fallbackTypes[ext]
}

func validate(file File) (File, error) {
	if file.Reader == nil {
		return file, ErrNoFile
	}
	if strings.TrimSpace(file.ContentType) == "" {
		file.ContentType = TypeByExtension(file.Name)
	}
	if !IsImage(file.Name, file.ContentType) {
		return file, ErrNotImage
	}
	return file, nil
}
