package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/productform"
)

// DefaultMaxFileSize bounds the files the picker accepts.
const DefaultMaxFileSize = 10 << 20

// Picker asks for a file path; an empty answer picks nothing.
type Picker struct {
	driver  PromptDriver
	message string
	maxSize int64
}

var _ productform.FilePicker = (*Picker)(nil)

// NewPicker returns a picker prompting with message.
func NewPicker(driver PromptDriver, message string) *Picker {
	if strings.TrimSpace(message) == "" {
		message = "Image file (empty to skip)"
	}
	return &Picker{driver: driver, message: message, maxSize: DefaultMaxFileSize}
}

// Pick reads the chosen file into memory so nothing stays open after upload.
func (p *Picker) Pick(ctx context.Context, accept string) (*imagehost.File, error) {
	answer, err := p.driver.Input(ctx, InputConfig{
		Message:   p.message,
		Help:      "accepted: " + accept,
		Validator: p.validate,
	})
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(answer)
	if path == "" {
		return nil, nil
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terminal: read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return &imagehost.File{
		Name:        name,
		ContentType: imagehost.TypeByExtension(name),
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}, nil
}

func (p *Picker) validate(answer string) error {
	path := strings.TrimSpace(answer)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("terminal: %s is a directory", path)
	}
	if info.Size() > p.maxSize {
		return fmt.Errorf("terminal: %s exceeds %d bytes", path, p.maxSize)
	}
	if !imagehost.IsImage(path, "") {
		return errors.New("terminal: " + filepath.Base(path) + " is not an image")
	}
	return nil
}
