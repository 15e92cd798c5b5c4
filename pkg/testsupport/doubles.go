package testsupport

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/notification"
)

// Notifications records every shown message.
type Notifications struct {
	mu       sync.Mutex
	messages []notification.Message
}

// Show implements notification.Notifier.
func (n *Notifications) Show(msg notification.Message) {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
}

// Messages returns the recorded messages.
func (n *Notifications) Messages() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

// Signals records published completion signals.
type Signals struct {
	mu      sync.Mutex
	signals []events.Signal
}

// Publish implements the controller publisher.
func (s *Signals) Publish(sig events.Signal) {
	s.mu.Lock()
	s.signals = append(s.signals, sig)
	s.mu.Unlock()
}

// All returns the recorded signals.
func (s *Signals) All() []events.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Signal(nil), s.signals...)
}

// Picker returns a fixed file, or nothing when File is nil.
type Picker struct {
	File  *imagehost.File
	Err   error
	mu    sync.Mutex
	calls []string
}

// Pick implements the controller file picker.
func (p *Picker) Pick(_ context.Context, accept string) (*imagehost.File, error) {
	p.mu.Lock()
	p.calls = append(p.calls, accept)
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if p.File == nil {
		return nil, nil
	}
	file := *p.File
	return &file, nil
}

// Accepts returns the accept filters Pick was called with.
func (p *Picker) Accepts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// ImageFile builds an in-memory image file.
func ImageFile(name, content string) *imagehost.File {
	return &imagehost.File{
		Name:        name,
		ContentType: imagehost.TypeByExtension(name),
		Size:        int64(len(content)),
		Reader:      strings.NewReader(content),
	}
}

// Uploader is an image host double returning Link + file name.
type Uploader struct {
	Link  string
	Err   error
	Block chan struct{}

	mu    sync.Mutex
	files []string
}

// Upload implements imagehost.Uploader.
func (u *Uploader) Upload(ctx context.Context, file imagehost.File) (imagehost.Result, error) {
	if file.Reader != nil {
		_, _ = io.Copy(io.Discard, file.Reader)
	}
	u.mu.Lock()
	u.files = append(u.files, file.Name)
	u.mu.Unlock()

	if u.Block != nil {
		select {
		case <-u.Block:
		case <-ctx.Done():
			return imagehost.Result{}, ctx.Err()
		}
	}
	if u.Err != nil {
		return imagehost.Result{}, u.Err
	}
	if u.Link == "" {
		return imagehost.Result{}, errors.New("testsupport: uploader has no link")
	}
	return imagehost.Result{Link: u.Link + file.Name}, nil
}

// Files returns the uploaded file names.
func (u *Uploader) Files() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.files...)
}
