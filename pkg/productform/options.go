package productform

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/escape"
	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/render/template"
)

const (
	// DefaultCategoriesPath is resolved against the base URL.
	DefaultCategoriesPath = "api/rest/categories"
	// DefaultProductsPath is resolved against the base URL.
	DefaultProductsPath = "api/rest/products"
)

// JSONFetcher performs backend requests. *fetchjson.Client satisfies it.
type JSONFetcher interface {
	Do(ctx context.Context, req fetchjson.Request, out any) error
}

// Publisher receives completion signals. *events.Bus satisfies it.
type Publisher interface {
	Publish(sig events.Signal)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(events.Signal)

// Publish calls f.
func (f PublisherFunc) Publish(sig events.Signal) {
	if f != nil {
		f(sig)
	}
}

// FilePicker prompts for one file matching accept. A nil file with a nil
// error means nothing was chosen.
type FilePicker interface {
	Pick(ctx context.Context, accept string) (*imagehost.File, error)
}

// FilePickerFunc adapts a function to FilePicker.
type FilePickerFunc func(ctx context.Context, accept string) (*imagehost.File, error)

// Pick calls f.
func (f FilePickerFunc) Pick(ctx context.Context, accept string) (*imagehost.File, error) {
	return f(ctx, accept)
}

// Option configures a Controller.
type Option func(*config)

type config struct {
	baseURL        string
	categoriesPath string
	productsPath   string
	locale         string
	duration       time.Duration

	fetcher    JSONFetcher
	uploader   imagehost.Uploader
	picker     FilePicker
	notifier   notification.Notifier
	publisher  Publisher
	translator i18n.Translator
	renderer   template.TemplateRenderer
	escaper    escape.Func
	logger     *zap.Logger
}

// WithBaseURL sets the backend origin the API paths resolve against.
func WithBaseURL(base string) Option {
	return func(cfg *config) {
		cfg.baseURL = strings.TrimSpace(base)
	}
}

// WithCategoriesPath overrides DefaultCategoriesPath.
func WithCategoriesPath(path string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			cfg.categoriesPath = trimmed
		}
	}
}

// WithProductsPath overrides DefaultProductsPath.
func WithProductsPath(path string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			cfg.productsPath = trimmed
		}
	}
}

// WithLocale selects the label and notification language.
func WithLocale(locale string) Option {
	return func(cfg *config) {
		cfg.locale = strings.TrimSpace(locale)
	}
}

// WithNotificationDuration sets how long notifications stay visible.
func WithNotificationDuration(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.duration = d
		}
	}
}

// WithFetcher sets the backend client.
func WithFetcher(fetcher JSONFetcher) Option {
	return func(cfg *config) {
		if fetcher != nil {
			cfg.fetcher = fetcher
		}
	}
}

// WithUploader sets the image host.
func WithUploader(uploader imagehost.Uploader) Option {
	return func(cfg *config) {
		cfg.uploader = uploader
	}
}

// WithFilePicker sets the prompt used by Upload.
func WithFilePicker(picker FilePicker) Option {
	return func(cfg *config) {
		cfg.picker = picker
	}
}

// WithNotifier sets where notifications are shown.
func WithNotifier(notifier notification.Notifier) Option {
	return func(cfg *config) {
		if notifier != nil {
			cfg.notifier = notifier
		}
	}
}

// WithPublisher sets where completion signals go.
func WithPublisher(publisher Publisher) Option {
	return func(cfg *config) {
		if publisher != nil {
			cfg.publisher = publisher
		}
	}
}

// WithTranslator replaces the embedded catalogs.
func WithTranslator(t i18n.Translator) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.translator = t
		}
	}
}

// WithRenderer replaces the embedded templates.
func WithRenderer(r template.TemplateRenderer) Option {
	return func(cfg *config) {
		if r != nil {
			cfg.renderer = r
		}
	}
}

// WithEscaper replaces escape.HTML.
func WithEscaper(fn escape.Func) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.escaper = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func defaultConfig() *config {
	return &config{
		categoriesPath: DefaultCategoriesPath,
		productsPath:   DefaultProductsPath,
		locale:         i18n.DefaultLocale,
		duration:       notification.DefaultDuration,
		notifier:       notification.NotifierFunc(func(notification.Message) {}),
		publisher:      PublisherFunc(func(events.Signal) {}),
		escaper:        escape.HTML,
		logger:         zap.NewNop(),
	}
}
