// Package bootstrap turns a loaded configuration into the dependencies the
// hosts share: logger, backend client, image host and controller options.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/config"
	"github.com/goliatone/go-productform/pkg/fetchjson"
	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/logging"
	"github.com/goliatone/go-productform/pkg/productform"
	"github.com/goliatone/go-productform/pkg/render/template"
)

// Deps holds the shared dependencies.
type Deps struct {
	Config   config.Config
	Logger   *zap.Logger
	Fetcher  *fetchjson.Client
	Uploader imagehost.Uploader
	Renderer template.TemplateRenderer
}

// Load reads the configuration at path, validates it and builds Deps.
func Load(path string) (*Deps, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// New builds Deps from an already validated configuration.
func New(cfg config.Config, logger *zap.Logger) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fetcher := fetchjson.New(
		fetchjson.WithTimeout(cfg.Backend.Timeout),
		fetchjson.WithLogger(logger.Named("backend")),
	)
	uploader, err := NewUploader(cfg.Images, logger.Named("images"))
	if err != nil {
		return nil, err
	}
	renderer, err := productform.NewRenderer(cfg.Form.TemplatesDir, cfg.Form.DebugTemplates)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: templates: %w", err)
	}
	return &Deps{Config: cfg, Logger: logger, Fetcher: fetcher, Uploader: uploader, Renderer: renderer}, nil
}

// NewUploader selects the image host named by cfg.Provider.
func NewUploader(cfg config.Images, logger *zap.Logger) (imagehost.Uploader, error) {
	switch cfg.Provider {
	case config.ProviderImgur:
		return imagehost.NewImgur(
			imagehost.WithEndpoint(cfg.Imgur.Endpoint),
			imagehost.WithClientID(cfg.Imgur.ClientID),
			imagehost.WithClient(fetchjson.New(fetchjson.WithLogger(logger))),
			imagehost.WithImgurLogger(logger),
		), nil
	case config.ProviderMinio:
		client, err := imagehost.NewMinioClient(imagehost.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return imagehost.NewMinio(client, cfg.Minio.Bucket,
			imagehost.WithPublicBaseURL(cfg.Minio.PublicBaseURL),
			imagehost.WithPresignExpiry(cfg.Minio.PresignExpiry),
			imagehost.WithKeyPrefix("products"),
			imagehost.WithMinioLogger(logger),
		)
	default:
		return nil, fmt.Errorf("bootstrap: unknown image provider %q", cfg.Provider)
	}
}

// Prepare runs start-up checks that need the network, such as creating the
// MinIO bucket.
func (d *Deps) Prepare(ctx context.Context) error {
	if m, ok := d.Uploader.(*imagehost.Minio); ok {
		if err := m.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

// ControllerOptions are the options every product form controller needs.
func (d *Deps) ControllerOptions() []productform.Option {
	return []productform.Option{
		productform.WithBaseURL(d.Config.Backend.BaseURL),
		productform.WithCategoriesPath(d.Config.Backend.CategoriesPath),
		productform.WithProductsPath(d.Config.Backend.ProductsPath),
		productform.WithLocale(d.Config.Form.Locale),
		productform.WithNotificationDuration(d.Config.Form.NotificationDuration),
		productform.WithFetcher(d.Fetcher),
		productform.WithUploader(d.Uploader),
		productform.WithRenderer(d.Renderer),
		productform.WithLogger(d.Logger.Named("productform")),
	}
}
