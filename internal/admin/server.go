// Package admin serves the product form over HTTP: it renders the create and
// edit pages, accepts browser submissions and relays image uploads.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/escape"
	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/imagehost"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/productform"
	"github.com/goliatone/go-productform/pkg/render/template"
)

// DefaultMaxUploadSize bounds POST /images bodies.
const DefaultMaxUploadSize = 5 << 20

// Option configures a Server.
type Option func(*Server)

// WithControllerOptions are applied to every controller the server builds;
// they must include a fetcher.
func WithControllerOptions(options ...productform.Option) Option {
	return func(s *Server) {
		s.controllerOptions = append(s.controllerOptions, options...)
	}
}

// WithUploader sets the image host used by POST /images.
func WithUploader(uploader imagehost.Uploader) Option {
	return func(s *Server) {
		s.uploader = uploader
	}
}

// WithBus sets the bus completion signals are published on.
func WithBus(bus *events.Bus) Option {
	return func(s *Server) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithLocale selects the page language.
func WithLocale(locale string) Option {
	return func(s *Server) {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			s.locale = trimmed
		}
	}
}

// WithTranslator replaces the embedded catalogs.
func WithTranslator(t i18n.Translator) Option {
	return func(s *Server) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithFragmentRenderer sets the engine for image list fragments; it should be
// the renderer the controllers use.
func WithFragmentRenderer(r template.TemplateRenderer) Option {
	return func(s *Server) {
		if r != nil {
			s.fragments = r
		}
	}
}

// WithMaxUploadSize overrides DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the admin HTTP host.
type Server struct {
	echo              *echo.Echo
	pages             template.TemplateRenderer
	fragments         template.TemplateRenderer
	controllerOptions []productform.Option
	uploader          imagehost.Uploader
	bus               *events.Bus
	translator        i18n.Translator
	locale            string
	maxUpload         int64
	logger            *zap.Logger
	unsubscribe       []func()
}

// New builds the server and registers its routes.
func New(options ...Option) (*Server, error) {
	s := &Server{
		bus:       events.NewBus(),
		locale:    i18n.DefaultLocale,
		maxUpload: DefaultMaxUploadSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if s.translator == nil {
		catalog, err := i18n.Default()
		if err != nil {
			return nil, fmt.Errorf("admin: catalog: %w", err)
		}
		s.translator = catalog
	}
	pages, err := NewPageRenderer(s.translator)
	if err != nil {
		return nil, err
	}
	s.pages = pages
	if s.fragments == nil {
		fragments, err := productform.DefaultRenderer()
		if err != nil {
			return nil, fmt.Errorf("admin: fragments: %w", err)
		}
		s.fragments = fragments
	}

	for _, topic := range []string{events.TopicProductSaved, events.TopicProductUpdated} {
		unsubscribe, err := s.bus.Subscribe(topic, s.logSignal)
		if err != nil {
			return nil, fmt.Errorf("admin: subscribe %s: %w", topic, err)
		}
		s.unsubscribe = append(s.unsubscribe, unsubscribe)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.echo.GET("/products/new", s.showForm)
	s.echo.POST("/products/new", s.submitForm)
	s.echo.GET("/products/:id", s.showForm)
	s.echo.POST("/products/:id", s.submitForm)
	s.echo.POST("/images", s.uploadImage, middleware.BodyLimit(fmt.Sprintf("%dB", s.maxUpload+multipartOverhead)))
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("admin listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin: listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	return s.echo.Shutdown(ctx)
}

// Bus returns the bus completion signals are published on.
func (s *Server) Bus() *events.Bus { return s.bus }

func (s *Server) logSignal(sig events.Signal) {
	s.logger.Info("product signal",
		zap.String("topic", sig.Topic),
		zap.String("product_id", sig.ProductID),
		zap.String("message", sig.Message))
}

func (s *Server) localizer() i18n.Localizer {
	return i18n.Localizer{Translator: s.translator, Locale: s.locale}
}

var errMissingImage = echo.NewHTTPError(http.StatusBadRequest, "image file is required")

// multipartOverhead is the room left in the POST /images body limit for part
// headers and boundaries around the file itself.
const multipartOverhead = 64 << 10

func (s *Server) uploadImage(c echo.Context) error {
	if s.uploader == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no image host configured")
	}
	header, err := c.FormFile("image")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", s.maxUpload))
		}
		return errMissingImage
	}
	if header.Size > s.maxUpload {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", s.maxUpload))
	}
	src, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open image file")
	}
	defer src.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = imagehost.TypeByExtension(header.Filename)
	}
	file := imagehost.File{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      src,
	}
	result, err := s.uploader.Upload(c.Request().Context(), file)
	switch {
	case errors.Is(err, imagehost.ErrNotImage):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case err != nil:
		s.logger.Error("image upload failed", zap.String("file", file.Name), zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	entry := productform.ImageEntryFor(result.Link, file.Name, escape.HTML)
	items, err := productform.RenderImageItems(s.fragments, s.localizer(), entry)
	if err != nil {
		return err
	}
	fragment, err := formdom.Render(items[0])
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, fragment)
}

// notifications collects what one request showed.
func (s *Server) notifications() *notification.Center {
	return notification.NewCenter(notification.WithLogger(s.logger))
}
