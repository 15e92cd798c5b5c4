package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/formdom"
	"github.com/goliatone/go-productform/pkg/notification"
	"github.com/goliatone/go-productform/pkg/productform"
)

// page is one request's controller plus the notifications it raised.
type page struct {
	controller *productform.Controller
	center     *notification.Center
	savedID    string
}

func (s *Server) newPage(c echo.Context) (*page, error) {
	p := &page{center: s.notifications()}
	options := append([]productform.Option{}, s.controllerOptions...)
	options = append(options,
		productform.WithLocale(s.locale),
		productform.WithTranslator(s.translator),
		productform.WithNotifier(p.center),
		productform.WithPublisher(productform.PublisherFunc(func(sig events.Signal) {
			p.savedID = sig.ProductID
			s.bus.Publish(sig)
		})),
		productform.WithLogger(s.logger),
	)
	if s.uploader != nil {
		options = append(options, productform.WithUploader(s.uploader))
	}

	controller, err := productform.New(strings.TrimSpace(c.Param("id")), options...)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	p.controller = controller

	if _, err := controller.Render(c.Request().Context()); err != nil {
		controller.Destroy()
		return nil, loadStatus(err)
	}
	return p, nil
}

func loadStatus(err error) error {
	if errors.Is(err, productform.ErrProductNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	var loadErr *productform.LoadError
	if errors.As(err, &loadErr) {
		return echo.NewHTTPError(http.StatusBadGateway, loadErr.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (s *Server) showForm(c echo.Context) error {
	p, err := s.newPage(c)
	if err != nil {
		return err
	}
	defer p.controller.Destroy()
	return s.respond(c, http.StatusOK, p)
}

// submitForm applies the posted values and submits them: 200 when saved, 422
// when a control breaks its constraints, 502 when the backend refused.
func (s *Server) submitForm(c echo.Context) error {
	p, err := s.newPage(c)
	if err != nil {
		return err
	}
	defer p.controller.Destroy()

	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form payload")
	}
	if err := p.controller.ApplyValues(values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := http.StatusOK
	if err := p.controller.Submit(c.Request().Context()); err != nil {
		var fieldErr *productform.FieldError
		switch {
		case errors.As(err, &fieldErr):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, productform.ErrSaveInProgress):
			status = http.StatusConflict
		default:
			status = http.StatusBadGateway
		}
		s.logger.Warn("product submit failed",
			zap.String("product_id", p.controller.ProductID()),
			zap.Int("status", status),
			zap.Error(err))
	}
	if p.savedID != "" {
		c.Response().Header().Set("X-Product-ID", p.savedID)
	}
	return s.respond(c, status, p)
}

func (s *Server) respond(c echo.Context, status int, p *page) error {
	elements, err := p.controller.Elements()
	if err != nil {
		return err
	}
	formdom.SetAttr(elements.Form, "method", http.MethodPost)
	formdom.SetAttr(elements.Form, "action", c.Request().URL.Path)

	form, err := p.controller.HTML()
	if err != nil {
		return err
	}
	titleKey := "page.create"
	if p.controller.Mode() == productform.ModeEdit {
		titleKey = "page.edit"
	}
	out, err := s.pages.RenderTemplate("product", map[string]any{
		"locale":        s.locale,
		"title_key":     titleKey,
		"product_id":    p.controller.ProductID(),
		"notifications": p.center.HTML(),
		"form":          form,
	})
	if err != nil {
		return err
	}
	return c.HTML(status, out)
}
