package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/goliatone/go-productform/internal/bootstrap"
	"github.com/goliatone/go-productform/internal/terminal"
	"github.com/goliatone/go-productform/pkg/events"
	"github.com/goliatone/go-productform/pkg/i18n"
	"github.com/goliatone/go-productform/pkg/productform"
)

func main() {
	configFlag := flag.String("config", "", "YAML configuration file")
	idFlag := flag.String("id", "", "product id to edit (empty creates a product)")
	flag.Parse()

	if err := run(*configFlag, *idFlag); err != nil {
		if errors.Is(err, terminal.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, id string) error {
	deps, err := bootstrap.Load(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := deps.Prepare(ctx); err != nil {
		return err
	}

	driver := terminal.NewSurveyDriver()
	l := i18n.Localizer{Translator: i18n.MustDefault(), Locale: deps.Config.Form.Locale}

	options := append(deps.ControllerOptions(),
		productform.WithFilePicker(terminal.NewPicker(driver, l.Text("editor.pick"))),
		productform.WithNotifier(terminal.Notifier(driver)),
		productform.WithPublisher(productform.PublisherFunc(func(sig events.Signal) {
			_ = driver.Info(ctx, fmt.Sprintf("%s: %s", sig.Topic, sig.ProductID))
		})),
	)
	controller, err := productform.New(id, options...)
	if err != nil {
		return err
	}
	defer controller.Destroy()

	if _, err := controller.Render(ctx); err != nil {
		return err
	}
	_, err = terminal.NewEditor(driver, controller, l).Run(ctx)
	return err
}
