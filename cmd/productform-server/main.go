package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-productform/internal/admin"
	"github.com/goliatone/go-productform/internal/bootstrap"
)

func main() {
	configFlag := flag.String("config", "", "YAML configuration file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	flag.Parse()

	if err := run(*configFlag, *addrFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	deps, err := bootstrap.Load(configPath)
	if err != nil {
		return err
	}
	logger := deps.Logger
	defer func() { _ = logger.Sync() }()

	if strings.TrimSpace(addr) == "" {
		addr = deps.Config.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deps.Prepare(ctx); err != nil {
		return err
	}

	server, err := admin.New(
		admin.WithControllerOptions(deps.ControllerOptions()...),
		admin.WithUploader(deps.Uploader),
		admin.WithFragmentRenderer(deps.Renderer),
		admin.WithLocale(deps.Config.Form.Locale),
		admin.WithLogger(logger.Named("admin")),
	)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(addr)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("grace", deps.Config.Server.ShutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
