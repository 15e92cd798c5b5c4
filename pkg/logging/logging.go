// Package logging builds the zap logger used by the hosts.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/goliatone/go-productform/pkg/config"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 64
	MaxBackups = 7
	MaxAgeDays = 7
)

// New returns a production or development logger. With FileEnable set, JSON
// entries also go to a rotating file next to the console output.
func New(cfg config.Logger) (*zap.Logger, error) {
	return build(cfg, os.Stdout)
}

func build(cfg config.Logger, console io.Writer) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if !cfg.FileEnable {
		if console != os.Stdout {
			core := zapcore.NewCore(encoder(zapConfig), zapcore.AddSync(console), zapConfig.Level)
			return zap.New(core, zap.AddCaller()), nil
		}
		logger, err := zapConfig.Build(zap.AddCaller())
		if err != nil {
			return nil, fmt.Errorf("logging: build: %w", err)
		}
		return logger, nil
	}

	if cfg.Filename == "" {
		return nil, fmt.Errorf("logging: file output enabled without a filename")
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotating),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(console),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

func encoder(cfg zap.Config) zapcore.Encoder {
	if cfg.Encoding == "json" {
		return zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}
	return zapcore.NewConsoleEncoder(cfg.EncoderConfig)
}
