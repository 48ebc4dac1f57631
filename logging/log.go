// Package logging provides the zap logger shared by the library packages and
// the command line tools.
package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
)

// NewLogger returns a sugared production logger writing to stderr, or a
// development logger when GENOWINDOW_DEBUG=true. Standard output is left to
// the tools' tabular results.
func NewLogger() *zap.SugaredLogger {
	var config zap.Config
	if debugMode, ok := os.LookupEnv("GENOWINDOW_DEBUG"); ok && debugMode == "true" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger.Named("genowindow").Sugar()
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or a no-op logger so that
// library calls stay quiet unless a caller opts in.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return zap.NewNop().Sugar()
}
