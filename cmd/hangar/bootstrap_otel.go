package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/config"
	"github.com/novadock/hangar/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	ot, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("otel tracing enabled", zap.String("endpoint", cfg.OTEL.OTLPEndpoint))
	}
	return ot.Shutdown, nil
}
