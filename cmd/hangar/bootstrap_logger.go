package main

import (
	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/config"
	"github.com/novadock/hangar/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(*cfg.Log.AsLoggerConfig(cfg.App))
}
