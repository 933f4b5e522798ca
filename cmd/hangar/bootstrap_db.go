package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/config"
	pg "github.com/novadock/hangar/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected")
	return db, nil
}
