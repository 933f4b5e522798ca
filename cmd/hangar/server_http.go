package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/audit"
	"github.com/novadock/hangar/internal/config"
	"github.com/novadock/hangar/internal/obs"
	pg "github.com/novadock/hangar/internal/repository/postgres"
	authsvc "github.com/novadock/hangar/internal/services/auth"
	shipsvc "github.com/novadock/hangar/internal/services/ship"
	"github.com/novadock/hangar/internal/token"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB) (*http.Server, func(), error) {
	codec, err := token.NewCodec(cfg.Auth.Secret, nil)
	if err != nil {
		return nil, nil, err
	}

	users := pg.NewUserRepo(db)
	tokens := pg.NewTokenRepo(db)
	ships := pg.NewShipRepo(db)
	tx := pg.NewTransactor(db, logger)

	var pub audit.Publisher = audit.Nop{}
	cleanup := func() {}
	if cfg.Audit.Enable {
		kp := audit.NewKafkaPublisher(cfg.Audit.Brokers, cfg.Audit.Topic, logger)
		pub = audit.NewAsync(kp, logger)
		cleanup = func() { _ = kp.Close() }
	}

	authUC := authsvc.NewUsecase(users, tokens, codec, tx, authsvc.Config{
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	}, logger, pub)
	gate := authsvc.NewGate(users, tokens, codec, logger)

	shipUC := shipsvc.NewCachedService(
		shipsvc.NewUsecase(ships, logger),
		cfg.Cache.ShipEntries,
		cfg.Cache.ShipTTL,
	)

	mux := http.NewServeMux()
	authsvc.NewController(authUC, logger).Register(mux)
	shipsvc.NewController(shipUC, logger).Register(mux)

	handler := gate.Middleware(mux)
	handler = obs.RequestLog(logger)(handler)
	handler = cors(cfg.Server.CORSOrigins)(handler)
	handler = otelhttp.NewHandler(handler, "hangar.http")

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	return srv, cleanup, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}

func serveMetrics(cfg *config.Config, logger *zap.Logger, db *pg.DB) *http.Server {
	return obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	}, logger)
}

func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
