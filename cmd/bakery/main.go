package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniBakery/internal/auth"
	"MiniBakery/internal/bakery"
	"MiniBakery/internal/config"
	"MiniBakery/pkg/kit"
)

const service = "bakery"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("bakery stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b := bakery.New(
		bakery.WithName(cfg.BakeryName),
		bakery.WithLogger(log),
		bakery.WithMetrics(bakery.NewMetrics(reg)),
	)

	staff := auth.NewMemStore()
	if cfg.BakerEmail != "" && cfg.BakerPass != "" {
		if _, err := staff.Add(ctx, cfg.BakerEmail, cfg.BakerPass, auth.RoleBaker); err != nil {
			return fmt.Errorf("seed baker account: %w", err)
		}
	} else {
		log.Warn("no baker account configured; price and produce routes are unreachable")
	}

	tokens := auth.NewTokenMaker(cfg.JWTSecret)

	h := bakery.NewHandler(
		&bakery.Server{Bakery: b, Tokens: tokens, Log: log},
		bakery.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			Auth:           &auth.Server{Log: log, Store: staff, JWT: tokens, TokenTTL: cfg.TokenTTL},
			MetricsEnabled: cfg.MetricsOn,
			MetricsToken:   cfg.MetricsAuth,
		},
	)

	log.Info("bakery open", zap.String("name", b.Name()))
	return kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log)
}
