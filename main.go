package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/stefjnl/secret-hitler-online-game/internal/config"
	"github.com/stefjnl/secret-hitler-online-game/internal/handlers"
	"github.com/stefjnl/secret-hitler-online-game/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logCfg := zap.NewProductionConfig()
	if cfg.Debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store := session.NewStore(logger, session.Options{
		BotDelayMin:      cfg.BotDelayMin,
		BotDelayMax:      cfg.BotDelayMax,
		BotErrorRate:     cfg.BotErrorRate,
		AvoidEarlyHitler: cfg.AvoidEarlyHitler,
	}, cfg.SessionTTL, cfg.SweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go store.Run(ctx)

	h := &handlers.Context{
		Logger:  logger,
		Store:   store,
		BaseURL: cfg.BaseURL,
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.Routes(),
	}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info("server listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
