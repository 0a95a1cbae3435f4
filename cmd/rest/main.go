package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bcct-chatbot-be/internal/bootstrap"
	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/server"
	"bcct-chatbot-be/internal/tracer"
	"bcct-chatbot-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.InitTracer(ctx, sysLogger)
	defer shutdownTracer(context.Background())

	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction(), database.DefaultPool)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	defer container.Close()

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return container.AuditService.Consume(gctx)
	})
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				container.RateLimiter.Sweep(10 * time.Minute)
			}
		}
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sysLogger.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
