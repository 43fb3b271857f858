package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tour-ops-backend/internal/api"
	"tour-ops-backend/internal/db"
	"tour-ops-backend/internal/feed"
	"tour-ops-backend/internal/live"
	"tour-ops-backend/internal/logger"
	"tour-ops-backend/internal/metrics"
	"tour-ops-backend/internal/notification"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the live timeline and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log.Info().Msg("configuration loaded")

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			var webpushOptions *webpush.Options
			if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
				webpushOptions = &webpush.Options{
					VAPIDPublicKey:  cfg.Push.PublicKey,
					VAPIDPrivateKey: cfg.Push.PrivateKey,
					Subscriber:      cfg.Push.Subject,
					TTL:             cfg.Push.TTL,
				}
			} else {
				log.Warn().Msg("VAPID keys are not configured, busy-hour alerts are disabled")
			}

			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			log.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			appStore := store.NewGormStore(gormDB)
			engine := timeline.New(cfg.Timeline.EngineOptions())
			m := metrics.New()

			var syncer live.DaySyncer
			if cfg.Feed.Enabled {
				syncer = feed.NewSyncer(feed.NewClient(cfg.Feed), appStore)
			} else {
				log.Info().Msg("booking feed is disabled, serving stored bookings only")
			}

			var alerts live.AlertDispatcher
			if webpushOptions != nil {
				pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
				pool.Start(ctx)
				alerts = pool
			}

			liveSvc := live.NewService(cfg, engine, appStore, syncer, alerts, m)
			go liveSvc.Run(ctx)

			deps := api.Deps{
				Config:  cfg,
				Store:   appStore,
				Engine:  engine,
				Live:    liveSvc,
				WebPush: webpushOptions,
			}
			if cfg.Metrics.Enabled {
				deps.Metrics = m
			}
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: api.NewRouter(deps),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-stop:
				log.Info().Msg("shutdown signal received, stopping services")
			case err := <-errCh:
				logger.ErrorWithStack(err)
				return err
			}
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server shutdown: %w", err)
			}

			log.Info().Msg("server gracefully stopped")
			return nil
		},
	}
}
