package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/emotioncam/internal/api"
	"github.com/kdimtricp/emotioncam/internal/app"
	"github.com/kdimtricp/emotioncam/internal/config"
	"github.com/kdimtricp/emotioncam/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(logger.Fields{"error": err}, "Failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir, AppEnv: cfg.AppEnv})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, "", log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize pipeline")
	}
	defer components.Close()

	router := api.NewRouter(&api.App{
		Engine:   components.Engine,
		Metrics:  components.Metrics,
		Log:      log,
		Shutdown: stop,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logger.Fields{
			"port":      cfg.Port,
			"deviceId":  cfg.DeviceID,
			"blob":      cfg.BlobProvider,
			"transport": cfg.MessagingTransport,
			"photoDir":  cfg.PhotoDir,
		}).Info("Server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
