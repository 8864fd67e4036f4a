package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/kdimtricp/emotioncam/internal/app"
	"github.com/kdimtricp/emotioncam/internal/config"
	"github.com/kdimtricp/emotioncam/internal/logger"
	"github.com/kdimtricp/emotioncam/internal/pipeline"
)

func main() {
	image := flag.String("image", "", "Use this image instead of the camera")
	remote := flag.Bool("remote", true, "Upload the photo and publish the event")
	local := flag.Bool("local", false, "Also write the event to <eventId>.json")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(logger.Fields{"error": err}, "Failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir, AppEnv: cfg.AppEnv})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	components, err := app.Build(ctx, cfg, *image, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize pipeline")
	}

	components.Engine.UpdateSettings(pipeline.Settings{RemoteLogging: *remote, LocalLogging: *local})

	res, err := components.Engine.Run(context.WithoutCancel(ctx))
	components.Close()

	if res != nil {
		fmt.Print(res.Report)
		fmt.Fprintln(os.Stderr, res.Status)
	}
	if err != nil {
		os.Exit(1)
	}
}
