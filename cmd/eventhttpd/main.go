package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/eventhttp/app/service"
	"github.com/dmitrymomot/eventhttp/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := service.NewAppFromEnv(ctx)
	if err != nil {
		logger.New().Error("failed to initialize eventhttpd", logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		app.Logger().Error("eventhttpd stopped with error", logger.Error(err))
		os.Exit(1)
	}
}
