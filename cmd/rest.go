package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/sharebite/sharebite-bot/core/config"
	"github.com/sharebite/sharebite-bot/ui/rest"
	"github.com/sharebite/sharebite-bot/ui/rest/middleware"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the bot webhook over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.Telegram.MaxPhotoSize),
		Network:      "tcp",
		AppName:      "ShareBite Bot",
		ServerHeader: "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	app.Use(helmet.New())
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	// Uploaded media is publicly addressable under /media.
	app.Static("/media", cfg.Paths.Media)

	rest.InitRestWebhook(app, webhookUsecase, cfg.Telegram.WebhookSecret)
	rest.InitRestOps(app, stateCache.Stats, breaker, cfg.App.Version)
	app.Use(rest.NotFound)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiterUsecase.StartCleanup(ctx)
	stateCache.StartSweep(ctx, 5*time.Minute)

	if cfg.Telegram.WebhookUrl != "" {
		registerCtx, registerCancel := context.WithTimeout(ctx, 15*time.Second)
		if messagingUsecase.SetWebhook(registerCtx, cfg.Telegram.WebhookUrl, cfg.Telegram.WebhookSecret) {
			logrus.Infof("[APP] webhook registered at %s", cfg.Telegram.WebhookUrl)
		} else {
			logrus.Warn("[APP] webhook registration failed; inbound events will not arrive until it succeeds")
		}
		registerCancel()
	}

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			logrus.Fatalf("[APP] server stopped: %v", err)
		}
	}()
	logrus.Infof("[APP] listening on port %s", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("[APP] shutting down...")
	cancel()
	if err := app.Shutdown(); err != nil {
		logrus.Warnf("[APP] shutdown error: %v", err)
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}
}
