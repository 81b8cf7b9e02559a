package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/spf13/cobra"

	"github.com/mandari/oparlsync/internal/dashboard"
	"github.com/mandari/oparlsync/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only operator dashboard server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ctn, _, err := buildContainer(ctx)
		if err != nil {
			return err
		}

		app := fiber.New(fiber.Config{
			ReadTimeout:  ctn.Config.Server.ReadTimeout,
			WriteTimeout: ctn.Config.Server.WriteTimeout,
		})

		app.Use(logger.Middleware(ctn.Logger))
		app.Use(dashboard.TokenAuth(ctn.Config.Dashboard.Token))

		app.Get("/healthz", ctn.Dashboard.Healthz)
		app.Get("/status", ctn.Dashboard.Status)

		app.Use("/ws/runs/:id", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/runs/:id", websocket.New(ctn.Dashboard.RunEvents))

		addr := fmt.Sprintf(":%d", ctn.Config.Server.Port)
		ctn.Logger.Info("dashboard listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			return syncFailure(err)
		}
		return nil
	},
}
