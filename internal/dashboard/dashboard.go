// Package dashboard exposes the read-only operator surface (§12.3):
// liveness, current per-kind counts, and a websocket stream of a sync
// run's lifecycle events. It never writes to the store.
package dashboard

import (
	"context"
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/mandari/oparlsync/internal/cache"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/pubsub"
	"github.com/mandari/oparlsync/internal/store"
)

// Handler wires the dashboard's three routes to their collaborators.
type Handler struct {
	store  store.Store
	pubsub pubsub.PubSub
	log    logger.Logger
}

// New builds a dashboard Handler.
func New(s store.Store, ps pubsub.PubSub, l logger.Logger) *Handler {
	return &Handler{store: s, pubsub: ps, log: l}
}

// TokenAuth gates every dashboard request behind a single shared bearer
// token, compared in constant time. When token is empty the guard is a
// no-op (local development, §12.3).
func TokenAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := c.Get("Authorization")
		const prefix = "Bearer "
		if len(got) <= len(prefix) || got[:len(prefix)] != prefix {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		got = got[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		return c.Next()
	}
}

// Healthz reports liveness only; it never touches the store.
func (h *Handler) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Status reports current per-kind row counts, read from the store's tables
// (the same numbers as the `status` CLI command); it does not read sync runs.
func (h *Handler) Status(c *fiber.Ctx) error {
	counts, err := h.store.KindCounts(c.UserContext())
	if err != nil {
		h.log.Error("status: kind counts failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read counts")
	}
	return c.JSON(fiber.Map{"counts": counts})
}

// RunEvents streams the lifecycle events of one sync run (§6.2's EventSink)
// over a websocket, by subscribing to the same pubsub channel the
// orchestrator publishes on.
func (h *Handler) RunEvents(c *websocket.Conn) {
	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "invalid run id"})
		c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := cache.ChannelSyncRun(runID)
	events := h.pubsub.Subscribe(ctx, channel)

	h.log.Info("dashboard websocket client connected", "run_id", runID)

	for msg := range events {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.log.Info("dashboard websocket client disconnected", "run_id", runID)
			return
		}
	}
}

