package dashboard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/dashboard"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/pubsub"
	"github.com/mandari/oparlsync/internal/store"
)

func newTestApp() *fiber.App {
	h := dashboard.New(store.NewFake(), pubsub.NewInMemoryPubSub(), logger.NewNopLogger())
	app := fiber.New()
	app.Use(dashboard.TokenAuth("secret-token"))
	app.Get("/healthz", h.Healthz)
	app.Get("/status", h.Status)
	return app
}

func TestHealthzGatedLikeEveryOtherRouteWhenTokenSet(t *testing.T) {
	app := newTestApp()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusRequiresBearerToken(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenAuthNoopWhenUnset(t *testing.T) {
	h := dashboard.New(store.NewFake(), pubsub.NewInMemoryPubSub(), logger.NewNopLogger())
	app := fiber.New()
	app.Use(dashboard.TokenAuth(""))
	app.Get("/healthz", h.Healthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
