package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The full app serves requests and drains cleanly before the server's
// resources are released. This is the only test that builds the app with
// its middleware stack; the Prometheus collectors register against the
// default registry and cannot be registered twice in one binary.
func TestAppServesAndShutsDown(t *testing.T) {
	env := newTestEnv(t)
	app := env.server.NewApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/checksession", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, app.ShutdownWithContext(ctx))
	require.NoError(t, env.server.Shutdown(ctx))
}
