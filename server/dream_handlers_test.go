package server

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretDream(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Missing dream text", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/interpret-dream", map[string]string{}, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, false, body["success"])
	})

	t.Run("Successful interpretation", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/interpret-dream", map[string]string{
			"dream": "I was swimming in a calm sea.",
		}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, env.interpreter.reply, body["interpretation"])
		assert.NotNil(t, body["interactionId"])
	})

	t.Run("Upstream failure", func(t *testing.T) {
		env.interpreter.err = errors.New("upstream unavailable")
		defer func() { env.interpreter.err = nil }()

		resp := env.doJSON(t, "POST", "/api/interpret-dream", map[string]string{
			"dream": "I was falling.",
		}, "")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, false, body["success"])
		// The upstream error detail stays server-side.
		assert.Equal(t, "Failed to interpret the dream", body["message"])
	})
}
