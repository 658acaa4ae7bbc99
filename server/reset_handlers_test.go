package server

import (
	"strings"
	"testing"
	"time"

	"somnia/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetToken runs a reset request and extracts the token from the mailed URL.
func (e *testEnv) resetToken(t *testing.T, username, email string) string {
	t.Helper()
	resp := e.doJSON(t, "POST", "/api/passwordResetRequest", map[string]string{
		"username": username,
		"email":    email,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, e.mailer.resetURL)

	url := e.mailer.resetURL[len(e.mailer.resetURL)-1]
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func TestPasswordResetRequest(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	t.Run("Issues a token and mails the link", func(t *testing.T) {
		token := env.resetToken(t, "alice", "alice@example.com")
		assert.Len(t, token, 64) // 32 random bytes, hex encoded

		require.Len(t, env.mailer.to, 1)
		assert.Equal(t, "alice@example.com", env.mailer.to[0])

		user := env.userByUsername(t, "alice")
		require.NotNil(t, user.ResetToken)
		assert.Equal(t, token, *user.ResetToken)
		require.NotNil(t, user.ResetTokenExpiresAt)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *user.ResetTokenExpiresAt, time.Minute)
	})

	t.Run("New request replaces the pending token", func(t *testing.T) {
		first := env.resetToken(t, "alice", "alice@example.com")
		second := env.resetToken(t, "alice", "alice@example.com")
		require.NotEqual(t, first, second)

		user := env.userByUsername(t, "alice")
		require.NotNil(t, user.ResetToken)
		assert.Equal(t, second, *user.ResetToken)
	})

	t.Run("Unknown account gets the generic reply", func(t *testing.T) {
		mails := len(env.mailer.to)
		resp := env.doJSON(t, "POST", "/api/passwordResetRequest", map[string]string{
			"username": "mallory",
			"email":    "mallory@example.com",
		}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "success", body["status"])
		assert.Len(t, env.mailer.to, mails)
	})

	t.Run("Reveal policy reports missing accounts", func(t *testing.T) {
		env.server.config.RevealAccountExistence = true
		defer func() { env.server.config.RevealAccountExistence = false }()

		resp := env.doJSON(t, "POST", "/api/passwordResetRequest", map[string]string{
			"username": "mallory",
			"email":    "mallory@example.com",
		}, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestPasswordResetRedemption(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	token := env.resetToken(t, "alice", "alice@example.com")

	resp := env.doJSON(t, "POST", "/api/passwordReset/"+token, map[string]string{
		"newPassword": "newpassword456",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Redemption establishes a fresh session.
	assert.NotEmpty(t, sessionCookie(resp))

	// The old password no longer works, the new one does.
	old := env.doJSON(t, "POST", "/api/login", map[string]string{
		"username": "alice", "password": "password123",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, old.StatusCode)
	env.login(t, "alice", "newpassword456")

	t.Run("Token is single-use", func(t *testing.T) {
		again := env.doJSON(t, "POST", "/api/passwordReset/"+token, map[string]string{
			"newPassword": "anotherpass789",
		}, "")
		assert.Equal(t, fiber.StatusBadRequest, again.StatusCode)

		body := decodeBody(t, again)
		assert.Equal(t, "error", body["status"])
	})
}

func TestPasswordResetExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	token := env.resetToken(t, "alice", "alice@example.com")

	// Age the token past its window.
	expired := time.Now().Add(-time.Minute)
	err := env.db.Model(&models.User{}).
		Where("username = ?", "alice").
		Update("reset_token_expires_at", expired).Error
	require.NoError(t, err)

	resp := env.doJSON(t, "POST", "/api/passwordReset/"+token, map[string]string{
		"newPassword": "newpassword456",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// The password is untouched.
	env.login(t, "alice", "password123")
}

func TestPasswordResetUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	resp := env.doJSON(t, "POST", "/api/passwordReset/deadbeef", map[string]string{
		"newPassword": "newpassword456",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid or expired reset token", body["message"])
}
