package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"somnia/config"
	"somnia/database"
	"somnia/models"
	"somnia/repository"
	"somnia/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeMailer records reset mails instead of sending them.
type fakeMailer struct {
	to       []string
	resetURL []string
	err      error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.resetURL = append(m.resetURL, resetURL)
	return nil
}

// fakeInterpreter returns a canned interpretation.
type fakeInterpreter struct {
	reply string
	err   error
}

func (i *fakeInterpreter) Interpret(_ context.Context, _ string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return i.reply, nil
}

type testEnv struct {
	server      *Server
	app         *fiber.App
	db          *gorm.DB
	redis       *miniredis.Miniredis
	mailer      *fakeMailer
	interpreter *fakeInterpreter
}

// newTestEnv wires a server over in-memory SQLite and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		AppEnv:          "test",
		SessionTTLHours: 24,
		ResetBaseURL:    "http://localhost:8080/passwordReset",
	}

	mailer := &fakeMailer{}
	interpreter := &fakeInterpreter{reply: "A dream about water often reflects your emotional state."}

	srv := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		userRepo:     repository.NewUserRepository(db),
		favoriteRepo: repository.NewFavoriteRepository(db),
		sessions:     session.NewStore(redisClient, cfg.SessionTTL()),
		mailer:       mailer,
		interpreter:  interpreter,
	}

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testEnv{
		server:      srv,
		app:         app,
		db:          db,
		redis:       mr,
		mailer:      mailer,
		interpreter: interpreter,
	}
}

// doJSON performs a request with an optional JSON body and session cookie.
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", fmt.Sprintf("%s=%s", session.CookieName, cookie))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeBody unmarshals the response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// readBody returns the raw response body.
func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

// sessionCookie extracts the session cookie value from a response, or "".
func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	return ""
}

// register creates a user directly through the endpoint.
func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	resp := e.doJSON(t, "POST", "/api/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

// login authenticates and returns the session cookie value.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.doJSON(t, "POST", "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)
	return cookie
}

// userByUsername loads a user row for assertions.
func (e *testEnv) userByUsername(t *testing.T, username string) *models.User {
	t.Helper()
	var user models.User
	err := e.db.Where("username = ?", username).First(&user).Error
	require.NoError(t, err)
	return &user
}
