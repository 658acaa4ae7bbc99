// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"somnia/ai"
	"somnia/cache"
	"somnia/config"
	"somnia/database"
	"somnia/mail"
	"somnia/middleware"
	"somnia/models"
	"somnia/repository"
	"somnia/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	userRepo     repository.UserRepository
	favoriteRepo repository.FavoriteRepository
	sessions     *session.Store
	mailer       mail.Sender
	interpreter  ai.Interpreter
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.New(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	mailer, err := mail.NewSMTPMailer(cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		userRepo:     repository.NewUserRepository(db),
		favoriteRepo: repository.NewFavoriteRepository(db),
		sessions:     session.NewStore(redisClient, cfg.SessionTTL()),
		mailer:       mailer,
		interpreter:  ai.NewOpenAIInterpreter(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware
	app.Use(middleware.StructuredLogger())

	// Prometheus metrics
	prom := fiberprometheus.New("somnia")
	prom.RegisterAt(app, "/api/metrics")
	app.Use(prom.Middleware)

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "Too many requests, please try again later.",
			})
		},
	}))

	// CORS must allow credentials for the session cookie to travel
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8080,http://localhost:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health check
	api.Get("/", s.HealthCheck)

	// Public auth routes
	api.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	api.Get("/checksession", s.CheckSession)
	api.Post("/logout", s.Logout)

	// Password reset flow
	api.Post("/passwordResetRequest", middleware.RateLimit(s.redis, 3, 10*time.Minute, "password_reset"), s.PasswordResetRequest)
	api.Post("/passwordReset/:token", s.PasswordReset)

	// Dream interpretation proxy
	api.Post("/interpret-dream", middleware.RateLimit(s.redis, 10, time.Minute, "interpret"), s.InterpretDream)

	// Protected routes
	protected := api.Group("", s.SessionRequired())

	protected.Get("/getUserData", s.GetUserData)
	protected.Post("/updateUser", s.UpdateUser)
	protected.Post("/changePassword", s.ChangePassword)
	protected.Delete("/deleteAccount", s.DeleteAccount)

	protected.Get("/favorites", s.GetFavorites)
	protected.Post("/favorites", s.AddFavorite)
	protected.Delete("/favorites/:id", s.DeleteFavorite)
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "API is running",
		"version": "1.0.0",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// SessionRequired returns middleware that loads the session from the cookie
// and rejects requests that carry no valid session.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(session.CookieName)

		user, err := s.sessions.Get(c.Context(), sid)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		if user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}

		c.Locals("sessionID", sid)
		c.Locals("sessionUser", user)
		c.Locals("userID", user.ID)

		return c.Next()
	}
}

// sessionUser returns the authenticated user snapshot set by SessionRequired.
func (s *Server) sessionUser(c *fiber.Ctx) *models.SessionUser {
	user, _ := c.Locals("sessionUser").(*models.SessionUser)
	return user
}

// setSessionCookie attaches the session identifier to the response.
func (s *Server) setSessionCookie(c *fiber.Ctx, sid string) {
	sameSite := fiber.CookieSameSiteLaxMode
	if s.config.CookieSecure {
		sameSite = fiber.CookieSameSiteNoneMode
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sid,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: sameSite,
		MaxAge:   int(s.config.SessionTTL().Seconds()),
		Path:     "/",
	})
}

// clearSessionCookie expires the session cookie on the client.
func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		Expires:  time.Now().Add(-time.Hour),
		Path:     "/",
	})
}

// NewApp builds the Fiber app with middleware and routes. The caller owns
// the app's lifecycle and must drain it with ShutdownWithContext before
// releasing server resources.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Somnia API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	return app
}

// Shutdown gracefully releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
