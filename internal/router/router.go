// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/greenfield-univ/library-api/internal/config"
	"github.com/greenfield-univ/library-api/internal/handler"
	"github.com/greenfield-univ/library-api/internal/middleware"
	"github.com/greenfield-univ/library-api/internal/model"
)

// Handlers carries every handler the API registers.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Books         *handler.BookHandler
	Requests      *handler.RequestHandler
	Notifications *handler.NotificationHandler
	Chat          *handler.ChatHandler
	Stats         *handler.StatsHandler
	Health        *handler.HealthHandler
}

// Register mounts all routes under /api.  Three tiers: public routes,
// routes requiring any authenticated user, and role-gated groups for
// students and staff.  The response cache covers only the public catalog
// reads; the rate limiter covers everything under /api.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Public.
	api.GET("/health", h.Health.Health)
	api.POST("/login", h.Auth.Login)
	api.POST("/refresh", h.Auth.Refresh)
	api.POST("/register/student", h.Auth.RegisterStudent)
	api.POST("/verify-registration-otp", h.Auth.VerifyRegistrationOTP)
	api.POST("/forgot-password", h.Auth.ForgotPassword)
	api.POST("/verify-forgot-password-otp", h.Auth.VerifyForgotPasswordOTP)
	api.POST("/reset-password", h.Auth.ResetPassword)
	api.POST("/chat", h.Chat.Chat)

	// Public catalog reads go through the response cache.
	catalogCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/books", h.Books.List, catalogCache)
	api.GET("/books/:id", h.Books.Get, catalogCache)

	// Any authenticated user.
	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole(model.RoleStudent, model.RoleStaff))
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/change-password", h.Auth.ChangePassword)
	auth.POST("/update-profile", h.Users.UpdateProfile)
	auth.GET("/requests/:id", h.Requests.Get)
	auth.GET("/user-requests/:email", h.Requests.ListByEmail)
	auth.GET("/notifications", h.Notifications.List)
	auth.PUT("/notifications/:id/read", h.Notifications.MarkRead)

	// Students.
	student := api.Group("")
	student.Use(middleware.JWTAuth(cfg.JWTSecret))
	student.Use(middleware.RequireRole(model.RoleStudent))
	student.POST("/requests", h.Requests.Create)

	// Staff.
	staff := api.Group("")
	staff.Use(middleware.JWTAuth(cfg.JWTSecret))
	staff.Use(middleware.RequireRole(model.RoleStaff))
	staff.POST("/books", h.Books.Create)
	staff.PUT("/books/:id", h.Books.Update)
	staff.DELETE("/books/:id", h.Books.Delete)
	staff.GET("/all-requests", h.Requests.ListAll)
	staff.PUT("/requests/:id", h.Requests.UpdateStatus)
	staff.POST("/register/staff", h.Auth.RegisterStaff)
	staff.GET("/users", h.Users.ListUsers)
	staff.DELETE("/users/:email", h.Users.DeleteUser)
	staff.GET("/stats", h.Stats.Stats)
}
