package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CategoryHandler   *handler.CategoryHandler
	CourseHandler     *handler.CourseHandler
	LessonHandler     *handler.LessonHandler
	EnrollmentHandler *handler.EnrollmentHandler
	DashboardHandler  *handler.DashboardHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Authentication & profile
	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow))
		deps.AuthHandler.RegisterPublic(auth)

		profile := api.Group("/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(profile)
	}

	// Course catalog & categories
	if deps.CategoryHandler != nil {
		categories := api.Group("/categories")
		deps.CategoryHandler.RegisterPublic(categories)

		adminCategories := api.Group("/categories", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.CategoryHandler.RegisterProtected(adminCategories)
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses")
		deps.CourseHandler.RegisterPublic(courses)

		protectedCourses := api.Group("/courses", jwtMiddleware)
		deps.CourseHandler.RegisterProtected(protectedCourses)

		if deps.LessonHandler != nil {
			lessons := api.Group("/lessons")
			deps.LessonHandler.RegisterPublic(courses, lessons)

			protectedLessons := api.Group("/lessons", jwtMiddleware)
			deps.LessonHandler.RegisterProtected(protectedCourses, protectedLessons)
		}
	}

	// Enrollment request lifecycle
	if deps.EnrollmentHandler != nil {
		requests := api.Group("/enrollment-requests", jwtMiddleware)
		enrollments := api.Group("/enrollments", jwtMiddleware)
		deps.EnrollmentHandler.Register(requests, enrollments)
	}

	// Dashboards
	if deps.DashboardHandler != nil {
		dashboard := api.Group("/dashboard", jwtMiddleware)
		deps.DashboardHandler.Register(dashboard)
	}

	// Admin audit trail
	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.ActivityHandler.Register(activity)
	}
}
