package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/database"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/router"
	"github.com/noah-isme/lms-go-api/internal/service"
	cloud "github.com/noah-isme/lms-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.EnrollmentRequest{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if err := repository.EnsurePendingUniqueIndex(db); err != nil {
		log.Fatalf("failed to create pending request index: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, lifecycle events disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	requestRepo := repository.NewEnrollmentRequestRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	dashboardCache := service.NewDashboardCache(redisClient, cfg.DashboardCacheTTL, logger)
	eventPublisher := service.NewNATSEventPublisher(natsConn, cfg.EventSubjectBase, logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.AccessTokenTTL, logger)
	categoryService := service.NewCategoryService(categoryRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, categoryRepo, validate, logger)
	lessonService := service.NewLessonService(lessonRepo, courseRepo, uploader, validate, cfg.MaxAttachmentMB, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(requestRepo, enrollmentRepo, courseRepo, activityService, eventPublisher, dashboardCache, validate, logger)
	studentDashboardService := service.NewStudentDashboardService(enrollmentRepo, requestRepo, dashboardCache, logger)
	instructorDashboardService := service.NewInstructorDashboardService(courseRepo, enrollmentRepo, requestRepo, dashboardCache, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxAttachmentMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CategoryHandler:   handler.NewCategoryHandler(categoryService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		LessonHandler:     handler.NewLessonHandler(lessonService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		DashboardHandler:  handler.NewDashboardHandler(studentDashboardService, instructorDashboardService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
