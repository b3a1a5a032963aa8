package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/router"
	"github.com/noah-isme/lms-go-api/internal/service"
)

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, validate, "secret", time.Hour, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret", AuthRateLimit: 100, AuthRateWindow: time.Minute}, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(authService, logger),
		JWTMiddleware: middleware.JWTProtected("secret"),
	})

	return app
}

func TestAuthRegisterLoginProfile(t *testing.T) {
	app := setupAuthApp(t)

	registerBody, err := json.Marshal(dto.RegisterRequest{
		Username: "alice",
		Password: "correct-horse",
		FullName: "Alice Doe",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var registered struct {
		Data dto.AuthResponse `json:"data"`
	}
	decodeResponse(t, resp, &registered)
	require.NotEmpty(t, registered.Data.AccessToken)
	require.Equal(t, "alice", registered.Data.User.Username)

	// The issued token opens the protected profile route.
	me := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+registered.Data.AccessToken)
	resp, err = app.Test(me)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile struct {
		Data dto.UserResponse `json:"data"`
	}
	decodeResponse(t, resp, &profile)
	require.Equal(t, "Alice Doe", profile.Data.FullName)

	// Without a token the route is closed.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/auth/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Wrong password fails login.
	loginBody, err := json.Marshal(dto.LoginRequest{Username: "alice", Password: "wrong"})
	require.NoError(t, err)
	login := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(loginBody))
	login.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(login)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRegisterDuplicateConflict(t *testing.T) {
	app := setupAuthApp(t)

	body, err := json.Marshal(dto.RegisterRequest{
		Username: "bob",
		Password: "password123",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)

	first := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	first.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(first)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	second := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	second.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(second)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAuthRegisterInvalidRole(t *testing.T) {
	app := setupAuthApp(t)

	body, err := json.Marshal(fiber.Map{
		"username": "carol",
		"password": "password123",
		"role":     "superuser",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
