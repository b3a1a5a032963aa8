package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (*fiber.App, APIResponse, int) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed APIResponse
	require.NoError(t, json.Unmarshal(body, &parsed))

	return app, parsed, resp.StatusCode
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	_, parsed, status := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", map[string]string{"ok": "yes"})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, parsed.Success)
	require.Equal(t, "success", parsed.Message)
	require.NotNil(t, parsed.Data)
}

func TestSendSuccessWithStatus(t *testing.T) {
	_, parsed, status := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "created", nil)
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, parsed.Success)
	require.Equal(t, "created", parsed.Message)
}

func TestSendError(t *testing.T) {
	_, parsed, status := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusConflict, "duplicate")
	})

	require.Equal(t, fiber.StatusConflict, status)
	require.False(t, parsed.Success)
	require.Equal(t, "duplicate", parsed.Message)
	require.Empty(t, parsed.CorrelationID)
}

func TestSendErrorEchoesCorrelationID(t *testing.T) {
	_, parsed, _ := performRequest(t, func(c *fiber.Ctx) error {
		c.Locals("correlation_id", "req-123")
		return SendError(c, fiber.StatusNotFound, "missing")
	})

	require.Equal(t, "req-123", parsed.CorrelationID)
}
