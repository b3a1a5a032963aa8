package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DashboardCache wraps redis for the dashboard aggregators. It also gives the
// enrollment service a single place to invalidate both sides of a decision.
// A nil client disables caching entirely.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDashboardCache constructs the cache helper.
func NewDashboardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *DashboardCache {
	return &DashboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "dashboard_cache").Logger(),
	}
}

func studentDashboardKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}

func instructorDashboardKey(instructorID uint) string {
	return fmt.Sprintf("dashboard:instructor:%d", instructorID)
}

// Get unmarshals the cached payload into out, reporting whether it was found.
func (c *DashboardCache) Get(ctx context.Context, key string, out interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), out); err != nil {
		return false
	}

	return true
}

// Set stores the payload under key for the configured TTL.
func (c *DashboardCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store dashboard cache")
	}
}

// InvalidateStudent drops the student's cached dashboard.
func (c *DashboardCache) InvalidateStudent(ctx context.Context, studentID uint) {
	c.invalidate(ctx, studentDashboardKey(studentID))
}

// InvalidateInstructor drops the instructor's cached dashboard.
func (c *DashboardCache) InvalidateInstructor(ctx context.Context, instructorID uint) {
	c.invalidate(ctx, instructorDashboardKey(instructorID))
}

func (c *DashboardCache) invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate dashboard cache")
	}
}
