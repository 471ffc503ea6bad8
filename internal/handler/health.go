package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/gitminer/internal/config"
	"github.com/deppfellow/gitminer/internal/middleware"
	"github.com/deppfellow/gitminer/internal/server"
)

// HealthHandler reports whether the service and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type pinger func(ctx context.Context) error

// CheckHealth answers 200 when every required check passes and 503 otherwise.
// Redis is reported but never marks the service unhealthy.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	healthCfg := h.healthChecks()
	isHealthy := true

	if healthCfg.CheckEnabled("database") {
		var ping pinger
		switch {
		case h.server.DB != nil:
			ping = h.server.DB.Ping
		case h.server.Lite != nil:
			ping = h.server.Lite.Ping
		}

		if ping != nil && !h.runCheck(c.Request().Context(), &logger, checks, "database", healthCfg.Timeout, ping) {
			isHealthy = false
		}
	}

	if healthCfg.CheckEnabled("redis") && h.server.Redis != nil {
		h.runCheck(c.Request().Context(), &logger, checks, "redis", healthCfg.Timeout, func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) healthChecks() *config.HealthChecksConfig {
	if h.server.Config.Observability == nil {
		return &config.DefaultObservabilityConfig().HealthChecks
	}
	return &h.server.Config.Observability.HealthChecks
}

// runCheck pings one dependency and records its outcome under name.
func (h *HealthHandler) runCheck(
	ctx context.Context,
	logger *zerolog.Logger,
	checks map[string]any,
	name string,
	timeout time.Duration,
	ping pinger,
) bool {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		checks[name] = map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msgf("%s health check failed", name)

		h.recordEvent(map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return false
	}

	checks[name] = map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}
	return true
}

func (h *HealthHandler) recordEvent(attrs map[string]any) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
