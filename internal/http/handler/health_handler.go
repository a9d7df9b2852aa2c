package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthDeps groups the infrastructure handles probed by readiness checks.
// Nil handles are skipped, so partial wiring (tests, single-store runs) still
// reports ready.
type HealthDeps struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
	Redis    *redis.Client
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *redis.Client
}

// NewHealthHandler creates a health handler with the provided dependencies.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger:   logger,
		postgres: deps.Postgres,
		redis:    deps.Redis,
	}
}

// Register wires health routes onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/", h.Live)
	router.Get("/healthz", h.Live)
	router.Get("/readyz", h.Ready)
}

// Live is a simple endpoint so we know the process is running.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "linkforge",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings the backing stores and reports per-dependency state.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := fiber.Map{}
	ready := true

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis readiness check failed", zap.Error(err))
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.postgres != nil {
		if err := h.postgres.Ping(ctx); err != nil {
			h.logger.Warn("postgres readiness check failed", zap.Error(err))
			checks["postgres"] = "unavailable"
			ready = false
		} else {
			checks["postgres"] = "ok"
		}
	}

	status := fiber.StatusOK
	state := "ready"
	if !ready {
		status = fiber.StatusServiceUnavailable
		state = "not ready"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": checks,
	})
}
