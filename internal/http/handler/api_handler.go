package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/mkraev/linkforge/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger *zap.Logger
	Links  service.LinkService
}

// APIHandler implements the registration API.
type APIHandler struct {
	logger *zap.Logger
	links  service.LinkService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger: logger,
		links:  deps.Links,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Post("/links", h.CreateLink)
	}
}

// CreateLinkRequest represents the request body for registering a link.
type CreateLinkRequest struct {
	URL    string `json:"url"`
	Short  string `json:"short,omitempty"`
	Expiry int    `json:"expiry,omitempty"`
}

// CreateLinkResponse represents the response for a registered link.
// RateLimit is -1 when the quota store was unreachable and the request was
// let through.
type CreateLinkResponse struct {
	URL            string `json:"url"`
	Short          string `json:"short"`
	Expiry         int    `json:"expiry"`
	RateLimit      int64  `json:"rate_limit"`
	RateLimitReset int64  `json:"rate_limit_reset"`
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	requestID, _ := c.Locals("request_id").(string)

	out, err := h.links.Register(ctx, service.RegisterInput{
		TargetURL:  req.URL,
		CustomSlug: req.Short,
		TTLHours:   req.Expiry,
		CallerKey:  c.IP(),
		RequestID:  requestID,
	})
	if err != nil {
		return h.writeRegisterError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateLinkResponse{
		URL:            out.Link.TargetURL,
		Short:          out.Link.Slug,
		Expiry:         int(out.Link.TTL / time.Hour),
		RateLimit:      out.QuotaRemaining,
		RateLimitReset: int64(out.QuotaResetIn / time.Second),
	})
}

func (h *APIHandler) writeRegisterError(c *fiber.Ctx, err error) error {
	var rl *model.RateLimitedError
	switch {
	case errors.Is(err, model.ErrInvalidURL):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url must be an absolute https url",
		})
	case errors.Is(err, model.ErrInvalidSlug):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "short must be 1-10 characters from [a-zA-Z0-9]",
		})
	case errors.As(err, &rl):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":            "rate limit exceeded",
			"rate_limit_reset": int64(rl.RetryAfter / time.Second),
		})
	case errors.Is(err, model.ErrSlugConflict):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "short is already in use",
		})
	case errors.Is(err, model.ErrGenerationExhausted):
		h.logger.Error("slug generation exhausted", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not allocate a short link",
		})
	default:
		h.logger.Error("failed to register link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
