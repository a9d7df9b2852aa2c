package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/mkraev/linkforge/internal/app/service"
	"github.com/mkraev/linkforge/internal/http/view"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger *zap.Logger
	Links  service.LinkService
}

// RedirectHandler serves the resolution path. It is the dominant traffic
// shape and stays a pure read: one lookup, then a permanent redirect.
type RedirectHandler struct {
	logger *zap.Logger
	links  service.LinkService
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		links:  deps.Links,
	}
}

// Register wires the slug route onto the provided router. It must be
// registered after every fixed path so those win.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/:slug", h.Resolve)
}

// Resolve handles GET /:slug and answers with a 301 so downstream caches can
// keep the hop out of our read path entirely.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing slug",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := h.links.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrLinkNotFound) {
			return h.writeNotFound(c, slug)
		}
		h.logger.Error("failed to resolve slug", zap.Error(err), zap.String("slug", slug))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	h.logger.Debug("redirecting short link", zap.String("slug", slug), zap.String("target", target))
	return c.Redirect(target, fiber.StatusMovedPermanently)
}

func (h *RedirectHandler) writeNotFound(c *fiber.Ctx, slug string) error {
	// Browsers get a page, API clients get JSON.
	if strings.Contains(c.Get(fiber.HeaderAccept), "text/html") {
		html, err := view.RenderNotFoundPage(view.NotFoundPageData{Slug: slug})
		if err != nil {
			h.logger.Error("failed to render not-found page", zap.Error(err))
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		return c.Status(fiber.StatusNotFound).
			Type("html", "utf-8").
			SendString(html)
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "short link not found",
	})
}
