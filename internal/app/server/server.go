package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkraev/linkforge/internal/app/service"
	inthttp "github.com/mkraev/linkforge/internal/http/handler"
	"github.com/mkraev/linkforge/internal/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles what the HTTP server needs wired in. Postgres and
// Redis are only probed by readiness checks and may be nil.
type Dependencies struct {
	Logger   *zap.Logger
	Links    service.LinkService
	Postgres *pgxpool.Pool
	Redis    *redis.Client
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())

	healthHandler := inthttp.NewHealthHandler(inthttp.HealthDeps{
		Logger:   s.deps.Logger,
		Postgres: s.deps.Postgres,
		Redis:    s.deps.Redis,
	})
	healthHandler.Register(s.app)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger: s.deps.Logger,
		Links:  s.deps.Links,
	})
	apiHandler.Register(s.app)

	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger: s.deps.Logger,
		Links:  s.deps.Links,
	})
	redirectHandler.Register(s.app)
}
