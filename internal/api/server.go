// Package api exposes the service layer over a JSON HTTP API. Handlers parse
// and serialize only; every domain decision lives in the services, and every
// service failure carries a semantic kind this package maps to a status code.
package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripledger/internal/auth"
	"tripledger/internal/config"
	"tripledger/internal/metrics"
	"tripledger/internal/service"
	"tripledger/pkg/serrors"
)

// Server wires the fiber application around the domain services.
type Server struct {
	App *fiber.App

	users   *service.UserService
	ledgers *service.LedgerService
	bills   *service.BillItemService
	jwt     *auth.JWTManager
	logger  *slog.Logger
}

// New builds the fiber app with its middleware stack and routes.
func New(
	cfg *config.Config,
	users *service.UserService,
	ledgers *service.LedgerService,
	bills *service.BillItemService,
	jwt *auth.JWTManager,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	s := &Server{
		users:   users,
		ledgers: ledgers,
		bills:   bills,
		jwt:     jwt,
		logger:  logger,
	}

	s.App = fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorHandler: s.errorHandler,
	})

	s.App.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	s.App.Use(s.requestLogger())
	if m != nil {
		s.App.Use(s.recordMetrics(m))
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	s.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	authLimit := limiter.New(limiter.Config{
		Max:        cfg.HTTP.AuthRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})
	requireAuth := s.requireAuth()

	s.App.Post("/api/users/register", authLimit, s.handleRegister)
	s.App.Post("/api/users/login", authLimit, s.handleLogin)
	s.App.Get("/api/users/me", requireAuth, s.handleMe)
	s.App.Put("/api/users/username", requireAuth, s.handleUpdateUsername)
	s.App.Put("/api/users/password", requireAuth, s.handleUpdatePassword)
	s.App.Get("/api/users/lookup", requireAuth, s.handleLookupUser)

	s.App.Post("/api/ledgers", requireAuth, s.handleCreateLedger)
	s.App.Get("/api/ledgers", requireAuth, s.handleListLedgers)
	s.App.Get("/api/ledgers/:id", requireAuth, s.handleLedgerDetail)
	s.App.Put("/api/ledgers/:id", requireAuth, s.handleUpdateLedger)
	s.App.Delete("/api/ledgers/:id", requireAuth, s.handleDeleteLedger)
	s.App.Get("/api/ledgers/:id/balances", requireAuth, s.handleLedgerBalances)

	s.App.Post("/api/ledgers/:id/members", requireAuth, s.handleAddMember)
	s.App.Delete("/api/ledgers/:id/members/:userID", requireAuth, s.handleRemoveMember)

	s.App.Post("/api/ledgers/:id/bill-items", requireAuth, s.handleCreateBillItem)
	s.App.Put("/api/bill-items/:id", requireAuth, s.handleUpdateBillItem)
	s.App.Delete("/api/bill-items/:id", requireAuth, s.handleDeleteBillItem)

	return s
}

// errorHandler maps semantic service errors and fiber errors to JSON
// responses with a stable shape.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code, message := statusFromError(err)
	if code == fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		message = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// statusFromError resolves an error to its HTTP status and client-facing
// message.
func statusFromError(err error) (int, string) {
	var serr *serrors.Error
	if errors.As(err, &serr) {
		switch {
		case errors.Is(serr, serrors.KindValidation):
			return fiber.StatusBadRequest, serr.Error()
		case errors.Is(serr, serrors.KindAuthorization):
			return fiber.StatusForbidden, serr.Error()
		case errors.Is(serr, serrors.KindNotFound):
			return fiber.StatusNotFound, serr.Error()
		case errors.Is(serr, serrors.KindConflict):
			return fiber.StatusConflict, serr.Error()
		}
		return fiber.StatusInternalServerError, serr.Error()
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, err.Error()
}
