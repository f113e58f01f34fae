package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"tripledger/internal/metrics"
)

const userIDKey = "user_id"

// requireAuth validates the Bearer token and stores the authenticated user id
// in the request locals.
func (s *Server) requireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "malformed authorization header")
		}

		claims, err := s.jwt.Validate(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		userID, err := claims.UserID()
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// currentUserID reads the user id stored by requireAuth.
func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDKey).(int64)
	return id
}

// requestLogger emits one structured log line per request.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusFromError(err)
		}
		s.logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return err
	}
}

// recordMetrics observes request counts and latencies per route.
func (s *Server) recordMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = statusFromError(err)
		}
		m.RequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
