package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tripledger/pkg/serrors"
)

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	session, err := s.users.Register(c.UserContext(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	session, err := s.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		// A failed login is an authentication problem, not a permission one.
		if errors.Is(err, serrors.KindAuthorization) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return err
	}
	return c.JSON(session)
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	profile, err := s.users.ResolveUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleUpdateUsername(c *fiber.Ctx) error {
	var req updateUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := s.users.UpdateUsername(c.UserContext(), currentUserID(c), req.Username)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleUpdatePassword(c *fiber.Ctx) error {
	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := s.users.UpdatePassword(c.UserContext(), currentUserID(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleLookupUser(c *fiber.Ctx) error {
	identifier := c.Query("identifier")
	if identifier == "" {
		return fiber.NewError(fiber.StatusBadRequest, "identifier query parameter is required")
	}

	profile, err := s.users.ResolveByIdentifier(c.UserContext(), identifier)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}
