package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"tripledger/internal/models"
)

// paramID parses a positive int64 path parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+" parameter")
	}
	return id, nil
}

type createLedgerRequest struct {
	Title        string `json:"title"`
	TravelPlanID *int64 `json:"travel_plan_id"`
}

func (s *Server) handleCreateLedger(c *fiber.Ctx) error {
	var req createLedgerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ledger, err := s.ledgers.CreateLedger(c.UserContext(), currentUserID(c), req.Title, req.TravelPlanID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ledger)
}

func (s *Server) handleListLedgers(c *fiber.Ctx) error {
	summaries, err := s.ledgers.GetLedgersForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(summaries)
}

func (s *Server) handleLedgerDetail(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.ledgers.GetLedgerDetail(c.UserContext(), currentUserID(c), ledgerID)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

type updateLedgerRequest struct {
	Title        *string `json:"title"`
	TravelPlanID *int64  `json:"travel_plan_id"`
}

func (s *Server) handleUpdateLedger(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateLedgerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ledger, err := s.ledgers.UpdateLedger(c.UserContext(), currentUserID(c), ledgerID, models.LedgerPatch{
		Title:        req.Title,
		TravelPlanID: req.TravelPlanID,
	})
	if err != nil {
		return err
	}
	return c.JSON(ledger)
}

func (s *Server) handleDeleteLedger(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := s.ledgers.DeleteLedger(c.UserContext(), currentUserID(c), ledgerID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleLedgerBalances(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	balances, err := s.ledgers.GetLedgerBalances(c.UserContext(), currentUserID(c), ledgerID)
	if err != nil {
		return err
	}
	return c.JSON(balances)
}

type addMemberRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleAddMember(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := s.ledgers.AddMember(c.UserContext(), currentUserID(c), ledgerID, req.UserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (s *Server) handleRemoveMember(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "userID")
	if err != nil {
		return err
	}

	if err := s.ledgers.RemoveMember(c.UserContext(), currentUserID(c), ledgerID, targetID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}
