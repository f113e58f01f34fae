package api

import (
	"github.com/gofiber/fiber/v2"

	"tripledger/internal/models"
	"tripledger/internal/service"
)

type createBillItemRequest struct {
	Type           string  `json:"type"`
	Amount         int64   `json:"amount"`
	PayerID        int64   `json:"payer_id"`
	ParticipantIDs []int64 `json:"participant_ids"`
	Currency       string  `json:"currency"`
	PaymentAccount string  `json:"payment_account"`
	Description    string  `json:"description"`
	OccurredAt     int64   `json:"occurred_at"`
}

func (s *Server) handleCreateBillItem(c *fiber.Ctx) error {
	ledgerID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req createBillItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	detail, err := s.bills.CreateBillItem(c.UserContext(), currentUserID(c), ledgerID, service.BillItemInput{
		Type:           models.BillItemType(req.Type),
		Amount:         req.Amount,
		PayerID:        req.PayerID,
		ParticipantIDs: req.ParticipantIDs,
		Currency:       req.Currency,
		PaymentAccount: req.PaymentAccount,
		Description:    req.Description,
		OccurredAt:     req.OccurredAt,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

type updateBillItemRequest struct {
	Type           *string `json:"type"`
	Amount         *int64  `json:"amount"`
	PayerID        *int64  `json:"payer_id"`
	ParticipantIDs []int64 `json:"participant_ids"`
	Currency       *string `json:"currency"`
	PaymentAccount *string `json:"payment_account"`
	Description    *string `json:"description"`
	OccurredAt     *int64  `json:"occurred_at"`
}

func (s *Server) handleUpdateBillItem(c *fiber.Ctx) error {
	billItemID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateBillItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	patch := models.BillItemPatch{
		Amount:         req.Amount,
		PayerID:        req.PayerID,
		ParticipantIDs: req.ParticipantIDs,
		Currency:       req.Currency,
		PaymentAccount: req.PaymentAccount,
		Description:    req.Description,
		OccurredAt:     req.OccurredAt,
	}
	if req.Type != nil {
		t := models.BillItemType(*req.Type)
		patch.Type = &t
	}

	detail, err := s.bills.UpdateBillItem(c.UserContext(), currentUserID(c), billItemID, patch)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (s *Server) handleDeleteBillItem(c *fiber.Ctx) error {
	billItemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := s.bills.DeleteBillItem(c.UserContext(), currentUserID(c), billItemID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}
