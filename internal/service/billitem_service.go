package service

import (
	"context"
	"errors"
	"log/slog"

	"tripledger/internal/models"
	"tripledger/internal/storage"
	"tripledger/pkg/serrors"
)

// BillItemService manages the expenses within a ledger. Every operation
// requires the requester to be a member of the owning ledger, and the payer
// and all participants of an item must be members at the time of the write.
type BillItemService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewBillItemService creates a new BillItemService with the given storage backend.
func NewBillItemService(store storage.Store, logger *slog.Logger) *BillItemService {
	return &BillItemService{store: store, logger: logger}
}

// BillItemInput carries the fields of a new bill item. Currency and
// PaymentAccount default when empty; OccurredAt defaults to the creation time.
type BillItemInput struct {
	Type           models.BillItemType
	Amount         int64
	PayerID        int64
	ParticipantIDs []int64
	Currency       string
	PaymentAccount string
	Description    string
	OccurredAt     int64
}

// CreateBillItem records a new expense in the ledger.
func (s *BillItemService) CreateBillItem(ctx context.Context, requesterID, ledgerID int64, input BillItemInput) (*models.BillItemDetail, error) {
	if err := s.requireMember(ctx, requesterID, ledgerID); err != nil {
		return nil, err
	}

	if !input.Type.Valid() {
		return nil, serrors.Validation("unknown bill item type %q", input.Type)
	}
	if input.Amount <= 0 {
		return nil, serrors.Validation("amount must be a positive integer of minor units")
	}
	if len(input.ParticipantIDs) == 0 {
		return nil, serrors.Validation("at least one participant is required")
	}
	if err := s.checkSplitMembers(ctx, ledgerID, &input.PayerID, input.ParticipantIDs); err != nil {
		return nil, err
	}

	item := &models.BillItem{
		LedgerID:       ledgerID,
		Type:           input.Type,
		Amount:         input.Amount,
		Currency:       input.Currency,
		PaymentAccount: input.PaymentAccount,
		PayerID:        input.PayerID,
		ParticipantIDs: input.ParticipantIDs,
		Description:    input.Description,
		OccurredAt:     input.OccurredAt,
	}
	if item.Currency == "" {
		item.Currency = models.DefaultCurrency
	}
	if item.PaymentAccount == "" {
		item.PaymentAccount = models.DefaultPaymentAccount
	}

	if err := s.store.CreateBillItem(ctx, item); err != nil {
		return nil, serrors.Internal(err, "creating bill item")
	}

	s.logger.Info("bill item created",
		"bill_item_id", item.ID,
		"ledger_id", ledgerID,
		"amount", item.Amount,
		"payer_id", item.PayerID,
	)

	return s.resolveDetail(ctx, item)
}

// UpdateBillItem applies a partial update to an expense. Only supplied fields
// are validated and overwritten; a newly supplied payer or participant set is
// re-checked against the ledger's current members exactly as in create.
func (s *BillItemService) UpdateBillItem(ctx context.Context, requesterID, billItemID int64, patch models.BillItemPatch) (*models.BillItemDetail, error) {
	item, err := s.getBillItem(ctx, billItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, requesterID, item.LedgerID); err != nil {
		return nil, err
	}

	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, serrors.Validation("unknown bill item type %q", *patch.Type)
		}
		item.Type = *patch.Type
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, serrors.Validation("amount must be a positive integer of minor units")
		}
		item.Amount = *patch.Amount
	}
	if patch.Currency != nil && *patch.Currency != "" {
		item.Currency = *patch.Currency
	}
	if patch.PaymentAccount != nil && *patch.PaymentAccount != "" {
		item.PaymentAccount = *patch.PaymentAccount
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.OccurredAt != nil {
		item.OccurredAt = *patch.OccurredAt
	}
	if patch.ParticipantIDs != nil {
		if len(patch.ParticipantIDs) == 0 {
			return nil, serrors.Validation("at least one participant is required")
		}
		item.ParticipantIDs = patch.ParticipantIDs
	}
	if patch.PayerID != nil {
		item.PayerID = *patch.PayerID
	}

	if err := s.checkSplitMembers(ctx, item.LedgerID, patch.PayerID, patch.ParticipantIDs); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBillItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, serrors.NotFound("bill item %d does not exist", billItemID)
		}
		return nil, serrors.Internal(err, "updating bill item")
	}

	s.logger.Info("bill item updated", "bill_item_id", billItemID, "requester_id", requesterID)

	return s.resolveDetail(ctx, item)
}

// DeleteBillItem removes an expense. Any member of the owning ledger may
// delete, unlike ledger deletion which is creator-only.
func (s *BillItemService) DeleteBillItem(ctx context.Context, requesterID, billItemID int64) error {
	item, err := s.getBillItem(ctx, billItemID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, requesterID, item.LedgerID); err != nil {
		return err
	}

	if err := s.store.DeleteBillItem(ctx, billItemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return serrors.NotFound("bill item %d does not exist", billItemID)
		}
		return serrors.Internal(err, "deleting bill item")
	}

	s.logger.Info("bill item deleted", "bill_item_id", billItemID, "requester_id", requesterID)

	return nil
}

func (s *BillItemService) getBillItem(ctx context.Context, billItemID int64) (*models.BillItem, error) {
	item, err := s.store.GetBillItem(ctx, billItemID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, serrors.NotFound("bill item %d does not exist", billItemID)
	}
	if err != nil {
		return nil, serrors.Internal(err, "looking up bill item")
	}
	return item, nil
}

func (s *BillItemService) requireMember(ctx context.Context, requesterID, ledgerID int64) error {
	if _, err := s.store.GetLedger(ctx, ledgerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return serrors.NotFound("ledger %d does not exist", ledgerID)
		}
		return serrors.Internal(err, "looking up ledger")
	}

	member, err := s.store.IsMember(ctx, ledgerID, requesterID)
	if err != nil {
		return serrors.Internal(err, "checking membership")
	}
	if !member {
		return serrors.Authorization("not a member of this ledger")
	}
	return nil
}

// checkSplitMembers validates that a supplied payer and supplied participants
// are current ledger members. Nil arguments mean the field was not supplied.
// The first violation short-circuits, naming the offending role.
func (s *BillItemService) checkSplitMembers(ctx context.Context, ledgerID int64, payerID *int64, participantIDs []int64) error {
	if payerID != nil {
		member, err := s.store.IsMember(ctx, ledgerID, *payerID)
		if err != nil {
			return serrors.Internal(err, "checking payer membership")
		}
		if !member {
			return serrors.Validation("payer %d is not a member of the ledger", *payerID)
		}
	}

	for _, id := range participantIDs {
		member, err := s.store.IsMember(ctx, ledgerID, id)
		if err != nil {
			return serrors.Internal(err, "checking participant membership")
		}
		if !member {
			return serrors.Validation("participant %d is not a member of the ledger", id)
		}
	}

	return nil
}

func (s *BillItemService) resolveDetail(ctx context.Context, item *models.BillItem) (*models.BillItemDetail, error) {
	ids := append([]int64{item.PayerID}, item.ParticipantIDs...)
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, serrors.Internal(err, "resolving users")
	}
	detail := resolveBillItem(*item, users)
	return &detail, nil
}
