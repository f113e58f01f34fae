package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tripledger/internal/accounting"
	"tripledger/internal/models"
	"tripledger/internal/storage"
	"tripledger/pkg/serrors"
)

// LedgerService enforces membership-based authorization and referential
// invariants over the ledger aggregate, and computes its derived views.
//
// Authorization rules: any member may read, update, and invite; only the
// creator may delete the ledger or remove members. All checks run before the
// first write, so a rejected call leaves state unchanged.
type LedgerService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{store: store, logger: logger}
}

// CreateLedger creates a ledger owned by creatorID, inserting the creator as
// its sole initial member.
func (s *LedgerService) CreateLedger(ctx context.Context, creatorID int64, title string, travelPlanID *int64) (*models.Ledger, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, serrors.Validation("title must not be empty")
	}

	ledger := &models.Ledger{Title: title, CreatorID: creatorID, TravelPlanID: travelPlanID}
	if err := s.store.CreateLedger(ctx, ledger); err != nil {
		return nil, serrors.Internal(err, "creating ledger")
	}

	s.logger.Info("ledger created", "ledger_id", ledger.ID, "creator_id", creatorID)

	return ledger, nil
}

// GetLedgersForUser returns summaries of every ledger the user is a member
// of, most recently updated first.
func (s *LedgerService) GetLedgersForUser(ctx context.Context, userID int64) ([]models.LedgerSummary, error) {
	summaries, err := s.store.ListLedgersByUser(ctx, userID)
	if err != nil {
		return nil, serrors.Internal(err, "listing ledgers")
	}
	return summaries, nil
}

// GetLedgerDetail returns the ledger with resolved member profiles, bill
// items with resolved payer and participant profiles, and derived totals.
// The requester must be a member.
func (s *LedgerService) GetLedgerDetail(ctx context.Context, requesterID, ledgerID int64) (*models.LedgerDetail, error) {
	ledger, err := s.requireMember(ctx, requesterID, ledgerID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, ledgerID)
	if err != nil {
		return nil, serrors.Internal(err, "listing members")
	}
	items, err := s.store.ListBillItems(ctx, ledgerID)
	if err != nil {
		return nil, serrors.Internal(err, "listing bill items")
	}

	// Resolve every referenced user in one lookup. Items can reference
	// users beyond the current member set if a member was removed after
	// recording an item.
	var ids []int64
	for _, item := range items {
		ids = append(ids, item.PayerID)
		ids = append(ids, item.ParticipantIDs...)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, serrors.Internal(err, "resolving users")
	}

	detail := &models.LedgerDetail{
		Ledger:         *ledger,
		Members:        make([]models.UserProfile, 0, len(members)),
		BillItems:      make([]models.BillItemDetail, 0, len(items)),
		TotalAmount:    accounting.LedgerTotal(items),
		CurrencyTotals: accounting.CurrencyTotals(items),
	}
	for _, member := range members {
		detail.Members = append(detail.Members, member.Profile())
	}
	for _, item := range items {
		detail.BillItems = append(detail.BillItems, resolveBillItem(item, users))
	}

	return detail, nil
}

// GetLedgerBalances computes the per-member net balances of a ledger. The
// requester must be a member.
func (s *LedgerService) GetLedgerBalances(ctx context.Context, requesterID, ledgerID int64) ([]accounting.MemberBalance, error) {
	if _, err := s.requireMember(ctx, requesterID, ledgerID); err != nil {
		return nil, err
	}

	items, err := s.store.ListBillItems(ctx, ledgerID)
	if err != nil {
		return nil, serrors.Internal(err, "listing bill items")
	}

	balances, err := accounting.MemberBalances(items)
	if err != nil {
		return nil, serrors.Internal(err, "computing balances")
	}
	return balances, nil
}

// UpdateLedger applies a partial update. A patch with no fields set is a
// successful no-op.
func (s *LedgerService) UpdateLedger(ctx context.Context, requesterID, ledgerID int64, patch models.LedgerPatch) (*models.Ledger, error) {
	ledger, err := s.requireMember(ctx, requesterID, ledgerID)
	if err != nil {
		return nil, err
	}

	if patch.Title == nil && patch.TravelPlanID == nil {
		return ledger, nil
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, serrors.Validation("title must not be empty")
		}
		ledger.Title = title
	}
	if patch.TravelPlanID != nil {
		ledger.TravelPlanID = patch.TravelPlanID
	}

	if err := s.store.UpdateLedger(ctx, ledger); err != nil {
		return nil, serrors.Internal(err, "updating ledger")
	}

	s.logger.Info("ledger updated", "ledger_id", ledgerID, "requester_id", requesterID)

	return ledger, nil
}

// DeleteLedger removes the ledger and cascades deletion of its bill items.
// Only the creator may delete; membership alone is not enough.
func (s *LedgerService) DeleteLedger(ctx context.Context, requesterID, ledgerID int64) error {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	if ledger.CreatorID != requesterID {
		return serrors.Authorization("only the creator can delete a ledger")
	}

	if err := s.store.DeleteLedger(ctx, ledgerID); err != nil {
		return serrors.Internal(err, "deleting ledger")
	}

	s.logger.Info("ledger deleted", "ledger_id", ledgerID, "creator_id", requesterID)

	return nil
}

// AddMember adds targetUserID to the ledger. Any member may invite.
func (s *LedgerService) AddMember(ctx context.Context, requesterID, ledgerID, targetUserID int64) (models.UserProfile, error) {
	if _, err := s.requireMember(ctx, requesterID, ledgerID); err != nil {
		return models.UserProfile{}, err
	}

	target, err := s.store.GetUserByID(ctx, targetUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, serrors.NotFound("user %d does not exist", targetUserID)
	}
	if err != nil {
		return models.UserProfile{}, serrors.Internal(err, "looking up user")
	}

	if err := s.store.AddMember(ctx, ledgerID, targetUserID); err != nil {
		// A concurrent insert of the same member surfaces as a
		// uniqueness violation; either way it is the same conflict.
		if errors.Is(err, storage.ErrDuplicate) {
			return models.UserProfile{}, serrors.Conflict("user %d is already a member", targetUserID)
		}
		return models.UserProfile{}, serrors.Internal(err, "adding member")
	}

	s.logger.Info("member added", "ledger_id", ledgerID, "user_id", targetUserID, "requester_id", requesterID)

	return target.Profile(), nil
}

// RemoveMember removes targetUserID from the ledger. Only the creator may
// remove members, and never themselves.
func (s *LedgerService) RemoveMember(ctx context.Context, requesterID, ledgerID, targetUserID int64) error {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	if ledger.CreatorID != requesterID {
		return serrors.Authorization("only the creator can remove members")
	}
	if requesterID == targetUserID {
		return serrors.Validation("cannot remove yourself from the ledger")
	}

	if err := s.store.RemoveMember(ctx, ledgerID, targetUserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return serrors.Conflict("user %d is not a member", targetUserID)
		}
		return serrors.Internal(err, "removing member")
	}

	s.logger.Info("member removed", "ledger_id", ledgerID, "user_id", targetUserID, "requester_id", requesterID)

	return nil
}

func (s *LedgerService) getLedger(ctx context.Context, ledgerID int64) (*models.Ledger, error) {
	ledger, err := s.store.GetLedger(ctx, ledgerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, serrors.NotFound("ledger %d does not exist", ledgerID)
	}
	if err != nil {
		return nil, serrors.Internal(err, "looking up ledger")
	}
	return ledger, nil
}

// requireMember loads the ledger and verifies the requester's membership.
func (s *LedgerService) requireMember(ctx context.Context, requesterID, ledgerID int64) (*models.Ledger, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	member, err := s.store.IsMember(ctx, ledgerID, requesterID)
	if err != nil {
		return nil, serrors.Internal(err, "checking membership")
	}
	if !member {
		return nil, serrors.Authorization("not a member of this ledger")
	}

	return ledger, nil
}

// resolveBillItem attaches payer and participant profiles to a bill item.
func resolveBillItem(item models.BillItem, users map[int64]*models.User) models.BillItemDetail {
	detail := models.BillItemDetail{
		BillItem:     item,
		Participants: make([]models.UserProfile, 0, len(item.ParticipantIDs)),
	}
	if payer, ok := users[item.PayerID]; ok {
		detail.PayerName = payer.Username
	}
	for _, id := range item.ParticipantIDs {
		if user, ok := users[id]; ok {
			detail.Participants = append(detail.Participants, user.Profile())
		}
	}
	return detail
}
