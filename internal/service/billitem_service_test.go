package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tripledger/internal/models"
	"tripledger/pkg/serrors"
)

func TestCreateBillItem(t *testing.T) {
	store, ledgers, bills := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	ledger, err := ledgers.CreateLedger(ctx, alice.ID, "Japan Trip", nil)
	if err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}
	if _, err := ledgers.AddMember(ctx, alice.ID, ledger.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	t.Run("valid item updates the ledger total", func(t *testing.T) {
		item, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
			Type:           models.BillItemMeal,
			Amount:         5000,
			PayerID:        alice.ID,
			ParticipantIDs: []int64{alice.ID, bob.ID},
		})
		if err != nil {
			t.Fatalf("CreateBillItem failed: %v", err)
		}
		if item.Currency != "CNY" || item.PaymentAccount != "cash" {
			t.Errorf("expected defaults applied, got %q/%q", item.Currency, item.PaymentAccount)
		}
		if item.PayerName != "alice" {
			t.Errorf("expected resolved payer name alice, got %q", item.PayerName)
		}
		if len(item.Participants) != 2 {
			t.Errorf("expected 2 resolved participants, got %d", len(item.Participants))
		}

		detail, err := ledgers.GetLedgerDetail(ctx, alice.ID, ledger.ID)
		if err != nil {
			t.Fatalf("GetLedgerDetail failed: %v", err)
		}
		if detail.TotalAmount != 5000 {
			t.Errorf("expected total 5000, got %d", detail.TotalAmount)
		}

		// Re-fetching without mutations yields the same total.
		again, err := ledgers.GetLedgerDetail(ctx, alice.ID, ledger.ID)
		if err != nil {
			t.Fatalf("GetLedgerDetail failed: %v", err)
		}
		if again.TotalAmount != detail.TotalAmount {
			t.Errorf("total must be stable across reads: %d vs %d", again.TotalAmount, detail.TotalAmount)
		}
	})

	t.Run("non-member payer is rejected naming the payer", func(t *testing.T) {
		outsider := seedUser(t, store, "outsider")
		_, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
			Type:           models.BillItemMeal,
			Amount:         100,
			PayerID:        outsider.ID,
			ParticipantIDs: []int64{alice.ID},
		})
		if !errors.Is(err, serrors.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "payer") {
			t.Errorf("error must name the payer role: %q", err.Error())
		}
	})

	t.Run("non-member participant is rejected naming the participant", func(t *testing.T) {
		outsider := seedUser(t, store, "outsider2")
		_, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
			Type:           models.BillItemMeal,
			Amount:         100,
			PayerID:        alice.ID,
			ParticipantIDs: []int64{alice.ID, outsider.ID},
		})
		if !errors.Is(err, serrors.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "participant") {
			t.Errorf("error must name the participant role: %q", err.Error())
		}
	})

	t.Run("rejects zero and negative amounts", func(t *testing.T) {
		for _, amount := range []int64{0, -500} {
			_, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
				Type:           models.BillItemMeal,
				Amount:         amount,
				PayerID:        alice.ID,
				ParticipantIDs: []int64{alice.ID},
			})
			if !errors.Is(err, serrors.KindValidation) {
				t.Errorf("amount %d: expected validation error, got %v", amount, err)
			}
		}
	})

	t.Run("rejects empty participants", func(t *testing.T) {
		_, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
			Type:    models.BillItemMeal,
			Amount:  100,
			PayerID: alice.ID,
		})
		if !errors.Is(err, serrors.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
			Type:           "souvenir",
			Amount:         100,
			PayerID:        alice.ID,
			ParticipantIDs: []int64{alice.ID},
		})
		if !errors.Is(err, serrors.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("non-member requester is rejected", func(t *testing.T) {
		mallory := seedUser(t, store, "mallory")
		_, err := bills.CreateBillItem(ctx, mallory.ID, ledger.ID, BillItemInput{
			Type:           models.BillItemMeal,
			Amount:         100,
			PayerID:        alice.ID,
			ParticipantIDs: []int64{alice.ID},
		})
		if !errors.Is(err, serrors.KindAuthorization) {
			t.Errorf("expected authorization error, got %v", err)
		}
	})
}

func TestUpdateBillItem(t *testing.T) {
	store, ledgers, bills := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	ledger, err := ledgers.CreateLedger(ctx, alice.ID, "Japan Trip", nil)
	if err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}
	if _, err := ledgers.AddMember(ctx, alice.ID, ledger.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	created, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
		Type:           models.BillItemTransport,
		Amount:         2400,
		PayerID:        alice.ID,
		ParticipantIDs: []int64{alice.ID, bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateBillItem failed: %v", err)
	}

	t.Run("description-only patch leaves other fields unchanged", func(t *testing.T) {
		desc := "Shinkansen to Osaka"
		updated, err := bills.UpdateBillItem(ctx, bob.ID, created.ID, models.BillItemPatch{Description: &desc})
		if err != nil {
			t.Fatalf("UpdateBillItem failed: %v", err)
		}
		if updated.Description != desc {
			t.Errorf("description: expected %q, got %q", desc, updated.Description)
		}
		if updated.Amount != 2400 || updated.PayerID != alice.ID || len(updated.ParticipantIDs) != 2 {
			t.Errorf("unsupplied fields changed: %+v", updated.BillItem)
		}
	})

	t.Run("new payer is re-validated against membership", func(t *testing.T) {
		outsider := seedUser(t, store, "outsider")
		_, err := bills.UpdateBillItem(ctx, alice.ID, created.ID, models.BillItemPatch{PayerID: &outsider.ID})
		if !errors.Is(err, serrors.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("empty participant patch is rejected", func(t *testing.T) {
		_, err := bills.UpdateBillItem(ctx, alice.ID, created.ID, models.BillItemPatch{ParticipantIDs: []int64{}})
		if !errors.Is(err, serrors.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("missing item is not found", func(t *testing.T) {
		desc := "x"
		_, err := bills.UpdateBillItem(ctx, alice.ID, 9999, models.BillItemPatch{Description: &desc})
		if !errors.Is(err, serrors.KindNotFound) {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

func TestDeleteBillItem(t *testing.T) {
	store, ledgers, bills := newTestEnv(t)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	ledger, err := ledgers.CreateLedger(ctx, alice.ID, "Japan Trip", nil)
	if err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}
	if _, err := ledgers.AddMember(ctx, alice.ID, ledger.ID, bob.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	created, err := bills.CreateBillItem(ctx, alice.ID, ledger.ID, BillItemInput{
		Type:           models.BillItemTicket,
		Amount:         1800,
		PayerID:        alice.ID,
		ParticipantIDs: []int64{alice.ID, bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateBillItem failed: %v", err)
	}

	t.Run("non-member cannot delete", func(t *testing.T) {
		mallory := seedUser(t, store, "mallory")
		if err := bills.DeleteBillItem(ctx, mallory.ID, created.ID); !errors.Is(err, serrors.KindAuthorization) {
			t.Errorf("expected authorization error, got %v", err)
		}
	})

	t.Run("any member may delete, and the total adjusts", func(t *testing.T) {
		if err := bills.DeleteBillItem(ctx, bob.ID, created.ID); err != nil {
			t.Fatalf("DeleteBillItem failed: %v", err)
		}

		detail, err := ledgers.GetLedgerDetail(ctx, alice.ID, ledger.ID)
		if err != nil {
			t.Fatalf("GetLedgerDetail failed: %v", err)
		}
		if detail.TotalAmount != 0 {
			t.Errorf("expected total 0 after delete, got %d", detail.TotalAmount)
		}
		if len(detail.BillItems) != 0 {
			t.Errorf("expected no bill items, got %d", len(detail.BillItems))
		}
	})
}
