package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripledger/internal/models"
	"tripledger/internal/storage"
)

// CreateBillItem inserts a bill item and its participant rows in one
// transaction, touching the owning ledger's updated_at.
func (s *SQLiteStore) CreateBillItem(ctx context.Context, item *models.BillItem) error {
	now := time.Now().Unix()
	if item.OccurredAt == 0 {
		item.OccurredAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bill_items (ledger_id, type, amount, currency, payment_account, payer_id, description, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.LedgerID, item.Type, item.Amount, item.Currency,
		item.PaymentAccount, item.PayerID, item.Description, item.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read bill item id: %w", err)
	}
	item.ID = id

	if err := insertParticipants(ctx, tx, item.ID, item.ParticipantIDs); err != nil {
		return err
	}

	if err := touchLedger(ctx, tx, item.LedgerID, now); err != nil {
		return fmt.Errorf("failed to touch ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBillItem retrieves a bill item with its participant ids.
func (s *SQLiteStore) GetBillItem(ctx context.Context, id int64) (*models.BillItem, error) {
	item := &models.BillItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, ledger_id, type, amount, currency, payment_account, payer_id, description, occurred_at
		FROM bill_items WHERE id = ?`,
		id,
	).Scan(
		&item.ID, &item.LedgerID, &item.Type, &item.Amount, &item.Currency,
		&item.PaymentAccount, &item.PayerID, &item.Description, &item.OccurredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill item: %w", err)
	}

	item.ParticipantIDs, err = s.participantIDs(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListBillItems returns the ledger's bill items ordered by occurrence.
func (s *SQLiteStore) ListBillItems(ctx context.Context, ledgerID int64) ([]models.BillItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger_id, type, amount, currency, payment_account, payer_id, description, occurred_at
		FROM bill_items WHERE ledger_id = ?
		ORDER BY occurred_at, id`,
		ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bill items: %w", err)
	}
	defer rows.Close()

	var items []models.BillItem
	for rows.Next() {
		var item models.BillItem
		if err := rows.Scan(
			&item.ID, &item.LedgerID, &item.Type, &item.Amount, &item.Currency,
			&item.PaymentAccount, &item.PayerID, &item.Description, &item.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill items: %w", err)
	}

	for i := range items {
		items[i].ParticipantIDs, err = s.participantIDs(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return items, nil
}

// UpdateBillItem overwrites the item and replaces its participant rows.
func (s *SQLiteStore) UpdateBillItem(ctx context.Context, item *models.BillItem) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bill_items
		SET type = ?, amount = ?, currency = ?, payment_account = ?, payer_id = ?, description = ?, occurred_at = ?
		WHERE id = ?`,
		item.Type, item.Amount, item.Currency, item.PaymentAccount,
		item.PayerID, item.Description, item.OccurredAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bill_item_participants WHERE bill_item_id = ?",
		item.ID,
	); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}

	if err := insertParticipants(ctx, tx, item.ID, item.ParticipantIDs); err != nil {
		return err
	}

	if err := touchLedger(ctx, tx, item.LedgerID, now); err != nil {
		return fmt.Errorf("failed to touch ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteBillItem removes a bill item; participant rows cascade.
func (s *SQLiteStore) DeleteBillItem(ctx context.Context, id int64) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ledgerID int64
	err = tx.QueryRowContext(ctx,
		"SELECT ledger_id FROM bill_items WHERE id = ?", id,
	).Scan(&ledgerID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get bill item ledger: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_items WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete bill item: %w", err)
	}

	if err := touchLedger(ctx, tx, ledgerID, now); err != nil {
		return fmt.Errorf("failed to touch ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *SQLiteStore) participantIDs(ctx context.Context, billItemID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM bill_item_participants WHERE bill_item_id = ? ORDER BY user_id",
		billItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return ids, nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, billItemID int64, userIDs []int64) error {
	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bill_item_participants (bill_item_id, user_id) VALUES (?, ?)",
			billItemID, userID,
		)
		if isUniqueViolation(err) {
			// Duplicate ids in the input collapse into one row.
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}
