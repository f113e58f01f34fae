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

// CreateLedger inserts a new ledger and its creator membership row in one
// transaction, so a ledger can never exist without its creator as a member.
func (s *SQLiteStore) CreateLedger(ctx context.Context, ledger *models.Ledger) error {
	now := time.Now().Unix()
	if ledger.CreatedAt == 0 {
		ledger.CreatedAt = now
	}
	ledger.UpdatedAt = ledger.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledgers (title, creator_id, travel_plan_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		ledger.Title, ledger.CreatorID, ledger.TravelPlanID, ledger.CreatedAt, ledger.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read ledger id: %w", err)
	}
	ledger.ID = id

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ledger_members (ledger_id, user_id, joined_at) VALUES (?, ?, ?)",
		ledger.ID, ledger.CreatorID, ledger.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetLedger retrieves a ledger by id.
func (s *SQLiteStore) GetLedger(ctx context.Context, id int64) (*models.Ledger, error) {
	ledger := &models.Ledger{}
	var travelPlanID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, creator_id, travel_plan_id, created_at, updated_at FROM ledgers WHERE id = ?",
		id,
	).Scan(&ledger.ID, &ledger.Title, &ledger.CreatorID, &travelPlanID, &ledger.CreatedAt, &ledger.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if travelPlanID.Valid {
		ledger.TravelPlanID = &travelPlanID.Int64
	}
	return ledger, nil
}

// ListLedgersByUser returns summaries of every ledger the user belongs to,
// most recently updated first. Member counts and totals come from subqueries
// so the listing stays a single round trip.
func (s *SQLiteStore) ListLedgersByUser(ctx context.Context, userID int64) ([]models.LedgerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.title, l.creator_id, l.travel_plan_id, l.created_at, l.updated_at,
		       (SELECT COUNT(*) FROM ledger_members m WHERE m.ledger_id = l.id),
		       COALESCE((SELECT SUM(b.amount) FROM bill_items b WHERE b.ledger_id = l.id), 0)
		FROM ledgers l
		JOIN ledger_members lm ON lm.ledger_id = l.id
		WHERE lm.user_id = ?
		ORDER BY l.updated_at DESC, l.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	defer rows.Close()

	var summaries []models.LedgerSummary
	for rows.Next() {
		var summary models.LedgerSummary
		var travelPlanID sql.NullInt64
		if err := rows.Scan(
			&summary.ID, &summary.Title, &summary.CreatorID, &travelPlanID,
			&summary.CreatedAt, &summary.UpdatedAt,
			&summary.MemberCount, &summary.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger summary: %w", err)
		}
		if travelPlanID.Valid {
			summary.TravelPlanID = &travelPlanID.Int64
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledgers: %w", err)
	}

	return summaries, nil
}

// UpdateLedger overwrites the ledger's mutable fields and touches updated_at.
func (s *SQLiteStore) UpdateLedger(ctx context.Context, ledger *models.Ledger) error {
	ledger.UpdatedAt = time.Now().Unix()

	res, err := s.db.ExecContext(ctx,
		"UPDATE ledgers SET title = ?, travel_plan_id = ?, updated_at = ? WHERE id = ?",
		ledger.Title, ledger.TravelPlanID, ledger.UpdatedAt, ledger.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteLedger removes the ledger. Membership rows, bill items, and their
// participant rows cascade through foreign keys.
func (s *SQLiteStore) DeleteLedger(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ledgers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// IsMember checks membership with a dedicated existence query.
func (s *SQLiteStore) IsMember(ctx context.Context, ledgerID, userID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM ledger_members WHERE ledger_id = ? AND user_id = ?",
		ledgerID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// ListMembers returns the ledger's members in join order.
func (s *SQLiteStore) ListMembers(ctx context.Context, ledgerID int64) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		FROM users u
		JOIN ledger_members lm ON lm.user_id = u.id
		WHERE lm.ledger_id = ?
		ORDER BY lm.joined_at, u.id`,
		ledgerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// AddMember inserts a membership row. The composite primary key turns a
// concurrent duplicate insert into ErrDuplicate rather than a second row.
func (s *SQLiteStore) AddMember(ctx context.Context, ledgerID, userID int64) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ledger_members (ledger_id, user_id, joined_at) VALUES (?, ?, ?)",
		ledgerID, userID, now,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	if err := touchLedger(ctx, tx, ledgerID, now); err != nil {
		return fmt.Errorf("failed to touch ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RemoveMember deletes a membership row.
func (s *SQLiteStore) RemoveMember(ctx context.Context, ledgerID, userID int64) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM ledger_members WHERE ledger_id = ? AND user_id = ?",
		ledgerID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	if err := touchLedger(ctx, tx, ledgerID, now); err != nil {
		return fmt.Errorf("failed to touch ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
