// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"tripledger/internal/models"
)

// Sentinel errors surfaced by Store implementations. The service layer maps
// these to its semantic error kinds; in particular a uniqueness violation
// (ErrDuplicate) is a benign conflict, never a fatal error.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the persistence operations for users, ledgers, ledger
// membership, and bill items. The implementation is expected to enforce
// relational integrity at the storage boundary: foreign keys ledger -> creator
// and bill item -> ledger, uniqueness on (ledger, user) membership rows, and
// cascade deletion of a ledger's bill items.
type Store interface {
	// CreateUser persists a new user and populates its ID and CreatedAt.
	// Returns ErrDuplicate if the username or email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns ErrNotFound if no such user exists.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByEmail returns ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername returns ErrNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUsersByIDs returns the users keyed by id; missing ids are omitted.
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)

	// UpdateUsername returns ErrDuplicate if the username is taken and
	// ErrNotFound if the user does not exist.
	UpdateUsername(ctx context.Context, userID int64, username string) error

	// UpdatePasswordHash returns ErrNotFound if the user does not exist.
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error

	// CreateLedger persists a new ledger with the creator as its sole
	// member, populating ID, CreatedAt, and UpdatedAt.
	CreateLedger(ctx context.Context, ledger *models.Ledger) error

	// GetLedger returns ErrNotFound if no such ledger exists.
	GetLedger(ctx context.Context, id int64) (*models.Ledger, error)

	// ListLedgersByUser returns summaries of every ledger the user is a
	// member of, most recently updated first.
	ListLedgersByUser(ctx context.Context, userID int64) ([]models.LedgerSummary, error)

	// UpdateLedger overwrites title and travel plan and touches UpdatedAt.
	UpdateLedger(ctx context.Context, ledger *models.Ledger) error

	// DeleteLedger removes the ledger, its membership rows, and all of its
	// bill items.
	DeleteLedger(ctx context.Context, id int64) error

	// IsMember reports whether the user is currently a member of the
	// ledger. A dedicated existence query, not a collection scan.
	IsMember(ctx context.Context, ledgerID, userID int64) (bool, error)

	// ListMembers returns the ledger's members in insertion order.
	ListMembers(ctx context.Context, ledgerID int64) ([]models.User, error)

	// AddMember returns ErrDuplicate if the user is already a member.
	AddMember(ctx context.Context, ledgerID, userID int64) error

	// RemoveMember returns ErrNotFound if the user is not a member.
	RemoveMember(ctx context.Context, ledgerID, userID int64) error

	// CreateBillItem persists a new bill item and its participant rows,
	// populating ID and defaulting OccurredAt.
	CreateBillItem(ctx context.Context, item *models.BillItem) error

	// GetBillItem returns ErrNotFound if no such bill item exists.
	GetBillItem(ctx context.Context, id int64) (*models.BillItem, error)

	// ListBillItems returns the ledger's bill items ordered by occurrence.
	ListBillItems(ctx context.Context, ledgerID int64) ([]models.BillItem, error)

	// UpdateBillItem overwrites the item and replaces its participant rows.
	UpdateBillItem(ctx context.Context, item *models.BillItem) error

	// DeleteBillItem returns ErrNotFound if no such bill item exists.
	DeleteBillItem(ctx context.Context, id int64) error

	// Close releases any resources held by the store.
	Close() error
}
