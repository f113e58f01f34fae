package models

// BillItemType categorizes a bill item.
type BillItemType string

const (
	BillItemHotel     BillItemType = "hotel"
	BillItemMeal      BillItemType = "meal"
	BillItemTransport BillItemType = "transport"
	BillItemTicket    BillItemType = "ticket"
	BillItemOther     BillItemType = "other"
)

// Valid reports whether t is one of the recognized bill item types.
func (t BillItemType) Valid() bool {
	switch t {
	case BillItemHotel, BillItemMeal, BillItemTransport, BillItemTicket, BillItemOther:
		return true
	}
	return false
}

// Default values applied when a bill item is created without them.
const (
	DefaultCurrency       = "CNY"
	DefaultPaymentAccount = "cash"
)

// BillItem represents a single expense within a ledger.
//
// The payer and every participant must be members of the owning ledger at the
// time the item is created or updated; the service layer enforces this before
// any write.
type BillItem struct {
	// ID is the unique identifier assigned by storage.
	ID int64 `json:"id"`

	// LedgerID references the owning ledger. Immutable after creation.
	LedgerID int64 `json:"ledger_id"`

	// Type categorizes the expense.
	Type BillItemType `json:"type"`

	// Amount is the expense amount in minor currency units. Always positive.
	Amount int64 `json:"amount"`

	// Currency is an ISO-like code, default "CNY".
	Currency string `json:"currency"`

	// PaymentAccount is a free-form label for how the item was paid,
	// default "cash".
	PaymentAccount string `json:"payment_account"`

	// PayerID references the member who paid.
	PayerID int64 `json:"payer_id"`

	// ParticipantIDs is the non-empty set of members splitting the item.
	ParticipantIDs []int64 `json:"participant_ids"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// OccurredAt is the Unix timestamp of the expense. Defaults to the
	// creation time when unspecified.
	OccurredAt int64 `json:"occurred_at"`
}

// BillItemDetail is a bill item with its payer and participants resolved to
// profiles for display.
type BillItemDetail struct {
	BillItem

	PayerName    string        `json:"payer_name"`
	Participants []UserProfile `json:"participants"`
}

// BillItemPatch carries the optional fields of a bill item update. Nil fields
// are left unchanged. A nil ParticipantIDs slice means "unchanged"; an empty
// non-nil slice is rejected by the service.
type BillItemPatch struct {
	Type           *BillItemType
	Amount         *int64
	Currency       *string
	PaymentAccount *string
	PayerID        *int64
	ParticipantIDs []int64
	Description    *string
	OccurredAt     *int64
}
