package models

// Ledger represents a named shared expense record owned by its creator.
//
// The creator is always a member: it is inserted as the first member at
// creation time and cannot be removed through the membership API.
type Ledger struct {
	// ID is the unique identifier assigned by storage.
	ID int64 `json:"id"`

	// Title is the display name of the ledger (e.g. "Japan Trip").
	// Never empty.
	Title string `json:"title"`

	// CreatorID references the owning user. Immutable after creation.
	CreatorID int64 `json:"creator_id"`

	// TravelPlanID is an optional reference to an external travel plan.
	TravelPlanID *int64 `json:"travel_plan_id,omitempty"`

	// CreatedAt and UpdatedAt are Unix timestamps. Every mutating call on
	// the ledger or its bill items touches UpdatedAt.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// LedgerSummary is the list view of a ledger: the ledger itself plus counts
// derived from its members and bill items.
type LedgerSummary struct {
	Ledger

	// MemberCount is the current number of members.
	MemberCount int `json:"member_count"`

	// TotalAmount is the sum of bill item amounts in minor units. Amounts
	// are summed across currencies without conversion.
	TotalAmount int64 `json:"total_amount"`
}

// LedgerDetail is the full view of a ledger: resolved member profiles, bill
// items with resolved payer and participant profiles, and derived totals.
type LedgerDetail struct {
	Ledger

	Members   []UserProfile    `json:"members"`
	BillItems []BillItemDetail `json:"bill_items"`

	// TotalAmount sums all item amounts regardless of per-item currency.
	TotalAmount int64 `json:"total_amount"`

	// CurrencyTotals breaks the total down per currency code.
	CurrencyTotals []CurrencyTotal `json:"currency_totals"`
}

// CurrencyTotal is the summed amount for one currency within a ledger.
type CurrencyTotal struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`

	// Display is the amount formatted with the currency's symbol and
	// decimal convention (e.g. "¥50.00").
	Display string `json:"display"`
}

// LedgerPatch carries the optional fields of a ledger update. Nil fields are
// left unchanged; a patch with no fields set is a successful no-op.
type LedgerPatch struct {
	Title        *string
	TravelPlanID *int64
}
