// Package accounting computes derived views over a ledger's bill items:
// totals, per-currency breakdowns, equal splits, and member balances.
//
// All arithmetic is integer minor currency units. Splits distribute the
// remainder one unit at a time to the earliest participants, so the shares of
// an item always sum exactly to its amount.
package accounting

import (
	"fmt"
	"sort"

	"github.com/Rhymond/go-money"

	"tripledger/internal/models"
)

// LedgerTotal sums the amounts of all items. Amounts are summed directly
// regardless of per-item currency; no conversion is performed.
func LedgerTotal(items []models.BillItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// CurrencyTotals groups item amounts by currency code, sorted by code.
func CurrencyTotals(items []models.BillItem) []models.CurrencyTotal {
	byCurrency := make(map[string]int64)
	for _, item := range items {
		byCurrency[item.Currency] += item.Amount
	}

	totals := make([]models.CurrencyTotal, 0, len(byCurrency))
	for code, amount := range byCurrency {
		totals = append(totals, models.CurrencyTotal{
			Currency: code,
			Amount:   amount,
			Display:  money.New(amount, code).Display(),
		})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })

	return totals
}

// SplitShares divides amount equally among the participants. The remainder of
// the integer division is distributed one minor unit each to the earliest
// participants, so the shares sum exactly to amount. Participant order is the
// input order; duplicate ids are collapsed.
func SplitShares(amount int64, participantIDs []int64) (map[int64]int64, error) {
	unique := dedupe(participantIDs)
	if len(unique) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	n := int64(len(unique))
	base := amount / n
	remainder := amount % n

	shares := make(map[int64]int64, len(unique))
	for i, id := range unique {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[id] = share
	}

	return shares, nil
}

// MemberBalance is one member's position within a ledger: what they paid out,
// the share of expenses attributed to them, and the net of the two.
type MemberBalance struct {
	UserID int64 `json:"user_id"`

	// Paid is the sum of item amounts where this member is the payer.
	Paid int64 `json:"paid"`

	// Share is the sum of this member's split shares across all items.
	Share int64 `json:"share"`

	// Net is Paid minus Share. Positive means the member is owed money.
	Net int64 `json:"net"`
}

// MemberBalances aggregates per-member balances across the ledger's items,
// sorted by user id. Like LedgerTotal, amounts are aggregated across
// currencies without conversion.
func MemberBalances(items []models.BillItem) ([]MemberBalance, error) {
	balances := make(map[int64]*MemberBalance)
	at := func(id int64) *MemberBalance {
		if b, ok := balances[id]; ok {
			return b
		}
		b := &MemberBalance{UserID: id}
		balances[id] = b
		return b
	}

	for _, item := range items {
		at(item.PayerID).Paid += item.Amount

		shares, err := SplitShares(item.Amount, item.ParticipantIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to split bill item %d: %w", item.ID, err)
		}
		for id, share := range shares {
			at(id).Share += share
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.Paid - b.Share
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var unique []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
