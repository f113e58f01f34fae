// Package models defines the core domain models for tripledger.
//
// The domain is a multi-tenant shared-expense backend:
//   - User: a registered account, referenced by id from ledgers and bill items
//   - Ledger: a named shared expense record with a creator and a member set
//   - BillItem: one recorded expense within a ledger, with a payer and a
//     non-empty set of participants
//
// A ledger exclusively owns its bill items (deleting the ledger deletes them);
// users are referenced by id only, never owned. Monetary amounts are integer
// minor currency units throughout, avoiding floating-point rounding.
package models
