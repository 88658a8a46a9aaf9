// Package models defines the core domain models for the family wallet.
//
// # Models
//
//   - Group: a shared family wallet holding one balance and owning a ledger
//   - Member: a person identity attached to exactly one group
//   - LedgerEntry: one recorded income or expense event
//   - LinkingSession: a short-lived invitation code that authorizes merging
//     two wallets
//
// # Design Principles
//
//  1. **ID-based relationships**: models reference each other by ID strings,
//     never by pointers, so bulk ownership transfer during a merge is a single
//     reassignment of group IDs rather than a graph traversal.
//  2. **Balance by construction**: a group's balance is updated in the same
//     storage transaction as every ledger write and is never recomputed from
//     the entries.
//  3. **Money as decimals**: amounts use fixed-point decimals, not floats.
package models
