// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - User: registered account; its ID is the identity used everywhere else
//   - Group: set of members who share expenses
//   - Expense: an amount paid by one or more payers and split among members
//   - SettlementRecord: a persisted "debtor pays creditor" instruction
//
// # Identifiers
//
// Every reference to a person is a UserID. References that arrive from the
// outside (RPC payloads, legacy rows, display labels wrapping an ID) are turned
// into a UserID once, with NormalizeUserID, before they reach any computation.
//
// # Design Principles
//
//  1. Avoid circular references: use ID strings instead of pointers for relationships
//  2. Timestamps are Unix seconds
//  3. Net balances are never stored; they are derived from expenses on demand
package models
