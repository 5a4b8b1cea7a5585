// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - Expense: a cost paid by one user and split among participants
//   - ExpenseParticipant: one participant's obligation on an expense
//   - Settlement: a repayment from one user to another
//   - Balance: the signed net amount between an owner and a counterparty
//   - Obligation: a participant record joined with its expense payer (read model)
//
// # Conventions
//
//  1. Amounts are decimal.Decimal, never float64.
//  2. Relationships use ID strings (UUID format), not pointers.
//  3. Timestamps are Unix seconds.
//  4. A positive Balance means the owner owes the counterparty.
package models
