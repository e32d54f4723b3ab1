// Package models defines the core domain models for PayMate.
//
// # Models
//
//   - Expense: a shared expense split among participants, owning its
//     ExpenseParticipant obligations and derived Transactions
//   - ExpenseParticipant: one participant's share of an expense and its
//     payoff state
//   - Transaction: a pending or completed money movement between users,
//     either derived from an expense split or created by a payment
//   - User: a registered account with a wallet balance
//   - Group: a reusable participant list that can own expenses
//
// # Design Principles
//
//  1. **Exact money**: all amounts are decimal.Decimal with 2 decimal
//     places; float64 is never used for money
//  2. **Aggregate ownership**: an Expense and its collections are loaded,
//     mutated, and persisted as one unit by exactly one caller at a time
//  3. **Avoid circular references**: relationships use ID strings instead
//     of pointers
//
// # Settlement lifecycle
//
// Participant statuses move PENDING -> PAID (terminal). The expense status
// is a monotone rollup: PENDING -> PARTIALLY_SETTLED -> SETTLED. The
// payer's own obligation is created already PAID and never produces a
// transaction.
package models
