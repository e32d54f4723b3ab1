package models

import "github.com/shopspring/decimal"

// TransactionType distinguishes how a money movement originated.
type TransactionType string

const (
	// TransactionExpenseSplit is a transfer derived from an expense
	// allocation: a participant paying the payer back.
	TransactionExpenseSplit TransactionType = "EXPENSE_SPLIT"

	// TransactionPayment is a standalone payment through the payment
	// gateway, unrelated to any expense.
	TransactionPayment TransactionType = "PAYMENT"

	// TransactionTransfer is a direct wallet-to-wallet transfer between
	// two users.
	TransactionTransfer TransactionType = "TRANSFER"
)

// TransactionStatus is the lifecycle state of a transaction.
// Expense-split transactions only ever use PENDING and COMPLETED;
// FAILED is reserved for gateway-backed payments.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Transaction is a pending or completed money movement between two users.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// SenderID is the user the money moves from.
	SenderID string `json:"sender_id"`

	// ReceiverID is the user the money moves to. Empty for gateway
	// payments with no in-app receiver.
	ReceiverID string `json:"receiver_id,omitempty"`

	// Amount is the transaction amount, fixed to 2 decimal places.
	Amount decimal.Decimal `json:"amount"`

	// Type records how the transaction originated.
	Type TransactionType `json:"type"`

	// Status is the current lifecycle state.
	Status TransactionStatus `json:"status"`

	// Description is a human-readable note, e.g. "Payment for: Dinner".
	Description string `json:"description,omitempty"`

	// ExpenseID links an EXPENSE_SPLIT transaction to its originating
	// expense. Empty for standalone payments and transfers.
	ExpenseID string `json:"expense_id,omitempty"`

	// PaymentIntentID is the gateway's intent identifier for
	// gateway-backed payments. Empty for expense splits.
	PaymentIntentID string `json:"payment_intent_id,omitempty"`

	// CreatedAt is the Unix timestamp when the transaction was created.
	CreatedAt int64 `json:"created_at"`

	// CompletedAt is the Unix timestamp when the transaction reached a
	// terminal status, or zero while pending.
	CompletedAt int64 `json:"completed_at,omitempty"`
}
