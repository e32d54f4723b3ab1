package models

import "github.com/shopspring/decimal"

// SplitType identifies how an expense total is divided among participants.
type SplitType string

const (
	SplitEqual       SplitType = "EQUAL"
	SplitPercentage  SplitType = "PERCENTAGE"
	SplitExactAmount SplitType = "EXACT_AMOUNT"
	SplitShares      SplitType = "SHARES"
)

// ExpenseStatus is the expense-level rollup of all participant statuses.
// It only ever moves forward: PENDING -> PARTIALLY_SETTLED -> SETTLED.
type ExpenseStatus string

const (
	ExpensePending          ExpenseStatus = "PENDING"
	ExpensePartiallySettled ExpenseStatus = "PARTIALLY_SETTLED"
	ExpenseSettled          ExpenseStatus = "SETTLED"
)

// ParticipantStatus tracks one participant's payoff state.
// PAID is terminal; there is no unsettle operation.
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "PENDING"
	ParticipantPaid    ParticipantStatus = "PAID"
)

// Expense represents a shared expense split among participants.
// The expense owns its participant and transaction collections: they are
// loaded and persisted together, and only one caller may mutate the
// aggregate at a time.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Title is the human-readable name for the expense.
	Title string `json:"title"`

	// Description is an optional free-form note.
	Description string `json:"description,omitempty"`

	// TotalAmount is the full expense amount, fixed to 2 decimal places.
	// The participant owed amounts always sum to exactly this value.
	TotalAmount decimal.Decimal `json:"total_amount"`

	// PayerID is the user who paid the expense up front.
	PayerID string `json:"payer_id"`

	// SplitType records which strategy produced the participant amounts.
	SplitType SplitType `json:"split_type"`

	// Status is the aggregate settlement status.
	Status ExpenseStatus `json:"status"`

	// GroupID optionally links the expense to a group. Empty for
	// one-off expenses between individuals.
	GroupID string `json:"group_id,omitempty"`

	// Participants are the per-user obligations, in allocation order.
	Participants []ExpenseParticipant `json:"participants"`

	// Transactions are the transfer records derived from the
	// allocation, one per non-payer participant.
	Transactions []Transaction `json:"transactions"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"created_at"`
}

// Participant returns the obligation for the given user, or nil if the
// user is not part of the expense.
func (e *Expense) Participant(userID string) *ExpenseParticipant {
	for i := range e.Participants {
		if e.Participants[i].UserID == userID {
			return &e.Participants[i]
		}
	}
	return nil
}

// ExpenseParticipant is one participant's obligation on an expense.
// PaidAmount is always either zero or equal to OwedAmount: partial
// payoffs are not modeled.
type ExpenseParticipant struct {
	// ID is the unique identifier for the obligation (UUID format).
	ID string `json:"id"`

	// ExpenseID links back to the owning expense.
	ExpenseID string `json:"expense_id"`

	// UserID is the participant this obligation belongs to.
	UserID string `json:"user_id"`

	// OwedAmount is this participant's computed share of the total.
	OwedAmount decimal.Decimal `json:"owed_amount"`

	// PaidAmount is zero while PENDING and equals OwedAmount once PAID.
	PaidAmount decimal.Decimal `json:"paid_amount"`

	// Percentage is the requested percentage for PERCENTAGE splits.
	// Retained for audit and display only; zero for other split types.
	Percentage decimal.Decimal `json:"percentage,omitempty"`

	// Shares is the requested share count for SHARES splits.
	// Retained for audit and display only; zero for other split types.
	Shares int64 `json:"shares,omitempty"`

	// Status is PENDING until the participant settles, then PAID.
	Status ParticipantStatus `json:"status"`
}
