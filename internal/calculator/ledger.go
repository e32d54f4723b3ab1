package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
)

var (
	// ErrParticipantNotFound is returned when settling a user that is
	// not part of the expense.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrAggregateInconsistent is a defensive check: allocation
	// guarantees conservation, so seeing this means a regression in
	// the allocator, not bad input.
	ErrAggregateInconsistent = errors.New("allocated amounts do not sum to the expense total")
)

// BuildParticipants turns an allocation into the expense's obligation
// records. The payer's own obligation is created already PAID with
// paidAmount = owedAmount: paying yourself back is implicit. Everyone
// else starts PENDING with nothing paid.
func BuildParticipants(expenseID, payerID string, allocations []Allocation) []models.ExpenseParticipant {
	participants := make([]models.ExpenseParticipant, len(allocations))
	for i, alloc := range allocations {
		p := models.ExpenseParticipant{
			ExpenseID:  expenseID,
			UserID:     alloc.UserID,
			OwedAmount: alloc.Amount,
			PaidAmount: decimal.Zero,
			Percentage: alloc.Percentage,
			Shares:     alloc.Shares,
			Status:     models.ParticipantPending,
		}
		if alloc.UserID == payerID {
			p.Status = models.ParticipantPaid
			p.PaidAmount = alloc.Amount
		}
		participants[i] = p
	}
	return participants
}

// DeriveTransfers creates one PENDING transaction per PENDING obligation:
// that participant paying the payer back. The payer's own obligation never
// produces a transfer. Callers invoke this at allocation time, so each
// (expense, sender, receiver) triple occurs at most once.
func DeriveTransfers(expense *models.Expense) []models.Transaction {
	var transfers []models.Transaction
	for _, p := range expense.Participants {
		if p.Status != models.ParticipantPending {
			continue
		}
		transfers = append(transfers, models.Transaction{
			SenderID:    p.UserID,
			ReceiverID:  expense.PayerID,
			Amount:      p.OwedAmount,
			Type:        models.TransactionExpenseSplit,
			Status:      models.TransactionPending,
			Description: "Payment for: " + expense.Title,
			ExpenseID:   expense.ID,
			CreatedAt:   expense.CreatedAt,
		})
	}
	return transfers
}

// VerifyConservation asserts that the participant owed amounts sum exactly
// to the expense total.
func VerifyConservation(total decimal.Decimal, participants []models.ExpenseParticipant) error {
	sum := decimal.Zero
	for _, p := range participants {
		sum = sum.Add(p.OwedAmount)
	}
	if !sum.Equal(total) {
		return fmt.Errorf("%w: owed %s, total %s", ErrAggregateInconsistent, sum, total)
	}
	return nil
}

// SettleResult reports what a settlement changed.
type SettleResult struct {
	// Changed is false when the participant was already PAID and the
	// call was a no-op.
	Changed bool

	// Transfer is the transaction completed by this settlement, or nil
	// when none matched. Nil is expected for the payer's own
	// obligation, which never had a transfer.
	Transfer *models.Transaction
}

// SettleParticipant marks the given user's obligation PAID, completes the
// matching transfer, and recomputes the aggregate status. Settling an
// already-PAID participant is a successful no-op, so retried requests can
// never double-credit. The caller must hold exclusive access to the
// expense aggregate for the duration of the call.
func SettleParticipant(expense *models.Expense, userID string) (SettleResult, error) {
	participant := expense.Participant(userID)
	if participant == nil {
		return SettleResult{}, fmt.Errorf("%w: user %s on expense %s", ErrParticipantNotFound, userID, expense.ID)
	}

	if participant.Status == models.ParticipantPaid {
		return SettleResult{}, nil
	}

	participant.Status = models.ParticipantPaid
	participant.PaidAmount = participant.OwedAmount

	result := SettleResult{Changed: true}
	for i := range expense.Transactions {
		txn := &expense.Transactions[i]
		if txn.ExpenseID == expense.ID &&
			txn.SenderID == userID &&
			txn.ReceiverID == expense.PayerID &&
			txn.Status == models.TransactionPending {
			txn.Status = models.TransactionCompleted
			result.Transfer = txn
			break
		}
	}

	expense.Status = AggregateStatus(expense.Participants)
	return result, nil
}

// AggregateStatus rolls the participant statuses up into the expense
// status: SETTLED when every obligation is PAID, PARTIALLY_SETTLED when at
// least one is, PENDING otherwise. Because PAID is terminal the rollup
// only ever moves forward.
func AggregateStatus(participants []models.ExpenseParticipant) models.ExpenseStatus {
	paid := 0
	for _, p := range participants {
		if p.Status == models.ParticipantPaid {
			paid++
		}
	}
	switch {
	case paid == len(participants) && len(participants) > 0:
		return models.ExpenseSettled
	case paid > 0:
		return models.ExpensePartiallySettled
	default:
		return models.ExpensePending
	}
}
