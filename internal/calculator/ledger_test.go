package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
)

// newTestExpense allocates an EQUAL split of 100.00 for alice, bob and
// carol with alice paying, then builds the full aggregate the way the
// expense service does.
func newTestExpense(t *testing.T) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		ID:          "exp-1",
		Title:       "Dinner",
		TotalAmount: dec("100.00"),
		PayerID:     "alice",
		SplitType:   models.SplitEqual,
		Status:      models.ExpensePending,
		CreatedAt:   1700000000,
	}

	allocations, err := Allocate(expense.TotalAmount, []string{"alice", "bob", "carol"}, EqualSplit{})
	if err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	expense.Participants = BuildParticipants(expense.ID, expense.PayerID, allocations)
	expense.Transactions = DeriveTransfers(expense)
	expense.Status = AggregateStatus(expense.Participants)
	return expense
}

func TestBuildParticipants_PayerPrePaid(t *testing.T) {
	expense := newTestExpense(t)

	payer := expense.Participant("alice")
	if payer == nil {
		t.Fatal("payer obligation missing")
	}
	if payer.Status != models.ParticipantPaid {
		t.Errorf("payer status = %s, want PAID", payer.Status)
	}
	if !payer.PaidAmount.Equal(payer.OwedAmount) {
		t.Errorf("payer paid %s, want owed amount %s", payer.PaidAmount, payer.OwedAmount)
	}

	for _, name := range []string{"bob", "carol"} {
		p := expense.Participant(name)
		if p == nil {
			t.Fatalf("obligation for %s missing", name)
		}
		if p.Status != models.ParticipantPending {
			t.Errorf("%s status = %s, want PENDING", name, p.Status)
		}
		if !p.PaidAmount.IsZero() {
			t.Errorf("%s paid %s, want 0", name, p.PaidAmount)
		}
	}
}

func TestDeriveTransfers_ExcludesPayer(t *testing.T) {
	expense := newTestExpense(t)

	if len(expense.Transactions) != 2 {
		t.Fatalf("got %d transfers, want 2", len(expense.Transactions))
	}
	for _, txn := range expense.Transactions {
		if txn.SenderID == expense.PayerID {
			t.Errorf("payer %s must not appear as a transfer sender", expense.PayerID)
		}
		if txn.ReceiverID != expense.PayerID {
			t.Errorf("transfer receiver = %s, want payer %s", txn.ReceiverID, expense.PayerID)
		}
		if txn.Type != models.TransactionExpenseSplit {
			t.Errorf("transfer type = %s, want EXPENSE_SPLIT", txn.Type)
		}
		if txn.Status != models.TransactionPending {
			t.Errorf("transfer status = %s, want PENDING", txn.Status)
		}
		sender := expense.Participant(txn.SenderID)
		if sender == nil {
			t.Fatalf("transfer sender %s has no obligation", txn.SenderID)
		}
		if !txn.Amount.Equal(sender.OwedAmount) {
			t.Errorf("transfer amount %s, want owed amount %s", txn.Amount, sender.OwedAmount)
		}
	}
}

func TestVerifyConservation(t *testing.T) {
	expense := newTestExpense(t)

	if err := VerifyConservation(expense.TotalAmount, expense.Participants); err != nil {
		t.Errorf("VerifyConservation() failed on a valid aggregate: %v", err)
	}

	// Corrupt one obligation and check the defensive error fires.
	expense.Participants[0].OwedAmount = expense.Participants[0].OwedAmount.Add(dec("0.01"))
	err := VerifyConservation(expense.TotalAmount, expense.Participants)
	if !errors.Is(err, ErrAggregateInconsistent) {
		t.Errorf("VerifyConservation() error = %v, want ErrAggregateInconsistent", err)
	}
}

func TestSettleParticipant(t *testing.T) {
	t.Run("settling one of two debtors partially settles", func(t *testing.T) {
		expense := newTestExpense(t)

		result, err := SettleParticipant(expense, "bob")
		if err != nil {
			t.Fatalf("SettleParticipant() failed: %v", err)
		}
		if !result.Changed {
			t.Error("expected settlement to report a change")
		}
		if result.Transfer == nil {
			t.Fatal("expected a completed transfer")
		}
		if result.Transfer.Status != models.TransactionCompleted {
			t.Errorf("transfer status = %s, want COMPLETED", result.Transfer.Status)
		}

		bob := expense.Participant("bob")
		if bob.Status != models.ParticipantPaid {
			t.Errorf("bob status = %s, want PAID", bob.Status)
		}
		if !bob.PaidAmount.Equal(bob.OwedAmount) {
			t.Errorf("bob paid %s, want %s", bob.PaidAmount, bob.OwedAmount)
		}
		if expense.Status != models.ExpensePartiallySettled {
			t.Errorf("expense status = %s, want PARTIALLY_SETTLED", expense.Status)
		}
	})

	t.Run("settling every debtor settles the expense", func(t *testing.T) {
		expense := newTestExpense(t)

		for _, name := range []string{"bob", "carol"} {
			if _, err := SettleParticipant(expense, name); err != nil {
				t.Fatalf("SettleParticipant(%s) failed: %v", name, err)
			}
		}
		if expense.Status != models.ExpenseSettled {
			t.Errorf("expense status = %s, want SETTLED", expense.Status)
		}
		for _, txn := range expense.Transactions {
			if txn.Status != models.TransactionCompleted {
				t.Errorf("transfer from %s status = %s, want COMPLETED", txn.SenderID, txn.Status)
			}
		}
	})

	t.Run("settle is idempotent", func(t *testing.T) {
		expense := newTestExpense(t)

		if _, err := SettleParticipant(expense, "bob"); err != nil {
			t.Fatalf("first settle failed: %v", err)
		}
		statusBefore := expense.Status
		paidBefore := expense.Participant("bob").PaidAmount

		result, err := SettleParticipant(expense, "bob")
		if err != nil {
			t.Fatalf("second settle failed: %v", err)
		}
		if result.Changed {
			t.Error("second settle must be a no-op")
		}
		if expense.Status != statusBefore {
			t.Errorf("second settle changed status: %s -> %s", statusBefore, expense.Status)
		}
		if !expense.Participant("bob").PaidAmount.Equal(paidBefore) {
			t.Error("second settle changed paid amount")
		}
	})

	t.Run("settling the payer is a no-op with no transfer", func(t *testing.T) {
		expense := newTestExpense(t)

		result, err := SettleParticipant(expense, "alice")
		if err != nil {
			t.Fatalf("SettleParticipant(payer) failed: %v", err)
		}
		if result.Changed {
			t.Error("payer was PAID at creation, settle must not change anything")
		}
		if result.Transfer != nil {
			t.Error("payer settlement must not complete a transfer")
		}
	})

	t.Run("unknown participant fails without mutating state", func(t *testing.T) {
		expense := newTestExpense(t)

		_, err := SettleParticipant(expense, "mallory")
		if !errors.Is(err, ErrParticipantNotFound) {
			t.Fatalf("error = %v, want ErrParticipantNotFound", err)
		}
		if expense.Status != models.ExpensePending {
			t.Errorf("failed settle changed status to %s", expense.Status)
		}
	})

	t.Run("settled aggregate status never regresses", func(t *testing.T) {
		expense := newTestExpense(t)

		for _, name := range []string{"bob", "carol"} {
			if _, err := SettleParticipant(expense, name); err != nil {
				t.Fatalf("SettleParticipant(%s) failed: %v", name, err)
			}
		}
		for _, name := range []string{"alice", "bob", "carol"} {
			if _, err := SettleParticipant(expense, name); err != nil {
				t.Fatalf("repeat settle(%s) failed: %v", name, err)
			}
			if expense.Status != models.ExpenseSettled {
				t.Errorf("status regressed to %s after settling %s", expense.Status, name)
			}
		}
	})
}

func TestAggregateStatus(t *testing.T) {
	paid := models.ExpenseParticipant{Status: models.ParticipantPaid, OwedAmount: decimal.Zero, PaidAmount: decimal.Zero}
	pending := models.ExpenseParticipant{Status: models.ParticipantPending, OwedAmount: decimal.Zero, PaidAmount: decimal.Zero}

	tests := []struct {
		name         string
		participants []models.ExpenseParticipant
		want         models.ExpenseStatus
	}{
		{"all pending", []models.ExpenseParticipant{pending, pending}, models.ExpensePending},
		{"one of three paid", []models.ExpenseParticipant{paid, pending, pending}, models.ExpensePartiallySettled},
		{"all paid", []models.ExpenseParticipant{paid, paid, paid}, models.ExpenseSettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateStatus(tt.participants); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
