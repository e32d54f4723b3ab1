package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"paymate/internal/calculator"
	"paymate/internal/models"
	"paymate/internal/storage"
	"paymate/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "paymate-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestUser(t *testing.T, store storage.Store, email, name string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: "hashed",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExpenseServiceCreate(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	carol := createTestUser(t, store, "carol@example.com", "Carol")

	t.Run("creates equal-split expense with conserved total", func(t *testing.T) {
		expense, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Dinner",
			TotalAmount:    dec("100.00"),
			ParticipantIDs: []string{alice.ID, bob.ID, carol.ID},
			Split:          calculator.EqualSplit{},
		})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if expense.Status != models.ExpensePending {
			t.Errorf("expected new expense PENDING, got %s", expense.Status)
		}
		if expense.SplitType != models.SplitEqual {
			t.Errorf("expected EQUAL split type, got %s", expense.SplitType)
		}

		sum := decimal.Zero
		for _, p := range expense.Participants {
			sum = sum.Add(p.OwedAmount)
		}
		if !sum.Equal(dec("100.00")) {
			t.Errorf("owed amounts sum to %s, want 100.00", sum)
		}

		// Payer's own share is settled up front.
		payer := expense.Participant(alice.ID)
		if payer.Status != models.ParticipantPaid {
			t.Errorf("expected payer PAID, got %s", payer.Status)
		}

		if len(expense.Transactions) != 2 {
			t.Fatalf("expected 2 transfers, got %d", len(expense.Transactions))
		}
		for _, txn := range expense.Transactions {
			if txn.SenderID == alice.ID {
				t.Error("expected no transfer from the payer")
			}
			if txn.ReceiverID != alice.ID {
				t.Errorf("expected transfers toward the payer, got %s", txn.ReceiverID)
			}
		}

		// The aggregate is persisted, not just returned.
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Participants) != 3 || len(got.Transactions) != 2 {
			t.Errorf("persisted aggregate incomplete: %d participants, %d transactions",
				len(got.Participants), len(got.Transactions))
		}
	})

	t.Run("rejects payer missing from participants", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Dinner",
			TotalAmount:    dec("50.00"),
			ParticipantIDs: []string{bob.ID, carol.ID},
			Split:          calculator.EqualSplit{},
		})
		if !errors.Is(err, ErrPayerNotParticipant) {
			t.Errorf("expected ErrPayerNotParticipant, got %v", err)
		}
	})

	t.Run("rejects duplicate participants", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Dinner",
			TotalAmount:    dec("50.00"),
			ParticipantIDs: []string{alice.ID, bob.ID, bob.ID},
			Split:          calculator.EqualSplit{},
		})
		if !errors.Is(err, ErrDuplicateParticipant) {
			t.Errorf("expected ErrDuplicateParticipant, got %v", err)
		}
	})

	t.Run("rejects unknown participant", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Dinner",
			TotalAmount:    dec("50.00"),
			ParticipantIDs: []string{alice.ID, "ghost"},
			Split:          calculator.EqualSplit{},
		})
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("rejects invalid split parameters before writing", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Dinner",
			TotalAmount:    dec("50.00"),
			ParticipantIDs: []string{alice.ID, bob.ID},
			Split:          calculator.PercentageSplit{Percentages: []decimal.Decimal{dec("60"), dec("60")}},
		})
		if !errors.Is(err, calculator.ErrInvalidSplitParameters) {
			t.Errorf("expected ErrInvalidSplitParameters, got %v", err)
		}

		expenses, err := store.ListExpensesByParticipant(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListExpensesByParticipant failed: %v", err)
		}
		for _, e := range expenses {
			if e.Title == "Dinner" && e.SplitType == models.SplitPercentage {
				t.Error("expected rejected expense not to be persisted")
			}
		}
	})

	t.Run("requires payer to be a member of the group", func(t *testing.T) {
		group := &models.Group{Name: "Roommates", CreatedBy: bob.ID, Members: []string{bob.ID, carol.ID}}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		_, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Rent",
			TotalAmount:    dec("900.00"),
			ParticipantIDs: []string{alice.ID, bob.ID},
			GroupID:        group.ID,
			Split:          calculator.EqualSplit{},
		})
		if !errors.Is(err, ErrNotGroupMember) {
			t.Errorf("expected ErrNotGroupMember, got %v", err)
		}
	})
}

func TestExpenseServiceSettle(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	carol := createTestUser(t, store, "carol@example.com", "Carol")

	expense, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
		Title:          "Groceries",
		TotalAmount:    dec("90.00"),
		ParticipantIDs: []string{alice.ID, bob.ID, carol.ID},
		Split:          calculator.EqualSplit{},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("first settlement moves expense to PARTIALLY_SETTLED", func(t *testing.T) {
		settled, err := svc.SettleExpense(ctx, expense.ID, bob.ID)
		if err != nil {
			t.Fatalf("SettleExpense failed: %v", err)
		}
		if settled.Status != models.ExpensePartiallySettled {
			t.Errorf("expected PARTIALLY_SETTLED, got %s", settled.Status)
		}

		p := settled.Participant(bob.ID)
		if p.Status != models.ParticipantPaid {
			t.Errorf("expected bob PAID, got %s", p.Status)
		}
		if !p.PaidAmount.Equal(p.OwedAmount) {
			t.Errorf("expected paid = owed, got %s vs %s", p.PaidAmount, p.OwedAmount)
		}

		// The matching transfer is completed, the other stays pending.
		for _, txn := range settled.Transactions {
			want := models.TransactionPending
			if txn.SenderID == bob.ID {
				want = models.TransactionCompleted
			}
			if txn.Status != want {
				t.Errorf("transaction from %s: expected %s, got %s", txn.SenderID, want, txn.Status)
			}
		}

		// The change survives a reload.
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Status != models.ExpensePartiallySettled {
			t.Errorf("expected persisted PARTIALLY_SETTLED, got %s", got.Status)
		}
	})

	t.Run("settling twice is a no-op", func(t *testing.T) {
		settled, err := svc.SettleExpense(ctx, expense.ID, bob.ID)
		if err != nil {
			t.Fatalf("SettleExpense failed: %v", err)
		}
		if settled.Status != models.ExpensePartiallySettled {
			t.Errorf("expected status unchanged, got %s", settled.Status)
		}
	})

	t.Run("settling the payer changes nothing", func(t *testing.T) {
		settled, err := svc.SettleExpense(ctx, expense.ID, alice.ID)
		if err != nil {
			t.Fatalf("SettleExpense failed: %v", err)
		}
		if settled.Status != models.ExpensePartiallySettled {
			t.Errorf("expected status unchanged, got %s", settled.Status)
		}
	})

	t.Run("last settlement moves expense to SETTLED", func(t *testing.T) {
		settled, err := svc.SettleExpense(ctx, expense.ID, carol.ID)
		if err != nil {
			t.Fatalf("SettleExpense failed: %v", err)
		}
		if settled.Status != models.ExpenseSettled {
			t.Errorf("expected SETTLED, got %s", settled.Status)
		}
		for _, txn := range settled.Transactions {
			if txn.Status != models.TransactionCompleted {
				t.Errorf("expected every transfer COMPLETED, got %s", txn.Status)
			}
			if txn.CompletedAt == 0 {
				t.Error("expected CompletedAt to be set")
			}
		}
	})

	t.Run("unknown participant is rejected", func(t *testing.T) {
		_, err := svc.SettleExpense(ctx, expense.ID, "ghost")
		if !errors.Is(err, calculator.ErrParticipantNotFound) {
			t.Errorf("expected ErrParticipantNotFound, got %v", err)
		}
	})

	t.Run("unknown expense is rejected", func(t *testing.T) {
		_, err := svc.SettleExpense(ctx, "nope", bob.ID)
		if !errors.Is(err, storage.ErrExpenseNotFound) {
			t.Errorf("expected ErrExpenseNotFound, got %v", err)
		}
	})
}

func TestExpenseServiceAccess(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")
	dave := createTestUser(t, store, "dave@example.com", "Dave")

	expense, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
		Title:          "Taxi",
		TotalAmount:    dec("20.00"),
		ParticipantIDs: []string{alice.ID, bob.ID},
		Split:          calculator.EqualSplit{},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("participants can read the expense", func(t *testing.T) {
		got, err := svc.GetExpense(ctx, bob.ID, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.ID != expense.ID {
			t.Errorf("expected expense %s, got %s", expense.ID, got.ID)
		}
	})

	t.Run("outsiders cannot read the expense", func(t *testing.T) {
		_, err := svc.GetExpense(ctx, dave.ID, expense.ID)
		if !errors.Is(err, calculator.ErrParticipantNotFound) {
			t.Errorf("expected ErrParticipantNotFound, got %v", err)
		}
	})

	t.Run("GetUserExpenses lists only the user's expenses", func(t *testing.T) {
		expenses, err := svc.GetUserExpenses(ctx, dave.ID)
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected no expenses for dave, got %d", len(expenses))
		}

		expenses, err = svc.GetUserExpenses(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Errorf("expected 1 expense for bob, got %d", len(expenses))
		}
	})

	t.Run("group expenses require membership", func(t *testing.T) {
		group := &models.Group{Name: "Flat", CreatedBy: alice.ID, Members: []string{alice.ID, bob.ID}}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if _, err := svc.CreateExpense(ctx, alice.ID, CreateExpenseInput{
			Title:          "Internet",
			TotalAmount:    dec("60.00"),
			ParticipantIDs: []string{alice.ID, bob.ID},
			GroupID:        group.ID,
			Split:          calculator.EqualSplit{},
		}); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := svc.GetGroupExpenses(ctx, bob.ID, group.ID)
		if err != nil {
			t.Fatalf("GetGroupExpenses failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Errorf("expected 1 group expense, got %d", len(expenses))
		}

		if _, err := svc.GetGroupExpenses(ctx, dave.ID, group.ID); !errors.Is(err, ErrNotGroupMember) {
			t.Errorf("expected ErrNotGroupMember, got %v", err)
		}
	})
}
