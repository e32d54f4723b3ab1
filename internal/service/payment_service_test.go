package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
	"paymate/internal/storage"
)

// fakeGateway records intents and can be forced to fail.
type fakeGateway struct {
	created int
	fail    bool
}

func (g *fakeGateway) CreateIntent(_ context.Context, _ decimal.Decimal, _ string, _ map[string]string) (*PaymentIntent, error) {
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	g.created++
	id := fmt.Sprintf("pi_fake_%d", g.created)
	return &PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

func TestPaymentServiceCreate(t *testing.T) {
	store := newTestStore(t)
	gateway := &fakeGateway{}
	svc := NewPaymentService(store, gateway)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")

	t.Run("creates intent and pending transaction", func(t *testing.T) {
		result, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{
			ReceiverID:  bob.ID,
			Amount:      dec("30.00"),
			Description: "Concert ticket",
		})
		if err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		if result.PaymentIntentID == "" || result.ClientSecret == "" {
			t.Error("expected intent ID and client secret")
		}

		txn, err := store.GetTransactionByIntent(ctx, result.PaymentIntentID)
		if err != nil {
			t.Fatalf("GetTransactionByIntent failed: %v", err)
		}
		if txn.Status != models.TransactionPending {
			t.Errorf("expected PENDING, got %s", txn.Status)
		}
		if txn.Type != models.TransactionPayment {
			t.Errorf("expected PAYMENT, got %s", txn.Type)
		}
		if !txn.Amount.Equal(dec("30.00")) {
			t.Errorf("expected amount 30.00, got %s", txn.Amount)
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: bob.ID, Amount: dec("0")})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("rejects sub-cent amounts", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: bob.ID, Amount: dec("10.005")})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("rejects unknown receiver", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: "ghost", Amount: dec("10.00")})
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("rejects transfer without receiver", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{Amount: dec("10.00"), Transfer: true})
		if err == nil {
			t.Error("expected error for transfer without receiver")
		}
	})

	t.Run("gateway failure leaves no transaction behind", func(t *testing.T) {
		gateway.fail = true
		defer func() { gateway.fail = false }()

		_, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: bob.ID, Amount: dec("10.00")})
		if err == nil {
			t.Fatal("expected error from failing gateway")
		}
	})
}

func TestPaymentServiceWebhooks(t *testing.T) {
	store := newTestStore(t)
	svc := NewPaymentService(store, &fakeGateway{})
	ctx := context.Background()

	alice := createTestUser(t, store, "alice@example.com", "Alice")
	bob := createTestUser(t, store, "bob@example.com", "Bob")

	t.Run("success completes the payment", func(t *testing.T) {
		result, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: bob.ID, Amount: dec("15.00")})
		if err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		if err := svc.HandlePaymentSuccess(ctx, result.PaymentIntentID); err != nil {
			t.Fatalf("HandlePaymentSuccess failed: %v", err)
		}

		txn, err := store.GetTransactionByIntent(ctx, result.PaymentIntentID)
		if err != nil {
			t.Fatalf("GetTransactionByIntent failed: %v", err)
		}
		if txn.Status != models.TransactionCompleted {
			t.Errorf("expected COMPLETED, got %s", txn.Status)
		}
		if txn.CompletedAt == 0 {
			t.Error("expected CompletedAt to be set")
		}

		// Plain payments never touch wallet balances.
		sender, _ := store.GetUserByID(ctx, alice.ID)
		if !sender.Balance.IsZero() {
			t.Errorf("expected untouched balance, got %s", sender.Balance)
		}
	})

	t.Run("transfer success moves wallet balances", func(t *testing.T) {
		result, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{
			ReceiverID: bob.ID,
			Amount:     dec("50.00"),
			Transfer:   true,
		})
		if err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		if err := svc.HandlePaymentSuccess(ctx, result.PaymentIntentID); err != nil {
			t.Fatalf("HandlePaymentSuccess failed: %v", err)
		}

		sender, _ := store.GetUserByID(ctx, alice.ID)
		receiver, _ := store.GetUserByID(ctx, bob.ID)
		if !sender.Balance.Equal(dec("-50.00")) {
			t.Errorf("expected sender balance -50.00, got %s", sender.Balance)
		}
		if !receiver.Balance.Equal(dec("50.00")) {
			t.Errorf("expected receiver balance 50.00, got %s", receiver.Balance)
		}

		// Repeated delivery of the same event changes nothing.
		if err := svc.HandlePaymentSuccess(ctx, result.PaymentIntentID); err != nil {
			t.Fatalf("repeated HandlePaymentSuccess failed: %v", err)
		}
		sender, _ = store.GetUserByID(ctx, alice.ID)
		if !sender.Balance.Equal(dec("-50.00")) {
			t.Errorf("expected balance unchanged after replay, got %s", sender.Balance)
		}
	})

	t.Run("failure marks the payment FAILED", func(t *testing.T) {
		result, err := svc.CreatePayment(ctx, alice.ID, PaymentInput{ReceiverID: bob.ID, Amount: dec("5.00")})
		if err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		if err := svc.HandlePaymentFailure(ctx, result.PaymentIntentID, "card_declined"); err != nil {
			t.Fatalf("HandlePaymentFailure failed: %v", err)
		}

		txn, err := store.GetTransactionByIntent(ctx, result.PaymentIntentID)
		if err != nil {
			t.Fatalf("GetTransactionByIntent failed: %v", err)
		}
		if txn.Status != models.TransactionFailed {
			t.Errorf("expected FAILED, got %s", txn.Status)
		}

		// A late success event for a failed payment is ignored.
		if err := svc.HandlePaymentSuccess(ctx, result.PaymentIntentID); err != nil {
			t.Fatalf("HandlePaymentSuccess failed: %v", err)
		}
		txn, _ = store.GetTransactionByIntent(ctx, result.PaymentIntentID)
		if txn.Status != models.TransactionFailed {
			t.Errorf("expected status to stay FAILED, got %s", txn.Status)
		}
	})

	t.Run("unknown intent is rejected", func(t *testing.T) {
		err := svc.HandlePaymentSuccess(ctx, "pi_nope")
		if !errors.Is(err, storage.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}
