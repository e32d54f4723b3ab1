package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
	"paymate/internal/storage"
)

// ErrInvalidAmount is returned for non-positive or sub-cent payment
// amounts.
var ErrInvalidAmount = errors.New("amount must be a positive number of cents")

// PaymentIntent is the gateway's handle for a payment in progress.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentGateway is the port to the external payment processor. The
// processor confirms or rejects intents asynchronously; its webhooks are
// translated into HandlePaymentSuccess / HandlePaymentFailure calls.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error)
}

// PaymentService manages standalone (non-expense) payments and wallet
// transfers through the payment gateway.
type PaymentService struct {
	store   storage.Store
	gateway PaymentGateway
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store storage.Store, gateway PaymentGateway) *PaymentService {
	return &PaymentService{store: store, gateway: gateway}
}

// PaymentInput describes a payment to initiate.
type PaymentInput struct {
	// ReceiverID is the in-app receiver. Required for transfers,
	// optional for plain payments.
	ReceiverID string

	// Amount is the payment amount, 2 decimal places.
	Amount decimal.Decimal

	// Description is a free-form note attached to the transaction.
	Description string

	// Transfer marks the payment as a wallet-to-wallet transfer whose
	// completion moves balances.
	Transfer bool
}

// PaymentResult is returned to the client so it can complete the payment
// with the gateway.
type PaymentResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// CreatePayment creates a gateway payment intent and records the matching
// PENDING transaction.
func (s *PaymentService) CreatePayment(ctx context.Context, senderID string, in PaymentInput) (*PaymentResult, error) {
	if !in.Amount.IsPositive() || !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, in.Amount)
	}

	if _, err := s.store.GetUserByID(ctx, senderID); err != nil {
		return nil, err
	}
	if in.Transfer && in.ReceiverID == "" {
		return nil, fmt.Errorf("%w: transfer requires a receiver", storage.ErrUserNotFound)
	}
	if in.ReceiverID != "" {
		if _, err := s.store.GetUserByID(ctx, in.ReceiverID); err != nil {
			return nil, err
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, in.Amount, "usd", map[string]string{
		"user_id":     senderID,
		"receiver_id": in.ReceiverID,
		"description": in.Description,
	})
	if err != nil {
		slog.Error("payment intent creation failed", "sender_id", senderID, "error", err)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	txnType := models.TransactionPayment
	if in.Transfer {
		txnType = models.TransactionTransfer
	}
	txn := &models.Transaction{
		SenderID:        senderID,
		ReceiverID:      in.ReceiverID,
		Amount:          in.Amount,
		Type:            txnType,
		Status:          models.TransactionPending,
		Description:     in.Description,
		PaymentIntentID: intent.ID,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	slog.Info("Payment intent created",
		"transaction_id", txn.ID,
		"payment_intent_id", intent.ID,
		"type", txnType,
		"amount", in.Amount,
	)
	return &PaymentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		TransactionID:   txn.ID,
		Amount:          in.Amount,
	}, nil
}

// HandlePaymentSuccess completes the transaction behind a confirmed
// payment intent. For transfers it also moves wallet balances. Repeated
// notifications for the same intent are no-ops.
func (s *PaymentService) HandlePaymentSuccess(ctx context.Context, paymentIntentID string) error {
	txn, err := s.store.GetTransactionByIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if txn.Status != models.TransactionPending {
		slog.Info("payment notification for non-pending transaction ignored",
			"transaction_id", txn.ID, "status", txn.Status)
		return nil
	}

	now := time.Now().Unix()
	if txn.Type == models.TransactionTransfer && txn.ReceiverID != "" {
		if err := s.store.ApplyTransfer(ctx, txn, now); err != nil {
			return err
		}
	} else {
		if err := s.store.UpdateTransactionStatus(ctx, txn.ID, models.TransactionCompleted, now); err != nil {
			return err
		}
	}

	slog.Info("Payment completed", "transaction_id", txn.ID, "payment_intent_id", paymentIntentID)
	return nil
}

// HandlePaymentFailure marks the transaction behind a rejected payment
// intent as FAILED. Repeated notifications are no-ops.
func (s *PaymentService) HandlePaymentFailure(ctx context.Context, paymentIntentID, reason string) error {
	txn, err := s.store.GetTransactionByIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if txn.Status != models.TransactionPending {
		return nil
	}

	if err := s.store.UpdateTransactionStatus(ctx, txn.ID, models.TransactionFailed, time.Now().Unix()); err != nil {
		return err
	}

	slog.Warn("Payment failed",
		"transaction_id", txn.ID,
		"payment_intent_id", paymentIntentID,
		"reason", reason,
	)
	return nil
}
