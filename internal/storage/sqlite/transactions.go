package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paymate/internal/models"
	"paymate/internal/storage"
)

// CreateTransaction persists a standalone (non-expense) transaction, such
// as a gateway payment or a wallet transfer.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, sender_id, receiver_id, amount, type, status, description, expense_id, payment_intent_id, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.SenderID, nullString(txn.ReceiverID), txn.Amount,
		string(txn.Type), string(txn.Status), nullString(txn.Description),
		nullString(txn.ExpenseID), nullString(txn.PaymentIntentID),
		txn.CreatedAt, nullInt(txn.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransactionByIntent retrieves the transaction created for a payment
// gateway intent.
func (s *SQLiteStore) GetTransactionByIntent(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, amount, type, status, description, payment_intent_id, created_at, completed_at
		FROM transactions
		WHERE payment_intent_id = ?`,
		paymentIntentID,
	)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransactionStatus sets the status and completion time of a
// transaction.
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, completedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = ?, completed_at = ? WHERE id = ?",
		string(status), nullInt(completedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrTransactionNotFound
	}
	return nil
}

// ApplyTransfer marks a TRANSFER transaction completed and moves the
// amount from the sender's wallet to the receiver's, all in one database
// transaction.
func (s *SQLiteStore) ApplyTransfer(ctx context.Context, txn *models.Transaction, completedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE transactions SET status = ?, completed_at = ? WHERE id = ?",
		string(models.TransactionCompleted), completedAt, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrTransactionNotFound
	}

	if err := adjustBalance(ctx, tx, txn.SenderID, txn.Amount.Neg()); err != nil {
		return err
	}
	if err := adjustBalance(ctx, tx, txn.ReceiverID, txn.Amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var receiverID, description, intentID sql.NullString
	var completedAt sql.NullInt64

	err := row.Scan(
		&txn.ID, &txn.SenderID, &receiverID, &txn.Amount, &txn.Type,
		&txn.Status, &description, &intentID, &txn.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.ReceiverID = receiverID.String
	txn.Description = description.String
	txn.PaymentIntentID = intentID.String
	txn.CompletedAt = completedAt.Int64
	return txn, nil
}
