package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paymate/internal/models"
	"paymate/internal/storage"
)

// CreateExpense persists the full expense aggregate in one transaction:
// the expense row, every participant obligation, and every derived
// transaction. IDs and timestamps are generated here if not set.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, title, description, total_amount, payer_id, split_type, status, group_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Title, nullString(expense.Description), expense.TotalAmount,
		expense.PayerID, string(expense.SplitType), string(expense.Status),
		nullString(expense.GroupID), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Participants {
		p := &expense.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.ExpenseID = expense.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO expense_participants (id, expense_id, user_id, position, owed_amount, paid_amount, percentage, shares, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ExpenseID, p.UserID, i, p.OwedAmount, p.PaidAmount,
			nullDecimal(p.Percentage), nullInt(p.Shares), string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range expense.Transactions {
		txn := &expense.Transactions[i]
		if txn.ID == "" {
			txn.ID = uuid.New().String()
		}
		if txn.CreatedAt == 0 {
			txn.CreatedAt = expense.CreatedAt
		}

		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense aggregate by ID, participants in
// allocation order and transactions included.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	var description, groupID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, total_amount, payer_id, split_type, status, group_id, created_at
		FROM expenses WHERE id = ?`,
		id,
	).Scan(
		&expense.ID, &expense.Title, &description, &expense.TotalAmount,
		&expense.PayerID, &expense.SplitType, &expense.Status, &groupID, &expense.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Description = description.String
	expense.GroupID = groupID.String

	if err := s.loadParticipants(ctx, expense); err != nil {
		return nil, err
	}
	if err := s.loadTransactions(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, owed_amount, paid_amount, percentage, shares, status
		FROM expense_participants
		WHERE expense_id = ?
		ORDER BY position`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := models.ExpenseParticipant{ExpenseID: expense.ID}
		var percentage sql.NullString
		var shares sql.NullInt64
		if err := rows.Scan(&p.ID, &p.UserID, &p.OwedAmount, &p.PaidAmount, &percentage, &shares, &p.Status); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if percentage.Valid {
			p.Percentage, err = decimal.NewFromString(percentage.String)
			if err != nil {
				return fmt.Errorf("failed to parse percentage: %w", err)
			}
		}
		p.Shares = shares.Int64
		expense.Participants = append(expense.Participants, p)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadTransactions(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, amount, type, status, description, payment_intent_id, created_at, completed_at
		FROM transactions
		WHERE expense_id = ?
		ORDER BY created_at, id`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return err
		}
		txn.ExpenseID = expense.ID
		expense.Transactions = append(expense.Transactions, *txn)
	}
	return rows.Err()
}

// ListExpensesByParticipant retrieves every expense the user participates
// in, newest first.
func (s *SQLiteStore) ListExpensesByParticipant(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx, `
		SELECT e.id FROM expenses e
		JOIN expense_participants ep ON ep.expense_id = e.id
		WHERE ep.user_id = ?
		ORDER BY e.created_at DESC, e.id`,
		userID,
	)
}

// ListExpensesByGroup retrieves a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT id FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, arg any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, nil
}

// SaveSettlement writes a settled aggregate's mutable state back in one
// transaction: participant paid amounts and statuses, transaction
// statuses, and the expense status.
func (s *SQLiteStore) SaveSettlement(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET status = ? WHERE id = ?",
		string(expense.Status), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrExpenseNotFound
	}

	for _, p := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"UPDATE expense_participants SET paid_amount = ?, status = ? WHERE id = ?",
			p.PaidAmount, string(p.Status), p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update participant: %w", err)
		}
	}

	for _, txn := range expense.Transactions {
		_, err = tx.ExecContext(ctx,
			"UPDATE transactions SET status = ?, completed_at = ? WHERE id = ?",
			string(txn.Status), nullInt(txn.CompletedAt), txn.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullDecimal(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d
}
