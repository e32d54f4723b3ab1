// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"paymate/internal/models"
)

// Lookup failures are sentinel errors so callers can map them to
// responses with errors.Is without inspecting messages.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Store defines the interface for PayMate storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	// The user.ID field will be populated by the store if empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns ErrUserNotFound if no account exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns ErrUserNotFound if no account exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves the given users keyed by ID. IDs with no
	// matching account are simply absent from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group with its member list.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID, members included.
	// Returns ErrGroupNotFound if the group does not exist.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// ListGroupsByMember retrieves every group the user belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// CreateExpense persists a fully-formed expense aggregate — the
	// expense row, all participant obligations, and all derived
	// transactions — in a single transaction, so a failure never
	// leaves a partially-allocated expense behind.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense aggregate by ID.
	// Returns ErrExpenseNotFound if the expense does not exist.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// ListExpensesByParticipant retrieves every expense the user is a
	// participant of, newest first.
	ListExpensesByParticipant(ctx context.Context, userID string) ([]*models.Expense, error)

	// ListExpensesByGroup retrieves a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SaveSettlement writes an already-settled aggregate back: the
	// participant statuses, transaction statuses, and expense status,
	// all in one transaction.
	SaveSettlement(ctx context.Context, expense *models.Expense) error

	// CreateTransaction persists a standalone (non-expense) transaction.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// GetTransactionByIntent retrieves the transaction created for a
	// payment-gateway intent. Returns ErrTransactionNotFound if no
	// transaction references the intent.
	GetTransactionByIntent(ctx context.Context, paymentIntentID string) (*models.Transaction, error)

	// UpdateTransactionStatus sets the status and completion time of a
	// transaction.
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, completedAt int64) error

	// ApplyTransfer marks a TRANSFER transaction completed and moves
	// the amount between the sender's and receiver's wallet balances,
	// all in one transaction.
	ApplyTransfer(ctx context.Context, txn *models.Transaction, completedAt int64) error

	// Close releases any resources held by the store.
	Close() error
}
