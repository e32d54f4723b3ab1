package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paymate/internal/calculator"
	"paymate/internal/models"
	"paymate/internal/storage"
)

var (
	// ErrPayerNotParticipant is returned when the payer is not in the
	// participant list.
	ErrPayerNotParticipant = errors.New("payer must be one of the participants")

	// ErrDuplicateParticipant is returned when the same user appears
	// twice in the participant list. Allowing duplicates would break
	// the one-transfer-per-sender guarantee settlement relies on.
	ErrDuplicateParticipant = errors.New("duplicate participant")

	// ErrNotGroupMember is returned when a user acts on a group they
	// do not belong to.
	ErrNotGroupMember = errors.New("user is not a member of this group")
)

// ExpenseService orchestrates expense allocation and settlement over the
// storage backend. Settlements for the same expense are serialized with a
// per-expense lock so concurrent settle calls cannot race on the
// aggregate status recomputation.
type ExpenseService struct {
	store storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockExpense returns the mutex serializing settlement of one expense.
// Locks are never evicted; the map grows with the number of distinct
// expenses settled by this process, a few dozen bytes each.
func (s *ExpenseService) lockExpense(expenseID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[expenseID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[expenseID] = m
	}
	return m
}

// CreateExpenseInput carries everything needed to allocate a new expense.
type CreateExpenseInput struct {
	Title          string
	Description    string
	TotalAmount    decimal.Decimal
	ParticipantIDs []string
	GroupID        string
	Split          calculator.Split
}

// CreateExpense validates the request, allocates the total among the
// participants, derives the transfer records, and persists the whole
// aggregate atomically. Any validation failure aborts before anything is
// written, so a partially-allocated expense is never observable.
func (s *ExpenseService) CreateExpense(ctx context.Context, payerID string, in CreateExpenseInput) (*models.Expense, error) {
	if _, err := s.store.GetUserByID(ctx, payerID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(in.ParticipantIDs))
	payerIncluded := false
	for _, id := range in.ParticipantIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = true
		if id == payerID {
			payerIncluded = true
		}
	}
	if !payerIncluded {
		return nil, ErrPayerNotParticipant
	}

	users, err := s.store.GetUsersByIDs(ctx, in.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range in.ParticipantIDs {
		if users[id] == nil {
			return nil, fmt.Errorf("%w: %s", storage.ErrUserNotFound, id)
		}
	}

	if in.GroupID != "" {
		group, err := s.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(payerID) {
			return nil, ErrNotGroupMember
		}
	}

	allocations, err := calculator.Allocate(in.TotalAmount, in.ParticipantIDs, in.Split)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		TotalAmount: in.TotalAmount,
		PayerID:     payerID,
		SplitType:   in.Split.Type(),
		// The aggregate status is only ever advanced by settlement;
		// the payer's pre-paid obligation does not count as progress.
		Status:  models.ExpensePending,
		GroupID: in.GroupID,
	}
	expense.Participants = calculator.BuildParticipants(expense.ID, payerID, allocations)
	expense.Transactions = calculator.DeriveTransfers(expense)

	if err := calculator.VerifyConservation(expense.TotalAmount, expense.Participants); err != nil {
		// Unreachable unless the allocator regresses.
		slog.Error("allocation broke conservation", "expense_id", expense.ID, "error", err)
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "expense_id", expense.ID, "error", err)
		return nil, err
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"payer_id", payerID,
		"total", expense.TotalAmount,
		"split_type", expense.SplitType,
		"participants", len(expense.Participants),
	)
	return expense, nil
}

// SettleExpense marks the given participant's obligation as paid,
// completes the matching transfer, recomputes the aggregate status, and
// persists the changes. Settling an already-paid participant succeeds
// without changing anything.
func (s *ExpenseService) SettleExpense(ctx context.Context, expenseID, participantUserID string) (*models.Expense, error) {
	lock := s.lockExpense(expenseID)
	lock.Lock()
	defer lock.Unlock()

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	result, err := calculator.SettleParticipant(expense, participantUserID)
	if err != nil {
		return nil, err
	}

	if !result.Changed {
		slog.Info("Settle no-op, participant already paid",
			"expense_id", expenseID, "user_id", participantUserID)
		return expense, nil
	}

	if result.Transfer != nil {
		result.Transfer.CompletedAt = time.Now().Unix()
	} else {
		// Expected only for obligations that never had a transfer.
		slog.Warn("no pending transfer matched settlement",
			"expense_id", expenseID, "user_id", participantUserID)
	}

	if err := s.store.SaveSettlement(ctx, expense); err != nil {
		slog.Error("SaveSettlement failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	slog.Info("Participant settled",
		"expense_id", expenseID,
		"user_id", participantUserID,
		"expense_status", expense.Status,
	)
	return expense, nil
}

// GetExpense retrieves an expense the requester participates in.
func (s *ExpenseService) GetExpense(ctx context.Context, requesterID, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Participant(requesterID) == nil && expense.PayerID != requesterID {
		return nil, fmt.Errorf("%w: %s", calculator.ErrParticipantNotFound, requesterID)
	}
	return expense, nil
}

// GetUserExpenses retrieves every expense the user participates in,
// newest first.
func (s *ExpenseService) GetUserExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByParticipant(ctx, userID)
}

// GetGroupExpenses retrieves a group's expenses for one of its members.
func (s *ExpenseService) GetGroupExpenses(ctx context.Context, requesterID, groupID string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requesterID) {
		return nil, ErrNotGroupMember
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}
