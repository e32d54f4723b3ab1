package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"paymate/internal/calculator"
	"paymate/internal/middleware"
	"paymate/internal/models"
	"paymate/internal/service"
)

type createExpenseRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	SplitType      models.SplitType  `json:"split_type"`
	ParticipantIDs []string          `json:"participant_ids"`
	GroupID        string            `json:"group_id,omitempty"`
	Percentages    []decimal.Decimal `json:"percentages,omitempty"`
	ExactAmounts   []decimal.Decimal `json:"exact_amounts,omitempty"`
	Shares         []int64           `json:"shares,omitempty"`
}

// buildSplit converts the flat request into the strategy variant,
// rejecting parameters that belong to a different strategy.
func buildSplit(req *createExpenseRequest) (calculator.Split, error) {
	extras := func(allowed string) error {
		if req.Percentages != nil && allowed != "percentages" {
			return fmt.Errorf("%w: percentages not valid for %s split", calculator.ErrInvalidSplitParameters, req.SplitType)
		}
		if req.ExactAmounts != nil && allowed != "exact_amounts" {
			return fmt.Errorf("%w: exact_amounts not valid for %s split", calculator.ErrInvalidSplitParameters, req.SplitType)
		}
		if req.Shares != nil && allowed != "shares" {
			return fmt.Errorf("%w: shares not valid for %s split", calculator.ErrInvalidSplitParameters, req.SplitType)
		}
		return nil
	}

	switch req.SplitType {
	case models.SplitEqual:
		if err := extras(""); err != nil {
			return nil, err
		}
		return calculator.EqualSplit{}, nil
	case models.SplitPercentage:
		if err := extras("percentages"); err != nil {
			return nil, err
		}
		return calculator.PercentageSplit{Percentages: req.Percentages}, nil
	case models.SplitExactAmount:
		if err := extras("exact_amounts"); err != nil {
			return nil, err
		}
		return calculator.ExactAmountSplit{Amounts: req.ExactAmounts}, nil
	case models.SplitShares:
		if err := extras("shares"); err != nil {
			return nil, err
		}
		return calculator.SharesSplit{Shares: req.Shares}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", calculator.ErrInvalidSplitParameters, req.SplitType)
	}
}

// handleCreateExpense allocates and persists a new expense paid by the
// authenticated user.
func (h *Handlers) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}

	split, err := buildSplit(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.CreateExpense(r.Context(), userID, service.CreateExpenseInput{
		Title:          req.Title,
		Description:    req.Description,
		TotalAmount:    req.TotalAmount,
		ParticipantIDs: req.ParticipantIDs,
		GroupID:        req.GroupID,
		Split:          split,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.expenses.ExpenseView(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleListExpenses returns the authenticated user's expenses.
func (h *Handlers) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	expenses, err := h.expenses.GetUserExpenses(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	views, err := h.expenses.ExpenseViews(r.Context(), expenses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetExpense returns one expense the authenticated user is part of.
func (h *Handlers) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := chi.URLParam(r, "id")

	expense, err := h.expenses.GetExpense(r.Context(), userID, expenseID)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.expenses.ExpenseView(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type settleExpenseRequest struct {
	// UserID optionally settles on behalf of another participant; the
	// authenticated user is settled when empty. The payer records other
	// participants' cash payments this way.
	UserID string `json:"user_id,omitempty"`
}

// handleSettleExpense marks a participant's share of the expense paid.
func (h *Handlers) handleSettleExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := chi.URLParam(r, "id")

	var req settleExpenseRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}
	target := req.UserID
	if target == "" {
		target = userID
	}
	if target != userID {
		// Only the payer records settlements for other participants.
		expense, err := h.expenses.GetExpense(r.Context(), userID, expenseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if expense.PayerID != userID {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "only the payer can settle other participants"})
			return
		}
	}

	expense, err := h.expenses.SettleExpense(r.Context(), expenseID, target)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.expenses.ExpenseView(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
