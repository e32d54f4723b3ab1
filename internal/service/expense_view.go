package service

import (
	"context"

	"github.com/shopspring/decimal"

	"paymate/internal/models"
)

// ParticipantView is one participant's obligation as shown to clients.
type ParticipantView struct {
	UserID      string                   `json:"user_id"`
	DisplayName string                   `json:"display_name"`
	OwedAmount  decimal.Decimal          `json:"owed_amount"`
	PaidAmount  decimal.Decimal          `json:"paid_amount"`
	Status      models.ParticipantStatus `json:"status"`
}

// ExpenseView is the presentation projection of an expense: the aggregate
// plus resolved display names.
type ExpenseView struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	PayerID      string               `json:"payer_id"`
	PayerName    string               `json:"payer_name"`
	SplitType    models.SplitType     `json:"split_type"`
	Status       models.ExpenseStatus `json:"status"`
	GroupID      string               `json:"group_id,omitempty"`
	GroupName    string               `json:"group_name,omitempty"`
	CreatedAt    int64                `json:"created_at"`
	Participants []ParticipantView    `json:"participants"`
}

// ExpenseView builds the presentation projection for one expense,
// resolving payer, participant, and group display names.
func (s *ExpenseService) ExpenseView(ctx context.Context, expense *models.Expense) (*ExpenseView, error) {
	views, err := s.ExpenseViews(ctx, []*models.Expense{expense})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ExpenseViews builds projections for several expenses with one user
// lookup across all of them.
func (s *ExpenseService) ExpenseViews(ctx context.Context, expenses []*models.Expense) ([]*ExpenseView, error) {
	idSet := make(map[string]bool)
	for _, e := range expenses {
		idSet[e.PayerID] = true
		for _, p := range e.Participants {
			idSet[p.UserID] = true
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	displayName := func(id string) string {
		if u := users[id]; u != nil {
			return u.DisplayName
		}
		return id
	}

	groupNames := make(map[string]string)
	views := make([]*ExpenseView, len(expenses))
	for i, e := range expenses {
		view := &ExpenseView{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			TotalAmount: e.TotalAmount,
			PayerID:     e.PayerID,
			PayerName:   displayName(e.PayerID),
			SplitType:   e.SplitType,
			Status:      e.Status,
			GroupID:     e.GroupID,
			CreatedAt:   e.CreatedAt,
		}
		if e.GroupID != "" {
			name, ok := groupNames[e.GroupID]
			if !ok {
				group, err := s.store.GetGroup(ctx, e.GroupID)
				if err != nil {
					return nil, err
				}
				name = group.Name
				groupNames[e.GroupID] = name
			}
			view.GroupName = name
		}
		view.Participants = make([]ParticipantView, len(e.Participants))
		for j, p := range e.Participants {
			view.Participants[j] = ParticipantView{
				UserID:      p.UserID,
				DisplayName: displayName(p.UserID),
				OwedAmount:  p.OwedAmount,
				PaidAmount:  p.PaidAmount,
				Status:      p.Status,
			}
		}
		views[i] = view
	}

	return views, nil
}
