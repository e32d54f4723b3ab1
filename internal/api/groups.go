package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"paymate/internal/middleware"
)

type createGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// handleCreateGroup creates a group owned by the authenticated user.
func (h *Handlers) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createGroupRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// handleListGroups returns the groups the authenticated user belongs to.
func (h *Handlers) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := h.groups.ListGroups(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleGetGroup returns one group the authenticated user belongs to.
func (h *Handlers) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "id")

	group, err := h.groups.GetGroup(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// handleGroupExpenses returns a group's expenses for one of its members.
func (h *Handlers) handleGroupExpenses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "id")

	expenses, err := h.expenses.GetGroupExpenses(r.Context(), userID, groupID)
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
