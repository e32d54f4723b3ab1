package models

// Group represents a reusable participant list.
// Groups can own expenses, enabling group expense history.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Trip to Goa").
	Name string `json:"name"`

	// CreatedBy is the user who created the group.
	CreatedBy string `json:"created_by"`

	// Members is the list of member user IDs, creator included.
	Members []string `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// HasMember reports whether the given user belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
