package models

// Group represents a set of people who share expenses.
// Expenses and settlement records always belong to exactly one group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members is the list of user IDs in this group.
	Members []UserID

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID UserID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
