package domain

import "strings"

type Group struct {
	ID              int32    `json:"id"`
	Name            string   `json:"name"`
	LeaderAccountID int32    `json:"leader_account_id"`
	LeaderEmail     string   `json:"leader_email"`
	Members         []string `json:"members"` // Member emails
}

// HasMember matches emails case-insensitively.
func (g *Group) HasMember(email string) bool {
	email = strings.TrimSpace(email)
	for _, m := range g.Members {
		if strings.EqualFold(strings.TrimSpace(m), email) {
			return true
		}
	}
	return false
}
