package identity

import (
	"strings"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionUsers is the document collection holding user profiles,
// keyed by email address
const CollectionUsers = "users"

// Role is a business role granted to a user
type Role string

const (
	RoleSales   Role = "sales"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"
)

// Roles is the role map stored on a profile
type Roles struct {
	Sales   bool `json:"sales" firestore:"sales"`
	Finance bool `json:"finance" firestore:"finance"`
	Admin   bool `json:"admin" firestore:"admin"`
}

// UserProfile maps a signed-in user to business roles
type UserProfile struct {
	shared.DocumentID
	Email       string `json:"email" firestore:"email" validate:"required,email"`
	DisplayName string `json:"displayName" firestore:"displayName"`
	Roles       Roles  `json:"roles" firestore:"roles"`
}

// Has reports whether the profile holds role
func (p *UserProfile) Has(role Role) bool {
	switch role {
	case RoleSales:
		return p.Roles.Sales
	case RoleFinance:
		return p.Roles.Finance
	case RoleAdmin:
		return p.Roles.Admin
	}
	return false
}

// HasAny reports whether the profile holds one of roles. Admins hold every role.
func (p *UserProfile) HasAny(roles ...Role) bool {
	if p.Roles.Admin {
		return true
	}
	for _, r := range roles {
		if p.Has(r) {
			return true
		}
	}
	return false
}

// RoleNames lists the granted roles
func (p *UserProfile) RoleNames() []string {
	names := make([]string, 0, 3)
	for _, r := range []Role{RoleSales, RoleFinance, RoleAdmin} {
		if p.Has(r) {
			names = append(names, string(r))
		}
	}
	return names
}

// ProfileKey returns the document key of the profile for email
func ProfileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
