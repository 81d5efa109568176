package model

import "time"

// Role names form a closed, case-sensitive vocabulary.  Anything outside it
// is rejected before a role row is ever created.
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
)

// AllowedRoles lists every role name the system accepts.
var AllowedRoles = []string{RoleAdmin, RoleReceptionist}

// IsAllowedRole reports whether name belongs to the role vocabulary.
func IsAllowedRole(name string) bool {
	for _, r := range AllowedRoles {
		if r == name {
			return true
		}
	}
	return false
}

// Account represents a staff login identity as stored in the `accounts`
// table.  PasswordHash never leaves the repository/auth boundary; handlers
// serialise AccountView instead.
//
// Fields:
//	ID           – primary key identifier of the account.
//	FirstName    – given name.
//	LastName     – family name.
//	Email        – unique email address.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	Roles        – roles linked through account_roles (filled by services).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Account struct {
	ID           uint64    // accounts.id
	FirstName    string    // accounts.first_name
	LastName     string    // accounts.last_name
	Email        string    // accounts.email
	Username     string    // accounts.username
	PasswordHash string    // accounts.password_hash
	Roles        []Role    // account_roles -> roles
	CreatedAt    time.Time // accounts.created_at
	UpdatedAt    time.Time // accounts.updated_at
}

// Role represents a row in the `roles` table.
type Role struct {
	ID        uint64    `json:"id"`        // roles.id
	Name      string    `json:"name"`      // roles.name
	CreatedAt time.Time `json:"createdAt"` // roles.created_at
	UpdatedAt time.Time `json:"updatedAt"` // roles.updated_at
}

// AccountView is the public projection of an Account.  It has no password
// field, so no serialisation path can expose the hash.
type AccountView struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View returns the sanitized projection of a.
func (a *Account) View() AccountView {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.Name)
	}
	return AccountView{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Username:  a.Username,
		Roles:     names,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// RoleNames returns the names of the roles attached to a.
func (a *Account) RoleNames() []string {
	return a.View().Roles
}
