package model

// Role is an account's authorization level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Account is one login record. Passwords are stored as-is in the durable
// accounts blob; hardening the credential store is out of scope here.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the account may manage other accounts.
func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }
