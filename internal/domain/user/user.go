package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidRole       = errors.New("invalid role")
	ErrCannotDeleteAdmin = errors.New("cannot delete an admin user")
)

type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleBanker Role = "Banker"
	RoleUser   Role = "User"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleBanker, RoleUser:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Role         Role   `json:"role"`
}

// Listing is the reduced shape for the admin users-by-role view.
type Listing struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
