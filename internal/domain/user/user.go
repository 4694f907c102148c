package user

import (
	"errors"
	"time"
)

// Role is the closed set of account roles. Anything else is rejected at the
// edges (request binding, token verification).
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole maps a raw string (token claim, query param) onto the enum.
func ParseRole(s string) (Role, bool) {
	r := Role(s)

	return r, r.Valid()
}

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already registered")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the projection returned by registration and admin creation.
type Public struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Public() Public {
	return Public{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// ListFilter drives the admin user listing. String filters are substring,
// case-insensitive; Role is an exact match.
type ListFilter struct {
	Name      *string
	Email     *string
	Address   *string
	Role      *Role
	SortBy    string
	SortOrder string
}

// ListItem is a row as the admin listing sees it: the user plus the average
// rating of the store they own (0 when they own none).
type ListItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Address     string  `json:"address"`
	Role        Role    `json:"role"`
	StoreRating float64 `json:"storeRating"`
}
