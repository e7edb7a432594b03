package models

import (
	"strings"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleFarmer || r == RoleAdmin
}

// User is the identity returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the registration payload.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// Validate checks the fields the register form requires. Only buyers and
// farmers can self-register.
func (p Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return FieldError("name")
	case strings.TrimSpace(p.Email) == "":
		return FieldError("email")
	case p.Password == "":
		return FieldError("password")
	case p.Role != RoleBuyer && p.Role != RoleFarmer:
		return &InvalidFieldError{Field: "role", Reason: "must be buyer or farmer"}
	}
	return nil
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
