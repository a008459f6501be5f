package jwt

import "errors"

type Role int

const (
	RoleStaff Role = iota
	RoleCustomer
)

// Suffix is the char appended to a signed token of this role. Unknown roles
// have none.
func (r Role) Suffix() string {
	switch r {
	case RoleStaff:
		return "1"
	case RoleCustomer:
		return "2"
	}
	return ""
}

var (
	ErrInvalidToken = errors.New("jwt: invalid token")
	ErrTokenExpired = errors.New("jwt: token expired")
	ErrUnknownRole  = errors.New("jwt: unknown role")
)

// Subject is what a verified token says about its bearer.
type Subject struct {
	Email     string
	ExpiresAt int64
}
