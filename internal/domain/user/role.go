package user

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the kind of account a user holds
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
	RoleGuest
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	case RoleGuest:
		return "guest"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a role name into a Role, ignoring case
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "member":
		return RoleMember, nil
	case "guest":
		return RoleGuest, nil
	default:
		return RoleMember, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
