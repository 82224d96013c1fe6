package user

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	// MaxUsers is the maximum number of users the in-memory store will hold
	MaxUsers = 1000

	// DefaultPageSize is the page size used when a listing does not set one
	DefaultPageSize = 20

	// MaxPageSize is the largest page a listing returns
	MaxPageSize = 100
)

// ID identifies a persisted user. The zero value is UnassignedID.
type ID struct {
	value    int64
	assigned bool
}

// UnassignedID marks a user that has not been given an identifier by a store yet
var UnassignedID = ID{}

// NewID returns an assigned identifier
func NewID(v int64) ID {
	return ID{value: v, assigned: true}
}

// Int64 returns the identifier value and whether it has been assigned
func (id ID) Int64() (int64, bool) {
	return id.value, id.assigned
}

// IsAssigned reports whether a store has assigned this identifier
func (id ID) IsAssigned() bool {
	return id.assigned
}

func (id ID) String() string {
	if !id.assigned {
		return "unassigned"
	}
	return strconv.FormatInt(id.value, 10)
}

// MarshalJSON encodes an unassigned ID as null
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.assigned {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(id.value, 10)), nil
}

// UnmarshalJSON accepts a number or null
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*id = UnassignedID
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return ErrInvalidUserID
	}
	*id = NewID(v)
	return nil
}

// User represents a user in the system
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUser builds a user that has not been persisted. Name and email are kept as given.
func NewUser(name, email string) *User {
	return &User{
		ID:    UnassignedID,
		Name:  name,
		Email: email,
		Role:  RoleMember,
	}
}

// ListFilter contains filters for listing users
type ListFilter struct {
	Limit  int
	Offset int
}

// Normalize applies the default page size, caps it at MaxPageSize and rejects a
// negative offset
func (f ListFilter) Normalize() (ListFilter, error) {
	if f.Offset < 0 {
		return f, ErrInvalidOffset
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	return f, nil
}
