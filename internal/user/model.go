package user

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of account roles.
type Type string

const (
	TypePatient   Type = "patient"
	TypeTherapist Type = "therapist"
)

// Valid reports whether t is a known user type.
func (t Type) Valid() bool {
	return t == TypePatient || t == TypeTherapist
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"` // Never expose password hash in JSON
	UserType        Type      `json:"userType"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
