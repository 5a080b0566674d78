package domain

import "github.com/google/uuid"

// IsUUID reports whether s is a canonical version 4 UUID.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}
