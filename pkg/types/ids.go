package types

import "github.com/google/uuid"

// NewID generates a UUID v7 entity ID, falling back to v4 if the v7
// generator fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
