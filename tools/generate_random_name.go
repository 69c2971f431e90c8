package tools

import (
	"github.com/google/uuid"
)

// Generates a random name using UUID
func GenerateRandomName() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewID returns a fresh document id. It panics only if the system entropy source fails.
func NewID() string {
	return uuid.NewString()
}
