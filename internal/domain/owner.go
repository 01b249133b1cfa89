package domain

import (
	"fmt"
	"time"
)

// Owner is the authenticated principal every record and query is scoped to
type Owner struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewOwner creates a new Owner instance
func NewOwner(id, name, email string, createdAt time.Time) *Owner {
	return &Owner{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: createdAt,
	}
}

// ValidateOwner validates an Owner instance
func ValidateOwner(o *Owner) error {
	if o == nil {
		return fmt.Errorf("owner cannot be nil")
	}

	if o.ID == "" {
		return fmt.Errorf("owner ID is required")
	}

	if o.Name == "" {
		return fmt.Errorf("owner Name is required")
	}

	return nil
}
