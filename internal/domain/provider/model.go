package provider

import (
	"time"

	"github.com/google/uuid"
)

// Provider is an ordering clinician identified by NPI. The NPI is
// licensure-grade and unique per provider, so the store enforces a
// uniqueness constraint on it.
type Provider struct {
	ID        uuid.UUID `json:"id"`
	NPI       string    `json:"npi"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
