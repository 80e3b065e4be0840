package provider

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	// GetByNPI returns (nil, nil) when no provider carries the NPI.
	GetByNPI(ctx context.Context, npi string) (*Provider, error)
}
