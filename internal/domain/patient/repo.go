package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetByMRN returns (nil, nil) when no patient carries the MRN.
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	// FindByIdentity returns the first patient matching name and DOB
	// exactly, or (nil, nil).
	FindByIdentity(ctx context.Context, firstName, lastName, dob string) (*Patient, error)
}
