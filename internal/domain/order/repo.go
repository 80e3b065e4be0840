package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups for an order id that does not exist.
var ErrNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// Latest returns the most recent order for the (patient, medication)
	// pair, or (nil, nil) when the patient never ordered the medication.
	Latest(ctx context.Context, patientID uuid.UUID, medicationName string) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, errorMessage string) error
	// Search matches the query against order id, medication name and
	// patient mrn/first/last name, newest first, capped at 20 rows.
	Search(ctx context.Context, query string) ([]*Summary, error)
}
