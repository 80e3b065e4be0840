package careplan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an order has no stored care plan.
var ErrNotFound = errors.New("care plan not found")

type Repository interface {
	// Create stores the plan for an order, replacing any plan left
	// behind by an earlier generation attempt.
	Create(ctx context.Context, cp *CarePlan) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*CarePlan, error)
}
