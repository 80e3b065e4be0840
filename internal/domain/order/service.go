package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/careplan/careplan/internal/domain/careplan"
	"github.com/careplan/careplan/internal/domain/patient"
	"github.com/careplan/careplan/internal/outcome"
)

// Service is the read side: order status, care-plan retrieval and
// search.
type Service struct {
	orders   Repository
	patients patient.Repository
	plans    careplan.Repository
}

func NewService(orders Repository, patients patient.Repository, plans careplan.Repository) *Service {
	return &Service{orders: orders, patients: patients, plans: plans}
}

// Detail is the status-dependent order view. CarePlan is set only for
// completed orders; ErrorMessage only for failed ones.
type Detail struct {
	Order    *Order
	Patient  *patient.Patient
	CarePlan *careplan.CarePlan
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pat, err := s.patients.GetByID(ctx, o.PatientID)
	if err != nil {
		return nil, err
	}

	d := &Detail{Order: o, Patient: pat}
	if o.Status == StatusCompleted {
		plan, err := s.plans.GetByOrderID(ctx, o.ID)
		if err != nil && !errors.Is(err, careplan.ErrNotFound) {
			return nil, err
		}
		d.CarePlan = plan
	}
	return d, nil
}

// Download returns the care plan for a completed order. Before
// completion it fails with CAREPLAN_NOT_READY so the caller can poll.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*careplan.CarePlan, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusCompleted {
		return nil, outcome.Validation(
			"CAREPLAN_NOT_READY",
			"Care plan is not ready yet.",
			map[string]interface{}{
				"order_id":       o.ID.String(),
				"current_status": o.Status,
			},
		)
	}
	return s.plans.GetByOrderID(ctx, o.ID)
}

func (s *Service) Search(ctx context.Context, query string) ([]*Summary, error) {
	return s.orders.Search(ctx, query)
}
