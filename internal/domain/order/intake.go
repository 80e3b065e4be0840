package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careplan/careplan/internal/domain/patient"
	"github.com/careplan/careplan/internal/domain/provider"
	"github.com/careplan/careplan/internal/intake"
	"github.com/careplan/careplan/internal/outcome"
)

// Enqueuer dispatches the asynchronous generation job for a freshly
// created order.
type Enqueuer interface {
	EnqueueGeneration(ctx context.Context, orderID uuid.UUID) error
}

// TxRunner executes fn atomically. Production wiring closes over
// db.WithTx and a pool; tests pass a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// IntakeService is the submission orchestrator: registry → adapter →
// validator → the three duplicate checks → persist-and-dispatch. The
// decision phase is read-only; nothing is written until every check has
// passed, so a pause or block never leaves entities behind.
type IntakeService struct {
	providers *provider.Service
	patients  *patient.Service
	orders    Repository
	queue     Enqueuer
	tx        TxRunner
	logger    zerolog.Logger
	now       func() time.Time
}

func NewIntakeService(
	providers *provider.Service,
	patients *patient.Service,
	orders Repository,
	queue Enqueuer,
	tx TxRunner,
	logger zerolog.Logger,
) *IntakeService {
	return &IntakeService{
		providers: providers,
		patients:  patients,
		orders:    orders,
		queue:     queue,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitResult is the success outcome: the created order plus any
// warnings the caller had already confirmed past.
type SubmitResult struct {
	Order    *Order
	Warnings []outcome.Warning
}

// Submit runs one submission end to end.
func (s *IntakeService) Submit(ctx context.Context, source string, body []byte) (*SubmitResult, error) {
	adapter, err := intake.Resolve(source)
	if err != nil {
		return nil, err
	}
	ord, err := intake.Process(adapter, body)
	if err != nil {
		return nil, err
	}

	// Decision phase: lookups only.
	resolvedProvider, err := s.providers.Resolve(ctx, ord.Provider.NPI, ord.Provider.Name)
	if err != nil {
		return nil, err
	}

	resolvedPatient, warnings, err := s.patients.Resolve(ctx, patient.Identity{
		MRN:       ord.Patient.MRN,
		FirstName: ord.Patient.FirstName,
		LastName:  ord.Patient.LastName,
		DOB:       ord.Patient.DOB,
	})
	if err != nil {
		return nil, err
	}

	// Recency only applies to a patient that already exists; a brand-new
	// patient cannot have prior orders.
	if resolvedPatient != nil {
		recencyWarnings, err := s.checkRecency(ctx, resolvedPatient, ord.Medication.Name, ord.Confirm)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, recencyWarnings...)
	}

	if len(warnings) > 0 && !ord.Confirm {
		return nil, outcome.ConfirmationRequired(warnings)
	}

	// Pass-through: persist atomically, then dispatch generation. The
	// unique indexes on npi and mrn arbitrate concurrent submissions;
	// Ensure re-adjudicates after a lost insert race, so a conflicting
	// concurrent write can still surface as a block here.
	created := &Order{
		MedicationName:      ord.Medication.Name,
		PrimaryDiagnosis:    ord.Medication.PrimaryDiagnosis,
		AdditionalDiagnoses: ord.Medication.AdditionalDiagnoses,
		MedicationHistory:   ord.Medication.History,
		PatientRecords:      ord.PatientRecords,
		Status:              StatusPending,
	}
	err = s.tx(ctx, func(ctx context.Context) error {
		prov := resolvedProvider
		if prov == nil {
			p, err := s.providers.Ensure(ctx, ord.Provider.NPI, ord.Provider.Name)
			if err != nil {
				return err
			}
			prov = p
		}
		pat := resolvedPatient
		if pat == nil {
			p, _, err := s.patients.Ensure(ctx, patient.Identity{
				MRN:       ord.Patient.MRN,
				FirstName: ord.Patient.FirstName,
				LastName:  ord.Patient.LastName,
				DOB:       ord.Patient.DOB,
			})
			if err != nil {
				return err
			}
			pat = p
		}
		created.ProviderID = prov.ID
		created.PatientID = pat.ID
		return s.orders.Create(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	if err := s.queue.EnqueueGeneration(ctx, created.ID); err != nil {
		// The order exists; generation just has not been scheduled.
		// Surface the failure instead of pretending the job is queued.
		s.logger.Error().Err(err).Str("order_id", created.ID.String()).Msg("enqueue generation failed")
		return nil, fmt.Errorf("enqueue generation for order %s: %w", created.ID, err)
	}

	s.logger.Info().
		Str("order_id", created.ID.String()).
		Str("source", source).
		Str("medication", created.MedicationName).
		Int("warnings", len(warnings)).
		Msg("order accepted")

	return &SubmitResult{Order: created, Warnings: warnings}, nil
}

func (s *IntakeService) checkRecency(ctx context.Context, pat *patient.Patient, medicationName string, confirm bool) ([]outcome.Warning, error) {
	latest, err := s.orders.Latest(ctx, pat.ID, medicationName)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}

	if sameDay(latest.CreatedAt, s.now()) {
		return nil, outcome.Block(
			"DUPLICATE_ORDER_SAME_DAY",
			fmt.Sprintf("Patient %s %s (MRN: %s) already has an order for %q today; duplicate same-day submissions are not allowed.",
				pat.FirstName, pat.LastName, pat.MRN, medicationName),
			map[string]interface{}{
				"existing_order_id": latest.ID.String(),
				"patient_mrn":       pat.MRN,
			},
		)
	}

	// A confirmed resubmission skips the history warning entirely; that
	// is the path by which a previously warned caller gets through.
	if confirm {
		return nil, nil
	}
	return []outcome.Warning{{
		Code: "DUPLICATE_ORDER_HISTORY",
		Message: fmt.Sprintf("Patient %s %s (MRN: %s) previously ordered %q on %s. Resubmit with confirm=true if the repeat order is intended.",
			pat.FirstName, pat.LastName, pat.MRN, medicationName, latest.CreatedAt.Format("2006-01-02")),
	}}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
