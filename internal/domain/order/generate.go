package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careplan/careplan/internal/domain/careplan"
	"github.com/careplan/careplan/internal/domain/patient"
	"github.com/careplan/careplan/internal/domain/provider"
	"github.com/careplan/careplan/internal/platform/generate"
)

// GenerationService produces the care plan for a pending order. The
// queue worker calls Generate once per attempt and MarkFailed when the
// retry budget is exhausted.
type GenerationService struct {
	orders    Repository
	patients  patient.Repository
	providers provider.Repository
	plans     careplan.Repository
	llm       generate.Generator
	logger    zerolog.Logger
}

func NewGenerationService(
	orders Repository,
	patients patient.Repository,
	providers provider.Repository,
	plans careplan.Repository,
	llm generate.Generator,
	logger zerolog.Logger,
) *GenerationService {
	return &GenerationService{
		orders:    orders,
		patients:  patients,
		providers: providers,
		plans:     plans,
		llm:       llm,
		logger:    logger,
	}
}

// Generate moves the order to processing, calls the generation service
// and stores the resulting plan. A returned error leaves the order in
// processing so the worker can retry; only MarkFailed finalizes failure.
func (s *GenerationService) Generate(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if o.Status == StatusCompleted {
		// Redelivered job for an order that already finished.
		return nil
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	pat, err := s.patients.GetByID(ctx, o.PatientID)
	if err != nil {
		return fmt.Errorf("load patient: %w", err)
	}
	prov, err := s.providers.GetByID(ctx, o.ProviderID)
	if err != nil {
		return fmt.Errorf("load provider: %w", err)
	}

	history := make([]string, len(o.MedicationHistory))
	for i, h := range o.MedicationHistory {
		history[i] = h.Text()
	}
	prompt := generate.BuildPrompt(generate.PromptInput{
		PatientName:         pat.FirstName + " " + pat.LastName,
		PatientDOB:          pat.DOB,
		PatientMRN:          pat.MRN,
		ProviderName:        prov.Name,
		ProviderNPI:         prov.NPI,
		MedicationName:      o.MedicationName,
		PrimaryDiagnosis:    o.PrimaryDiagnosis,
		AdditionalDiagnoses: o.AdditionalDiagnoses,
		MedicationHistory:   history,
		PatientRecords:      o.PatientRecords,
	})

	content, model, err := s.llm.Generate(ctx, generate.SystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("generate care plan: %w", err)
	}

	if err := s.plans.Create(ctx, &careplan.CarePlan{
		OrderID:       o.ID,
		Content:       content,
		Model:         model,
		PromptVersion: generate.PromptVersion,
	}); err != nil {
		return fmt.Errorf("store care plan: %w", err)
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, StatusCompleted, ""); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	s.logger.Info().Str("order_id", o.ID.String()).Str("model", model).Msg("care plan generated")
	return nil
}

// MarkFailed finalizes an order whose generation attempts are exhausted.
func (s *GenerationService) MarkFailed(ctx context.Context, orderID uuid.UUID, reason string) {
	if err := s.orders.UpdateStatus(ctx, orderID, StatusFailed, reason); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("mark order failed")
		return
	}
	s.logger.Warn().Str("order_id", orderID.String()).Str("reason", reason).Msg("order failed")
}
