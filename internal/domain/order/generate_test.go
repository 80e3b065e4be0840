package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careplan/careplan/internal/domain/careplan"
	"github.com/careplan/careplan/internal/domain/patient"
	"github.com/careplan/careplan/internal/domain/provider"
	"github.com/careplan/careplan/internal/intake"
)

type mockPlanRepo struct {
	byOrderID map[uuid.UUID]*careplan.CarePlan
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{byOrderID: make(map[uuid.UUID]*careplan.CarePlan)}
}

func (m *mockPlanRepo) Create(_ context.Context, cp *careplan.CarePlan) error {
	cp.ID = uuid.New()
	m.byOrderID[cp.OrderID] = cp
	return nil
}

func (m *mockPlanRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*careplan.CarePlan, error) {
	cp, ok := m.byOrderID[orderID]
	if !ok {
		return nil, careplan.ErrNotFound
	}
	return cp, nil
}

type mockGenerator struct {
	content    string
	model      string
	err        error
	lastPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, _ string, prompt string) (string, string, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return "", "", m.err
	}
	return m.content, m.model, nil
}

type generateFixture struct {
	svc    *GenerationService
	orders *mockOrderRepo
	plans  *mockPlanRepo
	llm    *mockGenerator
	order  *Order
}

func newGenerateFixture(t *testing.T) *generateFixture {
	t.Helper()
	providers := newMockProviderRepo()
	patients := newMockPatientRepo()
	orders := newMockOrderRepo()
	plans := newMockPlanRepo()
	llm := &mockGenerator{content: "# Care Plan\n\nTake as directed.", model: "claude-sonnet-4"}

	prov := &provider.Provider{NPI: "1234567890", Name: "Dr. Smith"}
	if err := providers.Create(context.Background(), prov); err != nil {
		t.Fatal(err)
	}
	pat := &patient.Patient{MRN: "123456", FirstName: "John", LastName: "Doe", DOB: "1980-01-15"}
	if err := patients.Create(context.Background(), pat); err != nil {
		t.Fatal(err)
	}
	o := &Order{
		PatientID:         pat.ID,
		ProviderID:        prov.ID,
		MedicationName:    "Pyridostigmine",
		PrimaryDiagnosis:  "G70.00",
		MedicationHistory: []intake.HistoryItem{intake.TextItem("Neostigmine 2020-2022")},
		Status:            StatusPending,
	}
	if err := orders.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	svc := NewGenerationService(orders, patients, providers, plans, llm, zerolog.Nop())
	return &generateFixture{svc: svc, orders: orders, plans: plans, llm: llm, order: o}
}

func TestGenerate_StoresPlanAndCompletes(t *testing.T) {
	f := newGenerateFixture(t)

	if err := f.svc.Generate(context.Background(), f.order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.order.Status != StatusCompleted {
		t.Errorf("expected status completed, got %s", f.order.Status)
	}
	plan, ok := f.plans.byOrderID[f.order.ID]
	if !ok {
		t.Fatal("expected stored care plan")
	}
	if plan.Content != "# Care Plan\n\nTake as directed." {
		t.Errorf("unexpected plan content %q", plan.Content)
	}
	if plan.Model != "claude-sonnet-4" {
		t.Errorf("unexpected model %q", plan.Model)
	}
	if plan.PromptVersion == "" {
		t.Error("expected prompt version recorded")
	}
	for _, want := range []string{"John Doe", "123456", "Pyridostigmine", "G70.00", "Neostigmine 2020-2022"} {
		if !strings.Contains(f.llm.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_FailureLeavesProcessing(t *testing.T) {
	f := newGenerateFixture(t)
	f.llm.err = errors.New("upstream timeout")

	err := f.svc.Generate(context.Background(), f.order.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if f.order.Status != StatusProcessing {
		t.Errorf("expected status processing for retry, got %s", f.order.Status)
	}
	if len(f.plans.byOrderID) != 0 {
		t.Error("no plan should be stored on failure")
	}
}

func TestGenerate_RedeliveredJobReplacesStoredPlan(t *testing.T) {
	f := newGenerateFixture(t)
	f.orders.failCompleteOnce = true

	// First attempt stores the plan but dies before completing the order.
	if err := f.svc.Generate(context.Background(), f.order.ID); err == nil {
		t.Fatal("expected error when completion update fails")
	}
	if _, err := f.plans.GetByOrderID(context.Background(), f.order.ID); err != nil {
		t.Fatalf("expected plan stored by first attempt: %v", err)
	}
	if f.order.Status != StatusProcessing {
		t.Fatalf("expected order left processing, got %s", f.order.Status)
	}

	// The retry must overwrite the orphaned plan and finish the order,
	// not conflict on it.
	f.llm.content = "# Care Plan\n\nRevised."
	if err := f.svc.Generate(context.Background(), f.order.ID); err != nil {
		t.Fatalf("retry with stored plan: %v", err)
	}
	if f.order.Status != StatusCompleted {
		t.Errorf("expected completed after retry, got %s", f.order.Status)
	}
	cp, err := f.plans.GetByOrderID(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if cp.Content != "# Care Plan\n\nRevised." {
		t.Errorf("expected retry to replace plan content, got %q", cp.Content)
	}
}

func TestGenerate_CompletedOrderIsNoop(t *testing.T) {
	f := newGenerateFixture(t)
	f.order.Status = StatusCompleted

	if err := f.svc.Generate(context.Background(), f.order.ID); err != nil {
		t.Fatalf("redelivered job should be a no-op, got %v", err)
	}
	if len(f.plans.byOrderID) != 0 {
		t.Error("redelivery must not regenerate the plan")
	}
}

func TestGenerate_UnknownOrder(t *testing.T) {
	f := newGenerateFixture(t)

	err := f.svc.Generate(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkFailed(t *testing.T) {
	f := newGenerateFixture(t)

	f.svc.MarkFailed(context.Background(), f.order.ID, "generation attempts exhausted")

	if f.order.Status != StatusFailed {
		t.Errorf("expected status failed, got %s", f.order.Status)
	}
	if f.order.ErrorMessage != "generation attempts exhausted" {
		t.Errorf("unexpected error message %q", f.order.ErrorMessage)
	}
}
