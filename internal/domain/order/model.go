// Package order owns the treatment-order lifecycle: the intake
// orchestrator that turns a raw partner submission into persisted
// entities, the recency rule of the duplicate checks, the generation
// flow that produces the care plan, and the HTTP surface.
package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/careplan/careplan/internal/intake"
)

// Order statuses. An order is created pending, moves to processing when
// a worker picks up its generation job, and finishes completed or
// failed. Failed orders may be resubmitted.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Order struct {
	ID                  uuid.UUID            `json:"id"`
	PatientID           uuid.UUID            `json:"patient_id"`
	ProviderID          uuid.UUID            `json:"provider_id"`
	MedicationName      string               `json:"medication_name"`
	PrimaryDiagnosis    string               `json:"primary_diagnosis"`
	AdditionalDiagnoses []string             `json:"additional_diagnoses"`
	MedicationHistory   []intake.HistoryItem `json:"medication_history"`
	PatientRecords      string               `json:"patient_records"`
	Status              string               `json:"status"`
	ErrorMessage        string               `json:"error_message,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// Summary is the search projection: order essentials plus the patient
// identity needed to render a result row.
type Summary struct {
	ID               uuid.UUID `json:"id"`
	MedicationName   string    `json:"medication_name"`
	Status           string    `json:"status"`
	PatientMRN       string    `json:"patient_mrn"`
	PatientFirstName string    `json:"patient_first_name"`
	PatientLastName  string    `json:"patient_last_name"`
	CreatedAt        time.Time `json:"created_at"`
}
