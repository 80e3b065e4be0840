package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is identified primarily by MRN, which the intake facility
// assigns and the store keeps unique. Name and DOB are corroborating
// attributes only; when they disagree with the MRN the MRN wins.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	MRN       string    `json:"mrn"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	// DOB is an ISO-8601 date string; intake normalizes all source
	// formats before it reaches this package.
	DOB       string    `json:"dob"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
