package intake

import (
	"fmt"
	"regexp"
	"time"

	"github.com/careplan/careplan/internal/outcome"
)

var (
	npiRe   = regexp.MustCompile(`^\d{10}$`)
	mrnRe   = regexp.MustCompile(`^\d{6}$`)
	icd10Re = regexp.MustCompile(`^[A-Za-z]\d{2}(\.\d{1,4})?$`)
)

// ValidateOrder runs the format-independent structural checks against a
// canonical order, independent of which adapter produced it. Every
// violation is collected rather than short-circuiting; an empty slice
// means the order is valid.
func ValidateOrder(o *Order) []outcome.FieldError {
	var errs []outcome.FieldError

	if !npiRe.MatchString(o.Provider.NPI) {
		errs = append(errs, outcome.FieldError{
			Field:   "provider.npi",
			Message: "NPI must be exactly 10 digits.",
		})
	}

	if !mrnRe.MatchString(o.Patient.MRN) {
		errs = append(errs, outcome.FieldError{
			Field:   "patient.mrn",
			Message: "MRN must be exactly 6 digits.",
		})
	}

	// dob is stored as a non-null date; rejecting its absence here keeps
	// a dob-less payload from dying at insert instead.
	if o.Patient.DOB == "" {
		errs = append(errs, outcome.FieldError{
			Field:   "patient.dob",
			Message: "Date of birth is required.",
		})
	} else if _, err := time.Parse("2006-01-02", o.Patient.DOB); err != nil {
		errs = append(errs, outcome.FieldError{
			Field:   "patient.dob",
			Message: "Date of birth must be an ISO-8601 date (YYYY-MM-DD).",
		})
	}

	if pd := o.Medication.PrimaryDiagnosis; pd != "" && !icd10Re.MatchString(pd) {
		errs = append(errs, outcome.FieldError{
			Field:   "medication.primary_diagnosis",
			Message: "Primary diagnosis must be valid ICD-10 format (e.g. G70.00, E11.9).",
		})
	}

	for i, code := range o.Medication.AdditionalDiagnoses {
		if !icd10Re.MatchString(code) {
			errs = append(errs, outcome.FieldError{
				Field:   fmt.Sprintf("medication.additional_diagnoses[%d]", i),
				Message: fmt.Sprintf("Invalid ICD-10 code: %q.", code),
			})
		}
	}

	return errs
}
