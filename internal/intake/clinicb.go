package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// clinicBAdapter handles Clinic B's nested JSON format:
//
//	{
//	  "pt":       {"mrn": "123456", "fname": "John", "lname": "Doe", "dob": "1980-01-15"},
//	  "provider": {"npi_num": "1234567890", "name": "Dr. Smith"},
//	  "dx":       {"primary": "G70.00", "secondary": ["E11.9"]},
//	  "rx":       {"med_name": "Pyridostigmine"},
//	  "med_hx":   ["Neostigmine 2020-2022"],
//	  "clinical_notes": "...",
//	  "confirm":  false
//	}
//
// "secondary" may arrive as a bare string instead of a list, and some
// submitters use the long field names (first_name, npi, patient_records).
type clinicBAdapter struct{}

type clinicBPayload struct {
	Pt struct {
		MRN       flexString `json:"mrn"`
		Fname     string     `json:"fname"`
		FirstName string     `json:"first_name"`
		Lname     string     `json:"lname"`
		LastName  string     `json:"last_name"`
		DOB       string     `json:"dob"`
	} `json:"pt"`
	Provider struct {
		NPINum flexString `json:"npi_num"`
		NPI    flexString `json:"npi"`
		Name   string     `json:"name"`
	} `json:"provider"`
	Dx struct {
		Primary   string       `json:"primary"`
		Secondary stringOrList `json:"secondary"`
	} `json:"dx"`
	Rx struct {
		MedName string `json:"med_name"`
		Name    string `json:"name"`
	} `json:"rx"`
	MedHx             []HistoryItem `json:"med_hx"`
	MedicationHistory []HistoryItem `json:"medication_history"`
	ClinicalNotes     string        `json:"clinical_notes"`
	PatientRecords    string        `json:"patient_records"`
	Confirm           bool          `json:"confirm"`
}

func (clinicBAdapter) Source() string { return "clinic_b" }

func (clinicBAdapter) Parse(body []byte) (interface{}, error) {
	var p clinicBPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a clinicBAdapter) Transform(intermediate interface{}) (*Order, error) {
	p, ok := intermediate.(*clinicBPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected intermediate type %T", intermediate)
	}

	history := p.MedHx
	if len(history) == 0 {
		history = p.MedicationHistory
	}

	return &Order{
		Confirm: p.Confirm,
		Patient: Patient{
			MRN:       strings.TrimSpace(string(p.Pt.MRN)),
			FirstName: orUnknown(firstNonEmpty(p.Pt.Fname, p.Pt.FirstName)),
			LastName:  orUnknown(firstNonEmpty(p.Pt.Lname, p.Pt.LastName)),
			DOB:       strings.TrimSpace(p.Pt.DOB),
		},
		Provider: Provider{
			NPI:  strings.TrimSpace(string(firstNonEmptyFlex(p.Provider.NPINum, p.Provider.NPI))),
			Name: orUnknown(p.Provider.Name),
		},
		Medication: Medication{
			Name:                firstNonEmpty(p.Rx.MedName, p.Rx.Name),
			PrimaryDiagnosis:    strings.TrimSpace(p.Dx.Primary),
			AdditionalDiagnoses: cleanCodes(p.Dx.Secondary),
			History:             history,
		},
		PatientRecords: firstNonEmpty(p.ClinicalNotes, p.PatientRecords),
	}, nil
}

func firstNonEmptyFlex(vals ...flexString) flexString {
	for _, v := range vals {
		if strings.TrimSpace(string(v)) != "" {
			return v
		}
	}
	return ""
}
