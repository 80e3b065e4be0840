package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// riversideAdapter handles Riverside Medical Center's JSON format. The
// fields are semantically identical to the other JSON sources but named
// differently: the MRN is subject.id_number, the NPI is
// ordering_physician.license_id, the resubmit signal is force_submit.
// birth_date arrives as an 8-digit YYYYMMDD string and prior_drugs is a
// list of structured objects preserved verbatim rather than flattened:
//
//	{
//	  "subject":            {"id_number": "789012", "given_name": "Carlos",
//	                         "family_name": "Mendez", "birth_date": "19720408"},
//	  "ordering_physician": {"license_id": "3141592653", "full_name": "Dr. Priya Nair"},
//	  "treatment":          {"drug": "Rituximab", "icd_primary": "C83.39",
//	                         "icd_secondary": ["Z79.899"],
//	                         "prior_drugs": [{"drug": "CHOP", "year": "2022"}]},
//	  "chart_summary": "...",
//	  "force_submit":  false
//	}
type riversideAdapter struct{}

type riversidePayload struct {
	Subject struct {
		IDNumber   flexString `json:"id_number"`
		GivenName  string     `json:"given_name"`
		FamilyName string     `json:"family_name"`
		BirthDate  flexString `json:"birth_date"`
	} `json:"subject"`
	OrderingPhysician struct {
		LicenseID flexString `json:"license_id"`
		FullName  string     `json:"full_name"`
	} `json:"ordering_physician"`
	Treatment struct {
		Drug         string        `json:"drug"`
		ICDPrimary   string        `json:"icd_primary"`
		ICDSecondary stringOrList  `json:"icd_secondary"`
		PriorDrugs   []HistoryItem `json:"prior_drugs"`
	} `json:"treatment"`
	ChartSummary string `json:"chart_summary"`
	ForceSubmit  bool   `json:"force_submit"`
}

func (riversideAdapter) Source() string { return "riverside" }

func (riversideAdapter) Parse(body []byte) (interface{}, error) {
	var p riversidePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (riversideAdapter) Transform(intermediate interface{}) (*Order, error) {
	p, ok := intermediate.(*riversidePayload)
	if !ok {
		return nil, fmt.Errorf("unexpected intermediate type %T", intermediate)
	}

	return &Order{
		Confirm: p.ForceSubmit,
		Patient: Patient{
			MRN:       strings.TrimSpace(string(p.Subject.IDNumber)),
			FirstName: orUnknown(p.Subject.GivenName),
			LastName:  orUnknown(p.Subject.FamilyName),
			DOB:       isoFromCompact(string(p.Subject.BirthDate)),
		},
		Provider: Provider{
			NPI:  strings.TrimSpace(string(p.OrderingPhysician.LicenseID)),
			Name: orUnknown(p.OrderingPhysician.FullName),
		},
		Medication: Medication{
			Name:                strings.TrimSpace(p.Treatment.Drug),
			PrimaryDiagnosis:    strings.TrimSpace(p.Treatment.ICDPrimary),
			AdditionalDiagnoses: cleanCodes(p.Treatment.ICDSecondary),
			History:             p.Treatment.PriorDrugs,
		},
		PatientRecords: strings.TrimSpace(p.ChartSummary),
	}, nil
}
