package intake

import (
	"errors"
	"strings"
	"testing"

	"github.com/careplan/careplan/internal/outcome"
)

const clinicBPayloadJSON = `{
  "pt":       {"mrn": "123456", "fname": "John", "lname": "Doe", "dob": "1980-01-15"},
  "provider": {"npi_num": "1234567890", "name": "Dr. Smith"},
  "dx":       {"primary": "G70.00", "secondary": ["E11.9"]},
  "rx":       {"med_name": "Pyridostigmine"},
  "med_hx":   ["Neostigmine 2020-2022"],
  "clinical_notes": "Patient presents with ptosis.",
  "confirm":  false
}`

const hospitalAXML = `<Order>
  <Patient>
    <PatientMRN>654321</PatientMRN>
    <PatientFirstName>Jane</PatientFirstName>
    <PatientLastName>Smith</PatientLastName>
    <DateOfBirth>1975-06-20</DateOfBirth>
  </Patient>
  <Physician NPI="0987654321" Name="Dr. Lee" />
  <Diagnosis Primary="M05.79">
    <Secondary>M79.3</Secondary>
  </Diagnosis>
  <Medication Name="Methotrexate" />
  <MedHistory>
    <Item>Hydroxychloroquine 2019-2021</Item>
  </MedHistory>
  <ClinicalNotes>Joint pain bilateral wrists.</ClinicalNotes>
</Order>`

const riversidePayloadJSON = `{
  "referral": {"ref_id": "REF-2024-0891"},
  "subject": {"id_number": "789012", "given_name": "Carlos", "family_name": "Mendez", "birth_date": "19720408"},
  "ordering_physician": {"license_id": "3141592653", "full_name": "Dr. Priya Nair"},
  "treatment": {
    "drug": "Rituximab",
    "icd_primary": "C83.39",
    "icd_secondary": ["Z79.899"],
    "prior_drugs": [{"drug": "CHOP", "year": "2022"}]
  },
  "chart_summary": "Patient presents with DLBCL stage III.",
  "force_submit": false
}`

const summitPayloadJSON = `{
  "PATIENT_ID":      "334455",
  "PT_FIRST":        "Maria",
  "PT_LAST":         "Rodriguez",
  "PT_BIRTHDATE":    "03/15/1968",
  "PRESCRIBER_NPI":  "5678901234",
  "PRESCRIBER_NAME": "Dr. James Wu",
  "DRUG_NAME":       "Adalimumab",
  "DX_CODE_1":       "M06.09",
  "DX_CODE_2":       "M79.3",
  "DX_CODE_3":       "",
  "PRIOR_MED_1":     "Methotrexate",
  "PRIOR_MED_2":     "Leflunomide",
  "CLINICAL_SUMMARY": "RA patient with inadequate response to csDMARDs.",
  "RESUBMIT":        false
}`

func mustProcess(t *testing.T, source, body string) *Order {
	t.Helper()
	a, err := Resolve(source)
	if err != nil {
		t.Fatalf("resolve %s: %v", source, err)
	}
	ord, err := Process(a, []byte(body))
	if err != nil {
		t.Fatalf("process %s: %v", source, err)
	}
	return ord
}

// -- clinic_b --

func TestClinicB_FieldMapping(t *testing.T) {
	ord := mustProcess(t, "clinic_b", clinicBPayloadJSON)

	if ord.Source != "clinic_b" {
		t.Errorf("source = %q", ord.Source)
	}
	if ord.Patient.MRN != "123456" || ord.Patient.FirstName != "John" || ord.Patient.LastName != "Doe" {
		t.Errorf("patient mismatch: %+v", ord.Patient)
	}
	if ord.Patient.DOB != "1980-01-15" {
		t.Errorf("dob = %q", ord.Patient.DOB)
	}
	if ord.Provider.NPI != "1234567890" || ord.Provider.Name != "Dr. Smith" {
		t.Errorf("provider mismatch: %+v", ord.Provider)
	}
	if ord.Medication.Name != "Pyridostigmine" || ord.Medication.PrimaryDiagnosis != "G70.00" {
		t.Errorf("medication mismatch: %+v", ord.Medication)
	}
	if len(ord.Medication.AdditionalDiagnoses) != 1 || ord.Medication.AdditionalDiagnoses[0] != "E11.9" {
		t.Errorf("additional diagnoses = %v", ord.Medication.AdditionalDiagnoses)
	}
	if len(ord.Medication.History) != 1 || ord.Medication.History[0].Text() != "Neostigmine 2020-2022" {
		t.Errorf("history mismatch: %v", ord.Medication.History)
	}
	if ord.PatientRecords != "Patient presents with ptosis." {
		t.Errorf("patient records = %q", ord.PatientRecords)
	}
	if ord.Confirm {
		t.Error("confirm should default false")
	}
}

func TestClinicB_SecondaryAsBareString(t *testing.T) {
	body := strings.Replace(clinicBPayloadJSON, `["E11.9"]`, `"E11.9"`, 1)
	ord := mustProcess(t, "clinic_b", body)
	if len(ord.Medication.AdditionalDiagnoses) != 1 || ord.Medication.AdditionalDiagnoses[0] != "E11.9" {
		t.Errorf("expected bare string coerced to one-element list, got %v", ord.Medication.AdditionalDiagnoses)
	}
}

func TestClinicB_MissingNamesDefaultUnknown(t *testing.T) {
	body := `{
	  "pt": {"mrn": "123456", "dob": "1980-01-15"},
	  "provider": {"npi_num": "1234567890"},
	  "dx": {"primary": "G70.00"},
	  "rx": {"med_name": "Pyridostigmine"}
	}`
	ord := mustProcess(t, "clinic_b", body)
	if ord.Patient.FirstName != "Unknown" || ord.Patient.LastName != "Unknown" {
		t.Errorf("expected Unknown name defaults, got %+v", ord.Patient)
	}
	if ord.Provider.Name != "Unknown" {
		t.Errorf("expected Unknown provider name, got %q", ord.Provider.Name)
	}
	if len(ord.Medication.History) != 0 {
		t.Errorf("expected empty history, got %v", ord.Medication.History)
	}
}

func TestClinicB_RawPayloadPreserved(t *testing.T) {
	ord := mustProcess(t, "clinic_b", clinicBPayloadJSON)
	if string(ord.RawPayload) != clinicBPayloadJSON {
		t.Error("raw payload must be preserved byte-for-byte")
	}
}

func TestClinicB_MalformedJSON(t *testing.T) {
	a, _ := Resolve("clinic_b")
	_, err := Process(a, []byte(`{"pt": `))
	var f *outcome.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *outcome.Failure, got %v", err)
	}
	if f.Kind != outcome.KindValidation || f.Code != "MALFORMED_PAYLOAD" {
		t.Errorf("unexpected failure: %+v", f)
	}
}

// -- hospital_a --

func TestHospitalA_FieldMapping(t *testing.T) {
	ord := mustProcess(t, "hospital_a", hospitalAXML)

	if ord.Patient.MRN != "654321" || ord.Patient.FirstName != "Jane" || ord.Patient.LastName != "Smith" {
		t.Errorf("patient mismatch: %+v", ord.Patient)
	}
	if ord.Patient.DOB != "1975-06-20" {
		t.Errorf("dob = %q", ord.Patient.DOB)
	}
	if ord.Provider.NPI != "0987654321" || ord.Provider.Name != "Dr. Lee" {
		t.Errorf("provider mismatch: %+v", ord.Provider)
	}
	if ord.Medication.Name != "Methotrexate" || ord.Medication.PrimaryDiagnosis != "M05.79" {
		t.Errorf("medication mismatch: %+v", ord.Medication)
	}
	if len(ord.Medication.AdditionalDiagnoses) != 1 || ord.Medication.AdditionalDiagnoses[0] != "M79.3" {
		t.Errorf("additional diagnoses = %v", ord.Medication.AdditionalDiagnoses)
	}
	if len(ord.Medication.History) != 1 || ord.Medication.History[0].Text() != "Hydroxychloroquine 2019-2021" {
		t.Errorf("history mismatch: %v", ord.Medication.History)
	}
	if ord.Confirm {
		t.Error("hospital_a has no resubmit signal; confirm must be false")
	}
}

func TestHospitalA_BlankRepeatedElementsDropped(t *testing.T) {
	body := strings.Replace(hospitalAXML,
		"<Secondary>M79.3</Secondary>",
		"<Secondary>M79.3</Secondary>\n    <Secondary>  </Secondary>\n    <Secondary>M79.3</Secondary>", 1)
	ord := mustProcess(t, "hospital_a", body)
	if len(ord.Medication.AdditionalDiagnoses) != 1 || ord.Medication.AdditionalDiagnoses[0] != "M79.3" {
		t.Errorf("expected blanks and duplicates filtered, got %v", ord.Medication.AdditionalDiagnoses)
	}
}

func TestHospitalA_MalformedXML(t *testing.T) {
	a, _ := Resolve("hospital_a")
	_, err := Process(a, []byte(`<Order><Patient>`))
	var f *outcome.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *outcome.Failure, got %v", err)
	}
	if f.Code != "MALFORMED_PAYLOAD" {
		t.Errorf("unexpected code %q", f.Code)
	}
}

// -- riverside --

func TestRiverside_FieldMapping(t *testing.T) {
	ord := mustProcess(t, "riverside", riversidePayloadJSON)

	if ord.Patient.MRN != "789012" || ord.Patient.FirstName != "Carlos" || ord.Patient.LastName != "Mendez" {
		t.Errorf("patient mismatch: %+v", ord.Patient)
	}
	if ord.Provider.NPI != "3141592653" || ord.Provider.Name != "Dr. Priya Nair" {
		t.Errorf("provider mismatch: %+v", ord.Provider)
	}
	if ord.Medication.Name != "Rituximab" || ord.Medication.PrimaryDiagnosis != "C83.39" {
		t.Errorf("medication mismatch: %+v", ord.Medication)
	}
	if len(ord.Medication.AdditionalDiagnoses) != 1 || ord.Medication.AdditionalDiagnoses[0] != "Z79.899" {
		t.Errorf("additional diagnoses = %v", ord.Medication.AdditionalDiagnoses)
	}
}

func TestRiverside_CompactDOBNormalized(t *testing.T) {
	ord := mustProcess(t, "riverside", riversidePayloadJSON)
	if ord.Patient.DOB != "1972-04-08" {
		t.Errorf("expected 19720408 -> 1972-04-08, got %q", ord.Patient.DOB)
	}
}

func TestRiverside_StructuredHistoryPreserved(t *testing.T) {
	ord := mustProcess(t, "riverside", riversidePayloadJSON)
	if len(ord.Medication.History) != 1 {
		t.Fatalf("expected 1 history item, got %d", len(ord.Medication.History))
	}
	item := ord.Medication.History[0]
	if item.IsText() {
		t.Error("structured prior_drugs entry must not be flattened to text")
	}
	if got := item.Text(); !strings.Contains(got, `"drug":"CHOP"`) {
		t.Errorf("structured entry lost content: %s", got)
	}
}

func TestRiverside_ForceSubmitMapsToConfirm(t *testing.T) {
	body := strings.Replace(riversidePayloadJSON, `"force_submit": false`, `"force_submit": true`, 1)
	ord := mustProcess(t, "riverside", body)
	if !ord.Confirm {
		t.Error("force_submit=true must map to confirm=true")
	}
}

// -- summit --

func TestSummit_FieldMapping(t *testing.T) {
	ord := mustProcess(t, "summit", summitPayloadJSON)

	if ord.Patient.MRN != "334455" || ord.Patient.FirstName != "Maria" || ord.Patient.LastName != "Rodriguez" {
		t.Errorf("patient mismatch: %+v", ord.Patient)
	}
	if ord.Provider.NPI != "5678901234" || ord.Provider.Name != "Dr. James Wu" {
		t.Errorf("provider mismatch: %+v", ord.Provider)
	}
	if ord.Medication.Name != "Adalimumab" || ord.Medication.PrimaryDiagnosis != "M06.09" {
		t.Errorf("medication mismatch: %+v", ord.Medication)
	}
}

func TestSummit_SlashDOBNormalized(t *testing.T) {
	ord := mustProcess(t, "summit", summitPayloadJSON)
	if ord.Patient.DOB != "1968-03-15" {
		t.Errorf("expected 03/15/1968 -> 1968-03-15, got %q", ord.Patient.DOB)
	}
}

func TestSummit_NumberedDiagnosisFamily(t *testing.T) {
	ord := mustProcess(t, "summit", summitPayloadJSON)
	got := ord.Medication.AdditionalDiagnoses
	if len(got) != 1 || got[0] != "M79.3" {
		t.Errorf("expected [M79.3] (primary excluded, blank filtered), got %v", got)
	}
}

func TestSummit_NumberedFamilyStopsAtFirstGap(t *testing.T) {
	body := strings.Replace(summitPayloadJSON, `"PRIOR_MED_2":     "Leflunomide",`, `"PRIOR_MED_3":     "Leflunomide",`, 1)
	ord := mustProcess(t, "summit", body)
	if len(ord.Medication.History) != 1 || ord.Medication.History[0].Text() != "Methotrexate" {
		t.Errorf("collection must stop at the first missing index, got %v", ord.Medication.History)
	}
}

func TestSummit_PriorMedHistory(t *testing.T) {
	ord := mustProcess(t, "summit", summitPayloadJSON)
	if len(ord.Medication.History) != 2 {
		t.Fatalf("expected 2 history items, got %d", len(ord.Medication.History))
	}
	if ord.Medication.History[0].Text() != "Methotrexate" || ord.Medication.History[1].Text() != "Leflunomide" {
		t.Errorf("history order mismatch: %v", ord.Medication.History)
	}
}

func TestSummit_ResubmitMapsToConfirm(t *testing.T) {
	body := strings.Replace(summitPayloadJSON, `"RESUBMIT":        false`, `"RESUBMIT":        true`, 1)
	ord := mustProcess(t, "summit", body)
	if !ord.Confirm {
		t.Error("RESUBMIT=true must map to confirm=true")
	}
}

// -- date normalization passthrough --

func TestDateNormalizationPassthrough(t *testing.T) {
	if got := isoFromCompact("19720408"); got != "1972-04-08" {
		t.Errorf("isoFromCompact = %q", got)
	}
	if got := isoFromSlash("03/15/1968"); got != "1968-03-15" {
		t.Errorf("isoFromSlash = %q", got)
	}
	if got := isoFromCompact("1972-04-08"); got != "1972-04-08" {
		t.Errorf("already-ISO date must pass through, got %q", got)
	}
	if got := isoFromSlash("1968-03-15"); got != "1968-03-15" {
		t.Errorf("already-ISO date must pass through, got %q", got)
	}
	if got := isoFromSlash("3/5/1968"); got != "1968-03-05" {
		t.Errorf("single-digit month/day must be zero padded, got %q", got)
	}
}
