package intake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// summitAdapter handles Summit Health System's fully flattened JSON
// format. There is no nesting: every field sits at the top level in
// SCREAMING_SNAKE_CASE, secondary diagnoses and medication history are
// sequentially numbered flat fields rather than arrays, the birth date
// is slash-separated MM/DD/YYYY, and the resubmit signal is RESUBMIT:
//
//	{
//	  "PATIENT_ID":      "334455",
//	  "PT_FIRST":        "Maria",
//	  "PT_LAST":         "Rodriguez",
//	  "PT_BIRTHDATE":    "03/15/1968",
//	  "PRESCRIBER_NPI":  "5678901234",
//	  "PRESCRIBER_NAME": "Dr. James Wu",
//	  "DRUG_NAME":       "Adalimumab",
//	  "DX_CODE_1":       "M06.09",
//	  "DX_CODE_2":       "M79.3",
//	  "PRIOR_MED_1":     "Methotrexate",
//	  "CLINICAL_SUMMARY": "...",
//	  "RESUBMIT":        false
//	}
//
// Numbered families are collected in ascending order, stopping at the
// first missing index and filtering blank values. DX_CODE_1 is the
// primary diagnosis and is excluded from the additional list.
type summitAdapter struct{}

func (summitAdapter) Source() string { return "summit" }

func (summitAdapter) Parse(body []byte) (interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (summitAdapter) Transform(intermediate interface{}) (*Order, error) {
	m, ok := intermediate.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected intermediate type %T", intermediate)
	}

	dxCodes := collectNumbered(m, "DX_CODE_")
	var additional []string
	if len(dxCodes) > 1 {
		additional = dxCodes[1:]
	}

	var history []HistoryItem
	for _, med := range collectNumbered(m, "PRIOR_MED_") {
		history = append(history, TextItem(med))
	}

	resubmit, _ := m["RESUBMIT"].(bool)

	return &Order{
		Confirm: resubmit,
		Patient: Patient{
			MRN:       flatString(m, "PATIENT_ID"),
			FirstName: orUnknown(flatString(m, "PT_FIRST")),
			LastName:  orUnknown(flatString(m, "PT_LAST")),
			DOB:       isoFromSlash(flatString(m, "PT_BIRTHDATE")),
		},
		Provider: Provider{
			NPI:  flatString(m, "PRESCRIBER_NPI"),
			Name: orUnknown(flatString(m, "PRESCRIBER_NAME")),
		},
		Medication: Medication{
			Name:                flatString(m, "DRUG_NAME"),
			PrimaryDiagnosis:    flatString(m, "DX_CODE_1"),
			AdditionalDiagnoses: cleanCodes(additional),
			History:             history,
		},
		PatientRecords: flatString(m, "CLINICAL_SUMMARY"),
	}, nil
}

// collectNumbered gathers prefix1, prefix2, ... in ascending order. The
// scan stops at the first absent index; present-but-blank values are
// filtered without stopping the scan.
func collectNumbered(m map[string]interface{}, prefix string) []string {
	var out []string
	for i := 1; ; i++ {
		v, present := m[prefix+strconv.Itoa(i)]
		if !present {
			break
		}
		if s := strings.TrimSpace(anyString(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// flatString reads a top-level field as trimmed text, tolerating numeric
// values for identifier fields.
func flatString(m map[string]interface{}, key string) string {
	return strings.TrimSpace(anyString(m[key]))
}

func anyString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
