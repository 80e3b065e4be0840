package generate

import (
	"fmt"
	"strings"
)

// PromptVersion tags stored care plans with the prompt revision that
// produced them, so a later prompt change is distinguishable in data.
const PromptVersion = "v1"

// SystemPrompt frames every generation call.
const SystemPrompt = "You are an expert clinical pharmacist specializing in specialty pharmacy care plans."

// PromptInput carries the persisted order fields the prompt is built
// from. History entries arrive pre-rendered as display strings.
type PromptInput struct {
	PatientName         string
	PatientDOB          string
	PatientMRN          string
	ProviderName        string
	ProviderNPI         string
	MedicationName      string
	PrimaryDiagnosis    string
	AdditionalDiagnoses []string
	MedicationHistory   []string
	PatientRecords      string
}

// BuildPrompt renders the care-plan generation prompt.
func BuildPrompt(in PromptInput) string {
	additional := "None"
	if len(in.AdditionalDiagnoses) > 0 {
		additional = strings.Join(in.AdditionalDiagnoses, ", ")
	}
	history := "None"
	if len(in.MedicationHistory) > 0 {
		history = strings.Join(in.MedicationHistory, ", ")
	}
	records := in.PatientRecords
	if records == "" {
		records = "Not provided"
	}

	return fmt.Sprintf(`You are an expert clinical pharmacist creating a Care Plan for a specialty pharmacy patient.

Patient Information:
- Name: %s
- DOB: %s
- MRN: %s

Provider Information:
- Name: %s
- NPI: %s

Medication: %s
Primary Diagnosis: %s
Additional Diagnoses: %s
Medication History: %s
Patient Records: %s

Please generate a comprehensive Care Plan with the following sections:

1. **Problem List / Drug Therapy Problems (DTPs)**
   - List potential drug therapy problems related to this medication
   - Consider adverse reactions, drug interactions, contraindications

2. **Goals (SMART)**
   - Primary therapeutic goal with specific timeframe
   - Safety goals
   - Process goals for medication adherence

3. **Pharmacist Interventions / Plan**
   - Dosing & Administration details
   - Premedication requirements if applicable
   - Infusion protocol if applicable
   - Adverse event management strategies

4. **Monitoring Plan & Lab Schedule**
   - Pre-treatment monitoring
   - During-treatment monitoring
   - Post-treatment monitoring
   - Specific lab values to track

Format the output in clear markdown with headers.`,
		in.PatientName, in.PatientDOB, in.PatientMRN,
		in.ProviderName, in.ProviderNPI,
		in.MedicationName, in.PrimaryDiagnosis, additional, history, records)
}
