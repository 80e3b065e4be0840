// Package intake normalizes heterogeneous partner order submissions into
// one canonical order model. Each partner wire format has a dedicated
// adapter; the registry selects the adapter from the source identifier
// and Process runs parse, transform and field validation. The canonical
// order is built fresh per submission, flows through adjudication
// synchronously and is never cached or shared across requests.
package intake

import (
	"bytes"
	"encoding/json"
)

// Patient holds the normalized patient identity fields.
type Patient struct {
	MRN       string `json:"mrn"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// DOB is always ISO-8601 (YYYY-MM-DD) regardless of the source format.
	DOB string `json:"dob"`
}

// Provider holds the normalized ordering-provider identity fields.
type Provider struct {
	NPI  string `json:"npi"`
	Name string `json:"name"`
}

// Medication holds the requested treatment and its clinical context.
type Medication struct {
	Name                string        `json:"name"`
	PrimaryDiagnosis    string        `json:"primary_diagnosis"`
	AdditionalDiagnoses []string      `json:"additional_diagnoses"`
	History             []HistoryItem `json:"medication_history"`
}

// Order is the canonical shape every adapter produces and all business
// rules consume. Adapters never hold adjudication state and adjudication
// never mutates the order.
type Order struct {
	Source         string     `json:"source"`
	Patient        Patient    `json:"patient"`
	Provider       Provider   `json:"provider"`
	Medication     Medication `json:"medication"`
	PatientRecords string     `json:"patient_records"`
	// Confirm means the caller has seen and accepted prior warnings.
	// It is false unless the source's dedicated resubmit signal was set.
	Confirm bool `json:"confirm"`
	// RawPayload is the original input, preserved for audit and
	// debugging only. Business rules never read it.
	RawPayload []byte `json:"-"`
}

// HistoryItem is one prior-medication entry preserved exactly as the
// partner sent it. Sources disagree on shape: some transmit plain
// strings, others structured objects. Consumers switch on shape instead
// of assuming text.
type HistoryItem struct {
	raw json.RawMessage
}

// TextItem wraps a plain string entry.
func TextItem(s string) HistoryItem {
	b, _ := json.Marshal(s)
	return HistoryItem{raw: b}
}

// RawItem wraps an arbitrary JSON value without reinterpreting it.
func RawItem(raw json.RawMessage) HistoryItem {
	return HistoryItem{raw: append(json.RawMessage(nil), raw...)}
}

func (h HistoryItem) MarshalJSON() ([]byte, error) {
	if len(h.raw) == 0 {
		return []byte("null"), nil
	}
	return h.raw, nil
}

func (h *HistoryItem) UnmarshalJSON(b []byte) error {
	h.raw = append(json.RawMessage(nil), b...)
	return nil
}

// IsText reports whether the entry is a plain string.
func (h HistoryItem) IsText() bool {
	t := bytes.TrimSpace(h.raw)
	return len(t) > 0 && t[0] == '"'
}

// Text renders the entry for display: plain strings verbatim, structured
// entries as their compact JSON encoding.
func (h HistoryItem) Text() string {
	var s string
	if err := json.Unmarshal(h.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, h.raw); err == nil {
		return buf.String()
	}
	return string(h.raw)
}
